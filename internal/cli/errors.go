// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/jeranaias/seekchat/internal/config"
	"github.com/jeranaias/seekchat/internal/upstream"
	"github.com/jeranaias/seekchat/internal/variant"
)

// Commands return errors; Execute prints them once and maps them to these
// exit codes.
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitNetworkError = 5
)

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string
	Action  string
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// ErrReplyFailed is returned by ask when the reply ended errored, so scripts
// can tell a failed answer from a printed one.
var ErrReplyFailed = errors.New("reply failed")

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	var verrs config.ValidateErrors
	var ttyErr *TTYRequiredError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, variant.ErrUnknownVariant), errors.As(err, &ttyErr):
		return ExitUsageError
	case errors.As(err, &verrs):
		return ExitConfigError
	case errors.Is(err, &upstream.TransportError{}), errors.Is(err, upstream.ErrMissingKey), errors.Is(err, ErrReplyFailed):
		return ExitNetworkError
	default:
		return ExitGeneralError
	}
}
