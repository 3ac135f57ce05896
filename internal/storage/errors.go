// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// =============================================================================
// ERRORS
// =============================================================================

// ErrIndexOutOfRange is returned when a message index does not exist.
// Use errors.Is(err, ErrIndexOutOfRange) to check for this error.
var ErrIndexOutOfRange = &StoreError{Message: "message index out of range"}

// ErrInvalidMessage is returned for messages that violate the data model.
var ErrInvalidMessage = &StoreError{Message: "invalid message"}

// StoreError represents a storage error.
// It implements the error interface and can be compared using errors.Is.
type StoreError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
