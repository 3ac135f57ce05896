// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/seekchat/internal/config"
)

// Request results and reveal ticks arrive as lifecycle.ResultMsg and
// reveal.TickMsg. The messages below are the view's own.

// ConfigReloadedMsg is sent when the config file changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// statusLevel picks how the transient status line is drawn.
type statusLevel int

const (
	statusInfo statusLevel = iota
	statusSuccess
	statusWarning
	statusError
)

// statusTimeout is how long a transient status line stays visible.
const statusTimeout = 4 * time.Second

// clearStatusMsg clears the status line set under the same sequence number.
type clearStatusMsg struct {
	seq int
}

func clearStatusAfter(seq int) tea.Cmd {
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}
