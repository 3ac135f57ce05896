// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/seekchat/internal/config"
)

// LogFileName is the log file inside the config directory.
const LogFileName = "seekchat.log"

// setupLogging sends the standard logger to the log file, or to stderr when
// verbose. It returns a function that closes the file.
func setupLogging(verbose bool) func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if verbose {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	dir, err := config.ConfigDir()
	if err == nil {
		err = os.MkdirAll(dir, 0700)
	}
	if err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}

	f, err := tea.LogToFile(filepath.Join(dir, LogFileName), "")
	if err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	return func() { f.Close() }
}
