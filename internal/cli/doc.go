// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the seekchat command tree.
//
// # Commands
//
//	seekchat                     Start the TUI (default)
//	seekchat tui                 Start the TUI
//	seekchat ask "question"      Ask one question and print the answer
//	seekchat chat                Line-mode chat with history
//	seekchat variants            List model variants
//	seekchat history [show|clear|export]
//	seekchat version
//
// # Global Flags
//
//	--config PATH   Use this config file instead of ~/.seekchat/config.toml
//	--backend NAME  Override storage.backend (file, sqlite, memory)
//	--ephemeral     Keep the conversation in memory only
//	--verbose       Log to stderr instead of ~/.seekchat/seekchat.log
//
// Every command wires the same stack: config, variant registry, upstream
// client, storage backend, reveal engine and lifecycle controller.
package cli
