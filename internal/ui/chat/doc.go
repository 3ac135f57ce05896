// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen chat view for seekchat.
//
// The Model is a Bubble Tea model wrapped around a lifecycle.Controller. The
// Update loop is the controller's single owner: key presses start, abort and
// regenerate requests, lifecycle.ResultMsg settles them, and reveal.TickMsg
// advances the progressive reveal of the latest answer.
//
// # Layout
//
//	seekchat  [深度思考] [联网搜索]  plain
//	--------------------------------------
//	viewport: the conversation
//	--------------------------------------
//	> input
//	status bar / key help
//
// # Keys
//
//   - Enter: send the question
//   - Esc: abort the outstanding request, or finish the reveal
//   - Ctrl+R: regenerate the last answer
//   - Ctrl+Y: copy the last answer to the clipboard
//   - Ctrl+T / Ctrl+S: toggle deep thinking / web search (remembered across
//     restarts when a variant saver is set)
//   - Tab: collapse or expand reasoning panels
//   - Ctrl+N: start a new conversation
//   - Ctrl+C: quit
package chat
