// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across seekchat packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe snapshot writes (temp file, fsync, rename)
//   - TruncateRunes, PrefixRunes: UTF-8 safe truncation and prefixes
//   - TruncateWidth, StringWidth: display-column aware helpers for CJK text
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0600)
//	visible := util.PrefixRunes(answer, cursor)
package util
