// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders a stored conversation as Markdown, HTML or JSON.
//
// Assistant messages carry their chain of thought and web sources into every
// format. Reasoning is a block quote in Markdown and a collapsible section in
// HTML. Aborted and failed replies are exported as their notice.
//
// # Usage
//
//	exp, err := export.ForFormat("html", export.DefaultOptions())
//	data, err := exp.Export(store.Snapshot())
//
//	path, err := export.ExportToFile(store.Snapshot(), exp, "./exports")
package export
