// seekchat - Terminal chat for DeepSeek models with reasoning and web search.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import "github.com/jeranaias/seekchat/internal/cli"

// Build metadata is injected with:
//
//	go build -ldflags "-X github.com/jeranaias/seekchat/internal/cli.Version=1.0.0"
func main() {
	cli.Execute()
}
