// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"log"
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer renders finished answers with glamour. Output is cached per
// source text and dropped when the wrap width changes. Revealing text is never
// passed through here: half-written Markdown renders badly.
type markdownRenderer struct {
	dark     bool
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newMarkdownRenderer(dark bool) *markdownRenderer {
	return &markdownRenderer{dark: dark, width: 74, cache: make(map[string]string)}
}

// SetWidth sets the wrap width.
func (r *markdownRenderer) SetWidth(width int) {
	if width == r.width {
		return
	}
	r.width = width
	r.renderer = nil
	r.Reset()
}

// Reset drops cached output.
func (r *markdownRenderer) Reset() {
	r.cache = make(map[string]string)
}

// Render returns text rendered as Markdown, or text unchanged when the
// renderer cannot be built or fails.
func (r *markdownRenderer) Render(text string) string {
	if out, ok := r.cache[text]; ok {
		return out
	}
	if r.renderer == nil {
		style := "light"
		if r.dark {
			style = "dark"
		}
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(r.width),
		)
		if err != nil {
			log.Printf("MARKDOWN_INIT_FAILED | error=%v", err)
			return text
		}
		r.renderer = tr
	}

	out, err := r.renderer.Render(text)
	if err != nil {
		return text
	}
	out = strings.Trim(out, "\n")
	r.cache[text] = out
	return out
}
