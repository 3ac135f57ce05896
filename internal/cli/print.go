// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/seekchat/internal/model"
	"github.com/jeranaias/seekchat/internal/reveal"
	"github.com/jeranaias/seekchat/internal/util"
)

// =============================================================================
// LINE-MODE RENDERING
// =============================================================================

// framePrinter writes reveal frames to a stream as deltas. A terminal cannot
// redraw earlier lines cheaply, so each frame prints only the runes the
// previous frame had not shown.
type framePrinter struct {
	w             io.Writer
	showReasoning bool
	reasoning     int // runes of reasoning already printed
	answer        int // runes of answer already printed
	inAnswer      bool
	hadThought    bool
}

func newFramePrinter(w io.Writer, showReasoning bool) *framePrinter {
	return &framePrinter{w: w, showReasoning: showReasoning}
}

// Frame prints what frame adds over the previous one.
func (p *framePrinter) Frame(frame reveal.Snapshot) {
	if r := []rune(frame.VisibleReasoning); p.showReasoning && len(r) > p.reasoning {
		if p.reasoning == 0 {
			fmt.Fprintln(p.w, DimStyle.Render("[思考过程]"))
			p.hadThought = true
		}
		fmt.Fprint(p.w, ReasoningStyle.Render(string(r[p.reasoning:])))
		p.reasoning = len(r)
	}

	if frame.Phase == reveal.PhaseReasoning {
		return
	}
	if !p.inAnswer {
		p.inAnswer = true
		if p.hadThought {
			fmt.Fprint(p.w, "\n\n")
		}
	}
	if a := []rune(frame.VisibleAnswer); len(a) > p.answer {
		fmt.Fprint(p.w, string(a[p.answer:]))
		p.answer = len(a)
	}
	if !frame.Active {
		fmt.Fprintln(p.w)
	}
}

// printMessage writes a settled assistant message in full: reasoning, answer
// or notice, then sources.
func printMessage(w io.Writer, msg *model.Message, withReasoning bool) {
	switch msg.RevealState {
	case model.RevealErrored:
		fmt.Fprintln(w, ErrorStyle.Render("[X] "+msg.MainText))
		if msg.ErrorDetail != "" {
			fmt.Fprintln(w, DimStyle.Render("    "+util.OneLine(msg.ErrorDetail)))
		}
		return
	case model.RevealAborted:
		fmt.Fprintln(w, WarningStyle.Render(msg.MainText))
		return
	}

	if withReasoning && msg.HasReasoning() {
		fmt.Fprintln(w, DimStyle.Render("[思考过程]"))
		fmt.Fprintln(w, ReasoningStyle.Render(msg.ReasoningText))
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, msg.MainText)
}

// printSources writes the numbered source list, if any.
func printSources(w io.Writer, results []model.SearchResult) {
	if len(results) == 0 {
		return
	}
	width := GetTerminalWidth() - 4
	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("参考来源 (%d)", len(results))))
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = r.URL
		}
		fmt.Fprintf(w, "%2d. %s\n", i+1, util.TruncateWidth(util.OneLine(title), width))
		meta := []string{}
		if r.SourceName != "" {
			meta = append(meta, r.SourceName)
		}
		if r.URL != "" {
			meta = append(meta, r.URL)
		}
		if len(meta) > 0 {
			fmt.Fprintln(w, DimStyle.Render("    "+util.TruncateWidth(strings.Join(meta, " · "), width)))
		}
	}
}
