// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/seekchat/internal/lifecycle"
	"github.com/jeranaias/seekchat/internal/model"
)

// turnRunner performs one request and its reveal for the line-mode front
// ends. It drives the same controller the TUI uses, but runs the upstream
// command and the reveal ticker directly instead of through a tea.Program.
//
// An interrupt while the request is outstanding aborts it. An interrupt
// during the reveal skips to the end.
type turnRunner struct {
	ctrl          *lifecycle.Controller
	out           io.Writer
	interrupts    <-chan os.Signal
	showReasoning bool
}

// Run starts a request with start and blocks until the assistant message has
// settled. It returns a copy of that message.
func (r *turnRunner) Run(ctx context.Context, start func() (tea.Cmd, error)) (*model.Message, error) {
	r.drain()

	cmd, err := start()
	if err != nil {
		return nil, err
	}
	_, idx, _ := r.ctrl.Outstanding()

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var result tea.Msg
	select {
	case result = <-done:
	case <-r.interrupts:
		r.ctrl.Abort()
		result = <-done
	case <-ctx.Done():
		r.ctrl.Abort()
		result = <-done
	}
	if res, ok := result.(lifecycle.ResultMsg); ok {
		r.ctrl.Resolve(res)
	}

	animated := r.ctrl.Engine().Active()
	if animated {
		r.reveal(ctx)
	}

	final, err := r.ctrl.Store().Get(idx)
	if err != nil {
		return nil, err
	}
	if !animated {
		printMessage(r.out, final, r.showReasoning)
	}
	printSources(r.out, final.SearchResults)
	return final, nil
}

func (r *turnRunner) reveal(ctx context.Context) {
	revealCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-r.interrupts:
			cancel()
		case <-stop:
		}
	}()

	printer := newFramePrinter(r.out, r.showReasoning)
	r.ctrl.RunReveal(revealCtx, printer.Frame)
}

// drain discards interrupts that arrived while no turn was running.
func (r *turnRunner) drain() {
	for {
		select {
		case <-r.interrupts:
		default:
			return
		}
	}
}
