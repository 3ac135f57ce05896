// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// BUBBLETEA SCHEDULING
// =============================================================================

// TickMsg asks the owner of the engine to Advance generation Gen.
type TickMsg struct {
	Gen  uint64
	Time time.Time
}

// TickCmd schedules one TickMsg for gen after interval.
func TickCmd(gen uint64, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Gen: gen, Time: t}
	})
}

// Tick schedules the next tick for the active session, or returns nil.
func (e *Engine) Tick() tea.Cmd {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return nil
	}
	return TickCmd(e.active.Gen, e.interval)
}

// =============================================================================
// LOOP SCHEDULING
// =============================================================================

// Drive steps the active session on a ticker, calling onFrame after every
// step, until the session completes. Cancelling ctx skips to the end and
// delivers the final frame; that is a normal return, not an error.
func Drive(ctx context.Context, e *Engine, onFrame func(Snapshot)) {
	gen := e.Gen()
	if gen == 0 {
		return
	}

	ticker := time.NewTicker(e.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if snap, ok := e.Cancel(); ok {
				onFrame(snap)
			}
			return
		case <-ticker.C:
			snap, ok := e.Advance(gen)
			if !ok {
				return
			}
			onFrame(snap)
			if !snap.Active {
				return
			}
		}
	}
}
