// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"log"
	"sync"
	"time"

	"github.com/jeranaias/seekchat/internal/model"
)

// DefaultInterval is the time between reveal steps.
const DefaultInterval = 30 * time.Millisecond

// =============================================================================
// ENGINE
// =============================================================================

// Engine holds at most one active Session.
type Engine struct {
	mu       sync.Mutex
	interval time.Duration
	enabled  bool
	gen      uint64
	active   *Session
}

// NewEngine creates an engine stepping every interval. A non-positive
// interval selects DefaultInterval.
func NewEngine(interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Engine{interval: interval, enabled: true}
}

// SetInterval changes the step interval for subsequent ticks.
func (e *Engine) SetInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultInterval
	}
	e.mu.Lock()
	e.interval = d
	e.mu.Unlock()
}

// Interval returns the step interval.
func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

// SetEnabled turns animation on or off. When off, Start completes at once.
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	e.enabled = enabled
	e.mu.Unlock()
}

// Start begins revealing msg and sets its RevealState. Any session still
// active is finished first; its final snapshot is returned as flushed so the
// caller can settle that message.
func (e *Engine) Start(msg *model.Message) (started Session, flushed *Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		done := e.active.Finish().Snapshot(false)
		flushed = &done
		log.Printf("REVEAL_FLUSH | message=%d gen=%d", done.MessageID, done.Gen)
	}

	e.gen++
	s := NewSession(msg.ID, e.gen, msg.ReasoningText, msg.MainText)
	if !e.enabled {
		s = s.Finish()
	}
	msg.RevealState = s.Phase.RevealState()

	if s.Done() {
		e.active = nil
	} else {
		e.active = &s
	}
	return s, flushed
}

// Advance applies one step if gen matches the active session. Ticks for any
// other generation are stale and report false.
func (e *Engine) Advance(gen uint64) (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil || e.active.Gen != gen {
		return Snapshot{}, false
	}

	next := e.active.Step()
	if next.Done() {
		e.active = nil
		return next.Snapshot(false), true
	}
	e.active = &next
	return next.Snapshot(true), true
}

// Cancel fast-forwards the active session to its end. It never touches the
// request lifecycle. Returns false when nothing is revealing.
func (e *Engine) Cancel() (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return Snapshot{}, false
	}
	done := e.active.Finish()
	done.Cancelled = true
	e.active = nil
	log.Printf("REVEAL_SKIP | message=%d gen=%d", done.MessageID, done.Gen)
	return done.Snapshot(false), true
}

// Snapshot returns the active session state. Active is false when idle.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return Snapshot{MessageID: -1, Phase: PhaseComplete}
	}
	return e.active.Snapshot(true)
}

// Active reports whether a session is revealing.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active != nil
}

// Gen returns the generation of the active session, or 0.
func (e *Engine) Gen() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return 0
	}
	return e.active.Gen
}
