// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal discloses a finished answer progressively: reasoning first,
// then the answer, one rune per tick.
//
// Session is a pure reducer. Engine owns the single active session and guards
// it with generation numbers so ticks scheduled for a replaced session are
// dropped. Scheduling lives outside the reducer: TickCmd for bubbletea, Drive
// for plain loops.
package reveal

import (
	"github.com/jeranaias/seekchat/internal/model"
)

// =============================================================================
// PHASE
// =============================================================================

// Phase is the part of a message currently being disclosed.
type Phase int

const (
	PhaseReasoning Phase = iota
	PhaseAnswer
	PhaseComplete
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseReasoning:
		return "reasoning"
	case PhaseAnswer:
		return "answer"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// RevealState maps the phase onto a message's reveal state.
func (p Phase) RevealState() model.RevealState {
	switch p {
	case PhaseReasoning:
		return model.RevealRevealingReasoning
	case PhaseAnswer:
		return model.RevealRevealingAnswer
	default:
		return model.RevealComplete
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the reveal progress of one message. It is a value; Step and
// Finish return the next state without modifying the receiver.
type Session struct {
	MessageID int
	Gen       uint64
	Phase     Phase
	Cursor    int // runes visible in the current phase
	Cancelled bool

	reasoning []rune
	answer    []rune
}

// NewSession begins at the reasoning phase, or the answer phase when there is
// no reasoning, or complete when both are empty.
func NewSession(messageID int, gen uint64, reasoning, answer string) Session {
	s := Session{
		MessageID: messageID,
		Gen:       gen,
		reasoning: []rune(reasoning),
		answer:    []rune(answer),
	}
	switch {
	case len(s.reasoning) > 0:
		s.Phase = PhaseReasoning
	case len(s.answer) > 0:
		s.Phase = PhaseAnswer
	default:
		s.Phase = PhaseComplete
	}
	return s
}

// Step advances the cursor by one rune. Reaching the end of the reasoning
// switches to the answer with the cursor reset; reaching the end of the answer
// completes the session. Stepping a complete session is a no-op.
func (s Session) Step() Session {
	switch s.Phase {
	case PhaseReasoning:
		s.Cursor++
		if s.Cursor >= len(s.reasoning) {
			s.Cursor = 0
			s.Phase = PhaseAnswer
			if len(s.answer) == 0 {
				s.Phase = PhaseComplete
			}
		}
	case PhaseAnswer:
		s.Cursor++
		if s.Cursor >= len(s.answer) {
			s.Cursor = len(s.answer)
			s.Phase = PhaseComplete
		}
	}
	return s
}

// Finish snaps to the end: both buffers full, phase complete.
func (s Session) Finish() Session {
	s.Phase = PhaseComplete
	s.Cursor = len(s.answer)
	return s
}

// Done reports whether the session is complete.
func (s Session) Done() bool {
	return s.Phase == PhaseComplete
}

// FullReasoningLen is the reasoning length in runes.
func (s Session) FullReasoningLen() int { return len(s.reasoning) }

// FullAnswerLen is the answer length in runes.
func (s Session) FullAnswerLen() int { return len(s.answer) }

// VisibleReasoning is the reasoning prefix on screen.
func (s Session) VisibleReasoning() string {
	if s.Phase == PhaseReasoning {
		return string(s.reasoning[:s.Cursor])
	}
	return string(s.reasoning)
}

// VisibleAnswer is the answer prefix on screen.
func (s Session) VisibleAnswer() string {
	switch s.Phase {
	case PhaseReasoning:
		return ""
	case PhaseAnswer:
		return string(s.answer[:s.Cursor])
	}
	return string(s.answer)
}

// Snapshot captures the session for rendering.
func (s Session) Snapshot(active bool) Snapshot {
	return Snapshot{
		MessageID:        s.MessageID,
		Gen:              s.Gen,
		Phase:            s.Phase,
		VisibleReasoning: s.VisibleReasoning(),
		VisibleAnswer:    s.VisibleAnswer(),
		Active:           active,
		Cancelled:        s.Cancelled,
	}
}

// Snapshot is what a renderer needs to draw the revealing message.
type Snapshot struct {
	MessageID        int
	Gen              uint64
	Phase            Phase
	VisibleReasoning string
	VisibleAnswer    string
	Active           bool
	Cancelled        bool
}

// State is the message reveal state for this snapshot.
func (s Snapshot) State() model.RevealState {
	return s.Phase.RevealState()
}
