// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

// =============================================================================
// ROLE AND STATE TESTS
// =============================================================================

func TestRole_DisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleAssistant, "DeepSeek"},
		{RoleSystem, "System"},
		{Role("tool"), "tool"},
	}
	for _, tc := range tests {
		if got := tc.role.DisplayName(); got != tc.want {
			t.Errorf("%q.DisplayName() = %q, want %q", tc.role, got, tc.want)
		}
	}
	if Role("tool").Valid() {
		t.Error("unknown role should not be valid")
	}
}

func TestRevealState_Terminal(t *testing.T) {
	tests := []struct {
		state     RevealState
		terminal  bool
		revealing bool
	}{
		{RevealPending, false, false},
		{RevealRevealingReasoning, false, true},
		{RevealRevealingAnswer, false, true},
		{RevealComplete, true, false},
		{RevealAborted, true, false},
		{RevealErrored, true, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.state), func(t *testing.T) {
			if got := tc.state.Terminal(); got != tc.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tc.terminal)
			}
			if got := tc.state.Revealing(); got != tc.revealing {
				t.Errorf("Revealing() = %v, want %v", got, tc.revealing)
			}
		})
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessages(t *testing.T) {
	user := NewUserMessage("你好")
	if user.Role != RoleUser || user.RevealState != RevealComplete || user.MainText != "你好" {
		t.Errorf("unexpected user message: %+v", user)
	}
	if user.Timestamp.IsZero() {
		t.Error("user message should be timestamped")
	}

	p := NewPlaceholder("reasoning-large")
	if p.Role != RoleAssistant || p.RevealState != RevealPending || p.Variant != "reasoning-large" {
		t.Errorf("unexpected placeholder: %+v", p)
	}
	if p.Answered() {
		t.Error("a placeholder is not an answer")
	}
}

func TestMessage_Answered(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
		want bool
	}{
		{"complete", &Message{Role: RoleAssistant, MainText: "a", RevealState: RevealComplete}, true},
		{"revealing", &Message{Role: RoleAssistant, MainText: "a", RevealState: RevealRevealingReasoning}, true},
		{"errored notice", &Message{Role: RoleAssistant, MainText: NoticeTransportFailure, RevealState: RevealErrored}, false},
		{"aborted notice", &Message{Role: RoleAssistant, MainText: NoticeAborted, RevealState: RevealAborted}, false},
		{"empty answer", &Message{Role: RoleAssistant, RevealState: RevealComplete}, false},
		{"user", NewUserMessage("q"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.Answered(); got != tt.want {
				t.Errorf("Answered() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessage_Finalize(t *testing.T) {
	m := NewPlaceholder("plain+search")
	m.MainText = "partial"
	m.ReasoningText = "thinking"
	m.SearchResults = []SearchResult{{Title: "t", URL: "https://example.com"}}

	m.Finalize(RevealAborted, NoticeAborted)

	if m.MainText != NoticeAborted {
		t.Errorf("MainText = %q, want notice", m.MainText)
	}
	if m.HasReasoning() || m.SearchResults != nil {
		t.Error("Finalize should drop reasoning and sources")
	}
	if m.RevealState != RevealAborted {
		t.Errorf("RevealState = %s, want aborted", m.RevealState)
	}
}

func TestMessage_CloneIsDeep(t *testing.T) {
	m := NewPlaceholder("plain+search")
	m.SearchResults = []SearchResult{{Title: "a"}}

	c := m.Clone()
	c.SearchResults[0].Title = "b"
	c.MainText = "changed"

	if m.SearchResults[0].Title != "a" || m.MainText != "" {
		t.Error("Clone shares state with the original")
	}
	var nilMsg *Message
	if nilMsg.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestMessage_Preview(t *testing.T) {
	m := NewUserMessage(strings.Repeat("字", 80))
	if got := []rune(m.Preview(10)); len(got) > 10 {
		t.Errorf("Preview length = %d runes, want <= 10", len(got))
	}
	short := NewUserMessage("短")
	if short.Preview(10) != "短" {
		t.Errorf("Preview of short text = %q", short.Preview(10))
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_AppendAssignsOrdinalIDs(t *testing.T) {
	c := NewConversation()
	if !strings.HasPrefix(c.ID, "conv_") {
		t.Errorf("ID = %q, want conv_ prefix", c.ID)
	}
	if c.Len() != 0 || c.LastAssistantIndex() != -1 {
		t.Fatal("new conversation should be empty")
	}

	for i, m := range []*Message{NewUserMessage("q1"), NewPlaceholder("plain"), NewUserMessage("q2")} {
		if got := c.Append(m); got != i {
			t.Errorf("Append #%d returned %d", i, got)
		}
		if m.ID != i {
			t.Errorf("message %d has ID %d", i, m.ID)
		}
	}

	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
	if c.LastAssistantIndex() != 1 {
		t.Errorf("LastAssistantIndex() = %d, want 1", c.LastAssistantIndex())
	}
	if c.At(3) != nil || c.At(-1) != nil {
		t.Error("At out of range should be nil")
	}
}

func TestConversation_ReplaceKeepsPosition(t *testing.T) {
	c := NewConversation()
	c.Append(NewUserMessage("q"))
	c.Append(NewPlaceholder("plain"))

	answer := NewPlaceholder("plain")
	answer.MainText = "a"
	answer.ID = 42
	if !c.Replace(1, answer) {
		t.Fatal("Replace(1) failed")
	}
	if answer.ID != 1 || c.At(1).MainText != "a" {
		t.Errorf("replaced message = %+v", c.At(1))
	}
	if c.Replace(2, NewUserMessage("x")) {
		t.Error("Replace past the end should fail")
	}
}

func TestConversation_Title(t *testing.T) {
	c := NewConversation()
	if c.GetTitle() != "New Conversation" {
		t.Errorf("default title = %q", c.GetTitle())
	}
	c.Append(NewUserMessage("第一行\n第二行"))
	c.Append(NewUserMessage("later"))
	if c.GetTitle() != "第一行 第二行" {
		t.Errorf("title = %q", c.GetTitle())
	}
}

func TestConversation_AnswerIndex(t *testing.T) {
	c := NewConversation()
	c.Append(NewUserMessage("q1"))
	c.Append(NewPlaceholder("plain"))
	c.Append(NewUserMessage("q2"))
	c.Append(NewPlaceholder("plain"))

	for n, want := range map[int]int{1: 1, 2: 3, 3: -1, 0: -1, -2: -1} {
		if got := c.AnswerIndex(n); got != want {
			t.Errorf("AnswerIndex(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestConversation_Clone(t *testing.T) {
	c := NewConversation()
	c.Append(NewUserMessage("q"))
	c.Append(NewPlaceholder("plain"))

	clone := c.Clone()
	clone.Messages[0].MainText = "changed"
	if c.Messages[0].MainText != "q" {
		t.Error("Clone shares messages with the original")
	}
}
