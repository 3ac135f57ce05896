// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/jeranaias/seekchat/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "DeepSeek"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// =============================================================================
// REVEAL STATE
// =============================================================================

// RevealState tracks a message's on-screen disclosure.
type RevealState string

const (
	RevealPending            RevealState = "pending"
	RevealRevealingReasoning RevealState = "revealing-reasoning"
	RevealRevealingAnswer    RevealState = "revealing-answer"
	RevealComplete           RevealState = "complete"
	RevealAborted            RevealState = "aborted"
	RevealErrored            RevealState = "errored"
)

// Terminal reports whether no further reveal work will happen.
func (s RevealState) Terminal() bool {
	switch s {
	case RevealComplete, RevealAborted, RevealErrored:
		return true
	}
	return false
}

// Revealing reports whether a reveal session is driving the message.
func (s RevealState) Revealing() bool {
	return s == RevealRevealingReasoning || s == RevealRevealingAnswer
}

// Fixed notices shown in place of an answer.
const (
	NoticeAborted          = "已停止生成"
	NoticeTransportFailure = "请求失败，请稍后重试"
	NoticeUpstreamFailure  = "抱歉，服务暂时不可用"
)

// =============================================================================
// SEARCH RESULT
// =============================================================================

// MaxSearchResults caps the evidence attached to one message.
const MaxSearchResults = 10

// SearchResult is one web-search hit attached to an answer.
type SearchResult struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Snippet    string `json:"snippet"`
	SourceName string `json:"source_name"`
	CrawledAt  string `json:"crawled_at,omitempty"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	// Identity
	ID        int       `json:"id"` // position in the conversation
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	MainText      string `json:"main_text"`
	ReasoningText string `json:"reasoning_text,omitempty"`

	// Provenance (assistant messages only)
	Variant       string         `json:"variant,omitempty"`
	SearchResults []SearchResult `json:"search_results,omitempty"`
	ErrorDetail   string         `json:"error_detail,omitempty"`

	RevealState RevealState `json:"reveal_state"`
}

// NewUserMessage creates a user message. User messages never reveal.
func NewUserMessage(text string) *Message {
	return &Message{
		Role:        RoleUser,
		MainText:    text,
		Timestamp:   time.Now(),
		RevealState: RevealComplete,
	}
}

// NewPlaceholder creates the pending assistant message shown while a call is
// outstanding.
func NewPlaceholder(variant string) *Message {
	return &Message{
		Role:        RoleAssistant,
		Variant:     variant,
		Timestamp:   time.Now(),
		RevealState: RevealPending,
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// Finalize sets a fixed notice as the visible text and moves the message to a
// terminal state without any reveal.
func (m *Message) Finalize(state RevealState, notice string) {
	m.MainText = notice
	m.ReasoningText = ""
	m.SearchResults = nil
	m.RevealState = state
}

// HasReasoning reports whether there is chain-of-thought to show.
func (m *Message) HasReasoning() bool {
	return m.ReasoningText != ""
}

// Clone returns a deep copy safe to hand to readers.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	if m.SearchResults != nil {
		c.SearchResults = make([]SearchResult, len(m.SearchResults))
		copy(c.SearchResults, m.SearchResults)
	}
	return &c
}

// Preview returns a truncated preview of the message text.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(m.MainText, maxLen)
}

// Answered reports whether m carries a real answer rather than a placeholder
// or a failure notice.
func (m *Message) Answered() bool {
	if m.Role != RoleAssistant || m.MainText == "" {
		return false
	}
	return m.RevealState == RevealComplete || m.RevealState.Revealing()
}
