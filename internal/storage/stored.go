// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/seekchat/internal/model"
	"github.com/jeranaias/seekchat/internal/util"
)

// SchemaVersion is written into every snapshot.
const SchemaVersion = 1

// =============================================================================
// STORED CONVERSATION TYPE
// =============================================================================

// StoredConversation is the persisted snapshot of a conversation.
type StoredConversation struct {
	// Identity
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []StoredMessage `json:"messages"`
}

// StoredMessage is the persisted form of a model.Message.
type StoredMessage struct {
	ID        int       `json:"id"`
	Role      string    `json:"role"` // "user", "assistant", "system"
	Content   string    `json:"content"`
	Reasoning string    `json:"reasoning,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Assistant provenance
	Variant       string               `json:"variant,omitempty"`
	SearchResults []model.SearchResult `json:"search_results,omitempty"`
	ErrorDetail   string               `json:"error_detail,omitempty"`
	RevealState   string               `json:"reveal_state"`
}

// FromConversation builds a snapshot of conv.
func FromConversation(conv *model.Conversation) *StoredConversation {
	snap := &StoredConversation{
		Version:   SchemaVersion,
		ID:        conv.ID,
		Summary:   conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
		Messages:  make([]StoredMessage, 0, len(conv.Messages)),
	}
	for _, m := range conv.Messages {
		sm := StoredMessage{
			ID:          m.ID,
			Role:        m.Role.String(),
			Content:     m.MainText,
			Reasoning:   m.ReasoningText,
			Timestamp:   m.Timestamp,
			Variant:     m.Variant,
			ErrorDetail: m.ErrorDetail,
			RevealState: string(m.RevealState),
		}
		if len(m.SearchResults) > 0 {
			sm.SearchResults = append([]model.SearchResult(nil), m.SearchResults...)
		}
		snap.Messages = append(snap.Messages, sm)
	}
	return snap
}

// ToConversation rebuilds a model.Conversation. Message IDs are renumbered to
// positions and states a process cannot resume are settled:
// a message that was mid-reveal loads complete, a pending placeholder loads
// errored with the transport notice.
func (c *StoredConversation) ToConversation() *model.Conversation {
	conv := &model.Conversation{
		ID:        c.ID,
		Title:     c.Summary,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  make([]*model.Message, 0, len(c.Messages)),
	}
	for i, sm := range c.Messages {
		m := &model.Message{
			ID:            i,
			Role:          model.Role(sm.Role),
			MainText:      sm.Content,
			ReasoningText: sm.Reasoning,
			Timestamp:     sm.Timestamp,
			Variant:       sm.Variant,
			ErrorDetail:   sm.ErrorDetail,
			RevealState:   model.RevealState(sm.RevealState),
		}
		if len(sm.SearchResults) > 0 {
			m.SearchResults = append([]model.SearchResult(nil), sm.SearchResults...)
		}
		settle(m)
		conv.Messages = append(conv.Messages, m)
	}
	return conv
}

func settle(m *model.Message) {
	if m.RevealState.Terminal() {
		return
	}
	if m.RevealState == model.RevealPending {
		m.Finalize(model.RevealErrored, model.NoticeTransportFailure)
		return
	}
	m.RevealState = model.RevealComplete
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportJSON exports the conversation as a pretty-printed JSON byte array.
func (c *StoredConversation) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// GetPreview returns a preview string from the first user message.
func (c *StoredConversation) GetPreview() string {
	for _, msg := range c.Messages {
		if msg.Role == string(model.RoleUser) && msg.Content != "" {
			return util.TruncateRunes(util.OneLine(msg.Content), 80)
		}
	}
	return ""
}

// MessageCount returns the number of messages in the conversation.
func (c *StoredConversation) MessageCount() int {
	return len(c.Messages)
}

// Title returns the summary or a default heading.
func (c *StoredConversation) Title() string {
	if c.Summary != "" {
		return c.Summary
	}
	return "New Conversation"
}
