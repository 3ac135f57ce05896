// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is an ordered list of messages. Message IDs equal their index.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []*Message `json:"messages"`
}

// NewConversation creates an empty conversation with a generated ID.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        "conv_" + uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds msg at the end, assigning its ordinal ID. Returns the index.
func (c *Conversation) Append(msg *Message) int {
	msg.ID = len(c.Messages)
	c.Messages = append(c.Messages, msg)
	c.touch()
	c.updateTitle()
	return msg.ID
}

// Replace swaps the message at index in place, keeping its ID.
func (c *Conversation) Replace(index int, msg *Message) bool {
	if index < 0 || index >= len(c.Messages) {
		return false
	}
	msg.ID = index
	c.Messages[index] = msg
	c.touch()
	return true
}

// At returns the message at index or nil.
func (c *Conversation) At(index int) *Message {
	if index < 0 || index >= len(c.Messages) {
		return nil
	}
	return c.Messages[index]
}

// LastAssistantIndex returns the index of the most recent assistant message, or -1.
func (c *Conversation) LastAssistantIndex() int {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return i
		}
	}
	return -1
}

// AnswerIndex returns the index of the n-th assistant message, counting
// from 1, or -1.
func (c *Conversation) AnswerIndex(n int) int {
	if n < 1 {
		return -1
	}
	for i, m := range c.Messages {
		if m.Role != RoleAssistant {
			continue
		}
		n--
		if n == 0 {
			return i
		}
	}
	return -1
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// Clone returns a deep copy.
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.Messages = make([]*Message, len(c.Messages))
	for i, m := range c.Messages {
		out.Messages[i] = m.Clone()
	}
	return &out
}

func (c *Conversation) touch() {
	c.UpdatedAt = time.Now()
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// updateTitle auto-generates a title from the first user message if not set.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			c.Title = strings.ReplaceAll(msg.Preview(50), "\n", " ")
			return
		}
	}
}

// GetTitle returns the conversation title or a default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Conversation"
}
