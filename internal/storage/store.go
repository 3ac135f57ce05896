// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jeranaias/seekchat/internal/model"
)

// persistTimeout bounds a single snapshot write.
const persistTimeout = 5 * time.Second

// =============================================================================
// STORE
// =============================================================================

// Store owns the active conversation and writes a full snapshot through its
// Backend after every mutation. Readers always receive copies.
type Store struct {
	mu      sync.RWMutex
	conv    *model.Conversation
	backend Backend
}

// Open rehydrates the conversation held by backend, or starts a new one.
func Open(ctx context.Context, backend Backend) (*Store, error) {
	if backend == nil {
		backend = NewMemoryBackend()
	}

	snap, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	s := &Store{backend: backend}
	if snap == nil || snap.ID == "" {
		s.conv = model.NewConversation()
		return s, nil
	}

	s.conv = snap.ToConversation()
	log.Printf("STORE_OPEN | conversation=%s messages=%d", s.conv.ID, s.conv.Len())
	return s, nil
}

// Append adds msg at the end and returns its index.
func (s *Store) Append(msg *model.Message) (int, error) {
	if msg == nil || !msg.Role.Valid() {
		return -1, ErrInvalidMessage
	}

	s.mu.Lock()
	idx := s.conv.Append(msg.Clone())
	snap := FromConversation(s.conv)
	s.mu.Unlock()

	return idx, s.persist(snap)
}

// Replace overwrites the message at index, keeping its ID.
func (s *Store) Replace(index int, msg *model.Message) error {
	if msg == nil || !msg.Role.Valid() {
		return ErrInvalidMessage
	}

	s.mu.Lock()
	if !s.conv.Replace(index, msg.Clone()) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	snap := FromConversation(s.conv)
	s.mu.Unlock()

	return s.persist(snap)
}

// Update applies fn to a copy of the message at index and stores the result.
func (s *Store) Update(index int, fn func(*model.Message)) error {
	msg, err := s.Get(index)
	if err != nil {
		return err
	}
	fn(msg)
	return s.Replace(index, msg)
}

// Clear starts a new conversation with a fresh ID.
func (s *Store) Clear() error {
	s.mu.Lock()
	old := s.conv.ID
	s.conv = model.NewConversation()
	snap := FromConversation(s.conv)
	s.mu.Unlock()

	log.Printf("STORE_CLEAR | previous=%s conversation=%s", old, snap.ID)
	return s.persist(snap)
}

// Save writes the current snapshot.
func (s *Store) Save() error {
	s.mu.RLock()
	snap := FromConversation(s.conv)
	s.mu.RUnlock()
	return s.persist(snap)
}

// Messages returns copies of all messages in order.
func (s *Store) Messages() []*model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Message, len(s.conv.Messages))
	for i, m := range s.conv.Messages {
		out[i] = m.Clone()
	}
	return out
}

// Get returns a copy of the message at index.
func (s *Store) Get(index int) (*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.conv.At(index)
	if m == nil {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return m.Clone(), nil
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conv.Len()
}

// Conversation returns a deep copy of the active conversation.
func (s *Store) Conversation() *model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conv.Clone()
}

// Snapshot returns the persisted form of the active conversation.
func (s *Store) Snapshot() *StoredConversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FromConversation(s.conv)
}

func (s *Store) persist(snap *StoredConversation) error {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.backend.Persist(ctx, snap); err != nil {
		log.Printf("STORE_PERSIST_FAILED | conversation=%s error=%v", snap.ID, err)
		return fmt.Errorf("failed to persist conversation: %w", err)
	}
	return nil
}
