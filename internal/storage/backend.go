// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/seekchat/internal/util"
)

// Backend persists whole conversation snapshots.
type Backend interface {
	// Persist replaces the stored snapshot with snap.
	Persist(ctx context.Context, snap *StoredConversation) error

	// Load returns the stored snapshot, or (nil, nil) when nothing is stored.
	Load(ctx context.Context) (*StoredConversation, error)
}

// =============================================================================
// FILE BACKEND
// =============================================================================

// FileBackend keeps the snapshot in a single JSON file.
type FileBackend struct {
	Path string
}

// NewFileBackend creates a backend writing to path, creating its directory.
func NewFileBackend(path string) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileBackend{Path: path}, nil
}

// Persist writes snap atomically.
func (b *FileBackend) Persist(ctx context.Context, snap *StoredConversation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(b.Path, data, 0644)
}

// Load reads the snapshot file. A missing file is not an error.
func (b *FileBackend) Load(ctx context.Context) (*StoredConversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var snap StoredConversation
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &StoreError{Message: "corrupt snapshot", Err: err}
	}
	return &snap, nil
}

// =============================================================================
// MEMORY BACKEND
// =============================================================================

// MemoryBackend holds the snapshot in memory. Used by tests and --ephemeral.
type MemoryBackend struct {
	mu       sync.Mutex
	data     []byte
	persists int
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Persist stores a serialized copy of snap.
func (b *MemoryBackend) Persist(_ context.Context, snap *StoredConversation) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = data
	b.persists++
	return nil
}

// Load returns a fresh copy of the last persisted snapshot.
func (b *MemoryBackend) Load(_ context.Context) (*StoredConversation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil, nil
	}
	var snap StoredConversation
	if err := json.Unmarshal(b.data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// PersistCount returns how many snapshots have been written.
func (b *MemoryBackend) PersistCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.persists
}
