// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for seekchat.
//
// A Store owns the single active conversation. Every mutation writes a full
// snapshot through a pluggable Backend.
//
// # Key Types
//
//   - Store: the active conversation plus its backend
//   - Backend: Persist/Load of whole snapshots
//   - FileBackend, SQLiteBackend, MemoryBackend: the backends
//   - StoredConversation: serializable snapshot with JSON export
//
// # Usage
//
//	backend, err := storage.NewFileBackend(filepath.Join(dir, "conversation.json"))
//	store, err := storage.Open(ctx, backend)
//	idx, err := store.Append(model.NewUserMessage("你好"))
//
// # Rehydration
//
// Messages that were mid-reveal when the process exited load as complete. A
// pending placeholder whose request never finished loads as errored.
package storage
