// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS conversation_snapshot (
    slot       INTEGER PRIMARY KEY CHECK (slot = 1),
    conv_id    TEXT NOT NULL,
    data       TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// SQLiteBackend keeps the snapshot in a single-row SQLite table.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// NewSQLiteBackend opens (or creates) the database at path.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteBackend{db: db, path: path}, nil
}

// Path returns the database file path.
func (b *SQLiteBackend) Path() string {
	return b.path
}

// Persist upserts the snapshot row.
func (b *SQLiteBackend) Persist(ctx context.Context, snap *StoredConversation) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx, `
		INSERT INTO conversation_snapshot (slot, conv_id, data, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			conv_id = excluded.conv_id,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		snap.ID, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot row, returning (nil, nil) when the table is empty.
func (b *SQLiteBackend) Load(ctx context.Context) (*StoredConversation, error) {
	var data string
	err := b.db.QueryRowContext(ctx, "SELECT data FROM conversation_snapshot WHERE slot = 1").Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap StoredConversation
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, &StoreError{Message: "corrupt snapshot", Err: err}
	}
	return &snap, nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
