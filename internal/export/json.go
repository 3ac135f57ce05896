// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"

	"github.com/jeranaias/seekchat/internal/storage"
)

// JSONExporter writes the stored snapshot as indented JSON. The output is the
// persisted schema, so it can be loaded back by the file backend.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter. Options do not filter JSON.
func NewJSONExporter(_ *Options) *JSONExporter {
	return &JSONExporter{}
}

// Export converts a conversation to JSON format.
func (e *JSONExporter) Export(conv *storage.StoredConversation) ([]byte, error) {
	if conv == nil {
		return nil, errors.New("conversation is nil")
	}
	data, err := conv.ExportJSON()
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
