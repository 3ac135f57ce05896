// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/seekchat/internal/storage"
	"github.com/jeranaias/seekchat/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for conversation exporters.
type Exporter interface {
	// Export converts a conversation to the target format and returns the content.
	Export(conv *storage.StoredConversation) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Supported format names.
const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
	FormatJSON     = "json"
)

var (
	// ErrUnsupportedFormat is returned by ForFormat for unknown names.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrEmptyConversation is returned when there is nothing to export.
	ErrEmptyConversation = errors.New("conversation has no messages")
)

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// IncludeMetadata includes the header block (title, dates, counts).
	IncludeMetadata bool

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool

	// IncludeReasoning includes the chain of thought of reasoning variants.
	IncludeReasoning bool

	// Theme for HTML export ("light" or "dark").
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		IncludeReasoning:  true,
		Theme:             "dark",
	}
}

// ForFormat returns the exporter for a format name. "markdown" is accepted
// for "md".
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatMarkdown, "markdown":
		return NewMarkdownExporter(opts), nil
	case FormatHTML, "htm":
		return NewHTMLExporter(opts), nil
	case FormatJSON:
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{FormatMarkdown, FormatHTML, FormatJSON}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports conv into dir under a name built from its title and the
// current time. Returns the output file path.
func ExportToFile(conv *storage.StoredConversation, exporter Exporter, dir string) (string, error) {
	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if dir == "" {
		dir = "."
	}
	filename := fmt.Sprintf("conversation_%s_%s%s",
		sanitizeFilename(conv.Title()),
		time.Now().Format("20060102_150405"),
		exporter.FileExtension(),
	)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	outputPath := filepath.Join(dir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// validate rejects conversations the document exporters cannot render.
func validate(conv *storage.StoredConversation) error {
	if conv == nil {
		return errors.New("conversation is nil")
	}
	if len(conv.Messages) == 0 {
		return ErrEmptyConversation
	}
	if conv.CreatedAt.IsZero() {
		return errors.New("conversation has invalid creation timestamp")
	}
	return nil
}

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		runes = runes[:50]
	}

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
		'？':  '-',
		'：':  '-',
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}

// sourceLabel is "title", falling back to the URL.
func sourceLabel(title, url string) string {
	if strings.TrimSpace(title) != "" {
		return util.OneLine(title)
	}
	return url
}
