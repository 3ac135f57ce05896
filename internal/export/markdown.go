// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/seekchat/internal/model"
	"github.com/jeranaias/seekchat/internal/storage"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown with YAML frontmatter.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a conversation to Markdown format.
func (e *MarkdownExporter) Export(conv *storage.StoredConversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(conv.Title())))
		sb.WriteString(fmt.Sprintf("session: %s\n", conv.ID))
		sb.WriteString(fmt.Sprintf("date: %s\n", conv.CreatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("updated: %s\n", conv.UpdatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(conv.Messages)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", time.Now().Format(time.RFC3339)))
		sb.WriteString("generator: seekchat\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(conv.Title())))

	for i, msg := range conv.Messages {
		label := e.formatRoleLabel(msg)
		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(msg.Timestamp)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		if e.options.IncludeReasoning && msg.Reasoning != "" {
			sb.WriteString(formatReasoning(msg.Reasoning))
			sb.WriteString("\n\n")
		}

		sb.WriteString(formatBody(&msg))
		sb.WriteString("\n\n")

		if len(msg.SearchResults) > 0 {
			sb.WriteString(formatSources(msg.SearchResults))
			sb.WriteString("\n")
		}

		if i < len(conv.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from seekchat on %s*\n", formatTimestamp(time.Now())))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatRoleLabel is the heading for a message: role name, plus the variant
// tag for assistant replies.
func (e *MarkdownExporter) formatRoleLabel(msg storage.StoredMessage) string {
	if msg.Role == "" {
		return "Unknown"
	}
	label := "**" + model.Role(msg.Role).DisplayName() + "**"
	if msg.Variant != "" {
		label += " `" + msg.Variant + "`"
	}
	return label
}

// formatReasoning renders chain-of-thought as a quoted block.
func formatReasoning(reasoning string) string {
	lines := strings.Split(strings.TrimRight(reasoning, "\n"), "\n")
	var sb strings.Builder
	sb.WriteString("> **思考过程**\n>\n")
	for i, line := range lines {
		sb.WriteString("> " + line)
		if i < len(lines)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// formatBody is the answer text, or the italic notice of a failed reply.
func formatBody(msg *storage.StoredMessage) string {
	switch model.RevealState(msg.RevealState) {
	case model.RevealAborted:
		return "*" + msg.Content + "*"
	case model.RevealErrored:
		body := "*[X] " + msg.Content + "*"
		if msg.ErrorDetail != "" {
			body += "\n\n`" + strings.ReplaceAll(msg.ErrorDetail, "`", "'") + "`"
		}
		return body
	}
	return strings.TrimSpace(msg.Content)
}

// formatSources renders the numbered source list.
func formatSources(results []model.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**参考来源 (%d)**\n\n", len(results)))
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("%d. [%s](%s)", i+1, escapeMarkdown(sourceLabel(r.Title, r.URL)), r.URL))
		if r.SourceName != "" {
			sb.WriteString(" - " + r.SourceName)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML escapes special YAML characters in values.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
