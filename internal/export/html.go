// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/jeranaias/seekchat/internal/model"
	"github.com/jeranaias/seekchat/internal/storage"
)

var (
	codeBlockRegex  = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\n([\\s\\S]*?)```")
	inlineCodeRegex = regexp.MustCompile("`([^`\n]+)`")
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a standalone HTML page with embedded
// CSS. Reasoning renders as a collapsible <details> block.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a conversation to HTML format.
func (e *HTMLExporter) Export(conv *storage.StoredConversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}
	title := html.EscapeString(conv.Title())

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"zh-CN\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", title))
	sb.WriteString("    <meta name=\"generator\" content=\"seekchat\">\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", conv.CreatedAt.Format(time.RFC3339)))
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString("        <header class=\"header\">\n")
		sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", title))
		sb.WriteString("            <div class=\"metadata\">\n")
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(conv.CreatedAt)))
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(conv.Messages)))
		sb.WriteString("                <button class=\"theme-toggle\" onclick=\"toggleTheme()\" title=\"Toggle theme\">[Theme]</button>\n")
		sb.WriteString("            </div>\n")
		sb.WriteString("        </header>\n")
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for i := range conv.Messages {
		sb.WriteString(e.renderMessage(&conv.Messages[i]))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>seekchat</strong> on %s</p>\n", formatTimestamp(time.Now())))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString(pageScript)
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderMessage(msg *storage.StoredMessage) string {
	var sb strings.Builder

	classes := "message " + html.EscapeString(strings.ToLower(msg.Role)) + "-message"
	switch model.RevealState(msg.RevealState) {
	case model.RevealErrored:
		classes += " errored"
	case model.RevealAborted:
		classes += " aborted"
	}
	sb.WriteString(fmt.Sprintf("            <div class=\"%s\">\n", classes))

	sb.WriteString("                <div class=\"message-header\">\n")
	label := model.Role(msg.Role).DisplayName()
	if msg.Role == "" {
		label = "Unknown"
	}
	sb.WriteString(fmt.Sprintf("                    <span class=\"role-label\">%s</span>\n", html.EscapeString(label)))
	if msg.Variant != "" {
		sb.WriteString(fmt.Sprintf("                    <span class=\"variant\">%s</span>\n", html.EscapeString(msg.Variant)))
	}
	if e.options.IncludeTimestamps {
		sb.WriteString(fmt.Sprintf("                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.Timestamp)))
	}
	sb.WriteString("                </div>\n")

	if e.options.IncludeReasoning && msg.Reasoning != "" {
		sb.WriteString("                <details class=\"reasoning\">\n")
		sb.WriteString(fmt.Sprintf("                    <summary>思考过程 (%d 字)</summary>\n", len([]rune(msg.Reasoning))))
		sb.WriteString(fmt.Sprintf("                    <div class=\"reasoning-body\">%s</div>\n", formatContent(msg.Reasoning)))
		sb.WriteString("                </details>\n")
	}

	sb.WriteString("                <div class=\"message-content\">\n")
	switch model.RevealState(msg.RevealState) {
	case model.RevealErrored:
		sb.WriteString(fmt.Sprintf("<p class=\"notice\">[X] %s</p>\n", html.EscapeString(msg.Content)))
		if msg.ErrorDetail != "" {
			sb.WriteString(fmt.Sprintf("<pre class=\"error-detail\">%s</pre>\n", html.EscapeString(msg.ErrorDetail)))
		}
	case model.RevealAborted:
		sb.WriteString(fmt.Sprintf("<p class=\"notice\">%s</p>\n", html.EscapeString(msg.Content)))
	default:
		sb.WriteString(formatContent(msg.Content))
		sb.WriteString("\n")
	}
	sb.WriteString("                </div>\n")

	if len(msg.SearchResults) > 0 {
		sb.WriteString(renderSources(msg.SearchResults))
	}

	sb.WriteString("            </div>\n")
	return sb.String()
}

func renderSources(results []model.SearchResult) string {
	var sb strings.Builder
	sb.WriteString("                <div class=\"sources\">\n")
	sb.WriteString(fmt.Sprintf("                    <div class=\"sources-header\">参考来源 (%d)</div>\n", len(results)))
	sb.WriteString("                    <ol>\n")
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("                        <li><a href=\"%s\" rel=\"noopener noreferrer\">%s</a>",
			html.EscapeString(safeURL(r.URL)), html.EscapeString(sourceLabel(r.Title, r.URL))))
		if r.SourceName != "" {
			sb.WriteString(fmt.Sprintf(" <span class=\"source-name\">%s</span>", html.EscapeString(r.SourceName)))
		}
		sb.WriteString("</li>\n")
	}
	sb.WriteString("                    </ol>\n")
	sb.WriteString("                </div>\n")
	return sb.String()
}

// safeURL keeps only http(s) links; anything else becomes "#".
func safeURL(u string) string {
	lower := strings.ToLower(strings.TrimSpace(u))
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return u
	}
	return "#"
}

// =============================================================================
// CONTENT FORMATTING
// =============================================================================

// formatContent escapes text and renders fenced code blocks, inline code and
// paragraphs.
func formatContent(content string) string {
	content = html.EscapeString(strings.TrimSpace(content))

	var blocks []string
	content = codeBlockRegex.ReplaceAllStringFunc(content, func(match string) string {
		parts := codeBlockRegex.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}
		lang, code := parts[1], parts[2]
		langLabel := ""
		if lang != "" {
			langLabel = fmt.Sprintf("<div class=\"code-lang\">%s</div>", lang)
		}
		blocks = append(blocks, fmt.Sprintf("<div class=\"code-block\">%s<pre><code class=\"language-%s\">%s</code></pre></div>",
			langLabel, lang, strings.TrimRight(code, "\n")))
		return fmt.Sprintf("\x00%d\x00", len(blocks)-1)
	})

	var out []string
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if strings.HasPrefix(para, "\x00") && strings.HasSuffix(para, "\x00") {
			out = append(out, para)
			continue
		}
		para = inlineCodeRegex.ReplaceAllString(para, "<code class=\"inline-code\">$1</code>")
		out = append(out, "<p>"+strings.ReplaceAll(para, "\n", "<br>\n")+"</p>")
	}
	result := strings.Join(out, "\n")

	for i, block := range blocks {
		result = strings.Replace(result, fmt.Sprintf("\x00%d\x00", i), block, 1)
	}
	return result
}

// =============================================================================
// EMBEDDED CSS AND SCRIPT
// =============================================================================

const pageCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", "PingFang SC", "Microsoft YaHei", sans-serif;
            --font-mono: "SF Mono", "Fira Code", "Source Code Pro", monospace;
        }

        .dark-theme {
            --bg-primary: #0f172a;
            --bg-secondary: #1e293b;
            --bg-tertiary: #334155;
            --text-primary: #e2e8f0;
            --text-secondary: #94a3b8;
            --text-muted: #64748b;
            --border-color: #334155;
            --accent-blue: #4d6bfe;
            --accent-violet: #a78bfa;
            --accent-red: #f43f5e;
            --accent-amber: #f59e0b;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f8fafc;
            --bg-tertiary: #e2e8f0;
            --text-primary: #1e293b;
            --text-secondary: #475569;
            --text-muted: #64748b;
            --border-color: #e2e8f0;
            --accent-blue: #4d6bfe;
            --accent-violet: #7c3aed;
            --accent-red: #e11d48;
            --accent-amber: #d97706;
        }

        body {
            font-family: var(--font-sans);
            font-size: 16px;
            line-height: 1.7;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container { max-width: 900px; margin: 0 auto; background: var(--bg-secondary); border-radius: 12px; overflow: hidden; }
        .header { padding: 32px; background: var(--bg-tertiary); }
        .header h1 { font-size: 26px; margin-bottom: 12px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; color: var(--text-secondary); align-items: center; }
        .theme-toggle { margin-left: auto; background: var(--bg-secondary); color: var(--text-primary); border: 1px solid var(--border-color); border-radius: 6px; padding: 4px 10px; cursor: pointer; }

        .conversation { padding: 24px 32px; }
        .message { margin-bottom: 24px; padding: 18px 20px; border-radius: 8px; border-left: 4px solid transparent; background: var(--bg-primary); }
        .user-message { border-left-color: var(--accent-blue); }
        .assistant-message { border-left-color: var(--accent-violet); }
        .system-message { border-left-color: var(--text-muted); }
        .errored { border-left-color: var(--accent-red); }
        .aborted { border-left-color: var(--accent-amber); }

        .message-header { display: flex; gap: 12px; align-items: baseline; margin-bottom: 10px; font-size: 14px; }
        .role-label { font-weight: 600; }
        .variant { font-family: var(--font-mono); font-size: 12px; color: var(--accent-blue); }
        .timestamp { margin-left: auto; color: var(--text-muted); font-family: var(--font-mono); font-size: 13px; }
        .message-content p { margin-bottom: 12px; }
        .message-content p:last-child { margin-bottom: 0; }
        .notice { font-style: italic; color: var(--text-secondary); }
        .error-detail { margin-top: 8px; font-family: var(--font-mono); font-size: 13px; color: var(--accent-red); white-space: pre-wrap; }

        .reasoning { margin-bottom: 12px; padding: 8px 12px; border-left: 2px solid var(--accent-violet); color: var(--text-secondary); font-size: 14px; }
        .reasoning summary { cursor: pointer; color: var(--accent-violet); }
        .reasoning-body { margin-top: 8px; }

        .sources { margin-top: 14px; padding-top: 10px; border-top: 1px solid var(--border-color); font-size: 14px; }
        .sources-header { font-weight: 600; margin-bottom: 6px; color: var(--text-secondary); }
        .sources ol { padding-left: 22px; }
        .sources a { color: var(--accent-blue); text-decoration: none; }
        .source-name { color: var(--text-muted); margin-left: 6px; }

        .code-block { margin: 12px 0; border-radius: 8px; overflow: hidden; border: 1px solid var(--border-color); }
        .code-lang { padding: 6px 14px; background: var(--bg-tertiary); font-size: 12px; color: var(--text-secondary); text-transform: uppercase; }
        .code-block pre { padding: 14px; overflow-x: auto; }
        .code-block code, .inline-code { font-family: var(--font-mono); font-size: 14px; }
        .inline-code { padding: 1px 5px; background: var(--bg-tertiary); border-radius: 4px; }

        .footer { padding: 18px 32px; text-align: center; font-size: 14px; color: var(--text-muted); border-top: 1px solid var(--border-color); }

        @media print {
            body { padding: 0; }
            .theme-toggle { display: none; }
            .message { page-break-inside: avoid; }
            .reasoning[open] summary { display: none; }
        }
    </style>
`

const pageScript = `    <script>
        function toggleTheme() {
            const body = document.body;
            const next = body.classList.contains('dark-theme') ? 'light' : 'dark';
            body.classList.remove('dark-theme', 'light-theme');
            body.classList.add(next + '-theme');
            localStorage.setItem('theme', next);
        }

        document.addEventListener('DOMContentLoaded', function() {
            const saved = localStorage.getItem('theme');
            if (saved) {
                document.body.classList.remove('dark-theme', 'light-theme');
                document.body.classList.add(saved + '-theme');
            }
        });
    </script>
`
