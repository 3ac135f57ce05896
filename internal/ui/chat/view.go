// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/seekchat/internal/lifecycle"
	"github.com/jeranaias/seekchat/internal/model"
	"github.com/jeranaias/seekchat/internal/reveal"
	"github.com/jeranaias/seekchat/internal/ui/styles"
	"github.com/jeranaias/seekchat/internal/util"
)

// View renders the whole screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	body := m.viewport.View()
	if m.showHelp {
		body = lipgloss.NewStyle().
			Width(m.viewport.Width).
			Height(m.viewport.Height).
			Padding(1, 2).
			Render(m.help.FullHelpView(m.keys.FullHelp()))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderStatusBar(),
	)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render("seekchat")
	toggles := m.theme.Toggle("深度思考", m.reasoning) + " " + m.theme.Toggle("联网搜索", m.search)

	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		return m.theme.Header.Width(m.width).Render(brand + "  " + toggles)
	}

	label := m.tag
	if v, err := m.ctrl.Registry().Lookup(m.tag); err == nil {
		label = v.DisplayName
	}
	badge := m.theme.VariantBadge.Render(label)

	return m.theme.Header.Width(m.width).Render(brand + "  " + toggles + "  " + badge)
}

// =============================================================================
// MESSAGES
// =============================================================================

func (m *Model) renderMessages() string {
	msgs := m.ctrl.Store().Messages()
	if len(msgs) == 0 {
		return m.renderEmptyState()
	}

	parts := make([]string, 0, len(msgs))
	for i, msg := range msgs {
		if r := m.renderMessage(i, msg); r != "" {
			parts = append(parts, r)
		}
	}
	return strings.Join(parts, "\n")
}

func (m *Model) renderMessage(index int, msg *model.Message) string {
	switch msg.Role {
	case model.RoleUser:
		return m.renderUserMessage(msg)
	case model.RoleAssistant:
		return m.renderAssistantMessage(index, msg)
	default:
		return m.theme.SystemBubble.Width(m.contentWidth()).Render(msg.MainText)
	}
}

func (m *Model) renderUserMessage(msg *model.Message) string {
	label := m.theme.RoleLabel(msg.Role) + " " + m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))
	body := m.theme.UserBubble.MaxWidth(m.contentWidth()).Render(msg.MainText)
	return lipgloss.NewStyle().MarginTop(1).Render(label + "\n" + body)
}

func (m *Model) renderAssistantMessage(index int, msg *model.Message) string {
	var b strings.Builder
	b.WriteString(m.theme.RoleLabel(msg.Role))
	if msg.Variant != "" {
		b.WriteString(" " + m.theme.VariantBadge.Render(msg.Variant))
	}
	b.WriteString("\n")

	width := m.contentWidth()
	switch {
	case m.frame != nil && m.frame.MessageID == index:
		b.WriteString(m.renderRevealing(*m.frame, width))

	case msg.RevealState == model.RevealPending:
		b.WriteString(m.spinner.View() + " " + m.theme.ThinkingText.Render(m.pendingText()))

	case msg.RevealState == model.RevealAborted, msg.RevealState == model.RevealErrored:
		b.WriteString(m.theme.Notice(msg.RevealState, msg.MainText))
		if msg.ErrorDetail != "" {
			b.WriteString("\n" + m.theme.ErrorDetail.Render(util.TruncateWidth(util.OneLine(msg.ErrorDetail), width)))
		}

	default:
		if msg.HasReasoning() {
			b.WriteString(m.renderReasoning(msg.ReasoningText, width) + "\n")
		}
		b.WriteString(m.renderAnswer(msg.MainText, width))
		if len(msg.SearchResults) > 0 {
			b.WriteString("\n" + m.renderSources(msg.SearchResults, width))
		}
	}

	return lipgloss.NewStyle().MarginTop(1).Render(b.String())
}

// renderRevealing draws the visible prefixes of a message mid-reveal.
// Reasoning is shown expanded while it is being revealed.
func (m *Model) renderRevealing(frame reveal.Snapshot, width int) string {
	var b strings.Builder
	cursor := m.theme.Cursor.Render("_")

	if frame.VisibleReasoning != "" {
		body := frame.VisibleReasoning
		if frame.Phase == reveal.PhaseReasoning {
			body += cursor
		}
		b.WriteString(m.theme.ReasoningHeader.Render("思考过程") + "\n")
		b.WriteString(m.theme.ReasoningBody.Width(width).Render(body))
		if frame.Phase == reveal.PhaseAnswer {
			b.WriteString("\n")
		}
	}
	if frame.Phase == reveal.PhaseAnswer {
		b.WriteString(m.theme.AssistantBubble.Width(width).Render(frame.VisibleAnswer + cursor))
	}
	return b.String()
}

// renderReasoning draws the reasoning panel, or a one-line summary when
// reasoning is folded.
func (m *Model) renderReasoning(text string, width int) string {
	if !m.showReasoning {
		summary := fmt.Sprintf("> 思考过程 (%d 字, Tab 展开)", util.RuneLen(text))
		return m.theme.ReasoningHeader.Render(summary)
	}
	return m.theme.ReasoningHeader.Render("v 思考过程") + "\n" +
		m.theme.ReasoningBody.Width(width).Render(text)
}

func (m *Model) renderAnswer(text string, width int) string {
	if m.useMarkdown {
		return m.markdown.Render(text)
	}
	return m.theme.AssistantBubble.Width(width).Render(text)
}

// renderSources draws the numbered search evidence list.
func (m *Model) renderSources(results []model.SearchResult, width int) string {
	var b strings.Builder
	b.WriteString(m.theme.SourcesHeader.Render(fmt.Sprintf("参考来源 (%d)", len(results))))
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = r.URL
		}
		prefix := fmt.Sprintf("\n %d. ", i+1)
		b.WriteString(prefix + m.theme.SourceTitle.Render(util.TruncateWidth(util.OneLine(title), width-util.StringWidth(prefix))))

		var site string
		if r.SourceName != "" {
			site = r.SourceName + " · "
		}
		if site == "" && r.URL == "" {
			continue
		}
		link := util.TruncateWidth(r.URL, width-4-util.StringWidth(site))
		b.WriteString("\n    " + m.theme.SourceMeta.Render(site) + styles.RenderLink(link))
	}
	return b.String()
}

func (m *Model) pendingText() string {
	if m.reasoning {
		return "深度思考中..."
	}
	return "正在请求..."
}

func (m *Model) renderEmptyState() string {
	lines := []string{
		"",
		m.theme.HeaderBrand.Render("我是 DeepSeek，很高兴见到你！"),
		"",
		m.theme.ShortcutDesc.Render("Ctrl+T 深度思考 · Ctrl+S 联网搜索 · F1 帮助"),
	}
	return lipgloss.NewStyle().Width(m.width).Align(lipgloss.Center).Render(strings.Join(lines, "\n"))
}

// =============================================================================
// INPUT AND STATUS
// =============================================================================

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.status != "":
		left = m.renderStatus()
	case m.ctrl.State() == lifecycle.Sending:
		left = m.spinner.View() + " " + m.theme.ThinkingText.Render("等待回答 (Esc 停止)")
	case m.frame != nil:
		left = m.theme.ThinkingText.Render("输出中 (Esc 跳过)")
	}

	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		return m.theme.StatusBar.Width(m.width).Render(left)
	}
	right := m.help.ShortHelpView(m.keys.ShortHelp())
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return m.theme.StatusBar.Width(m.width).Render(left)
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderStatus() string {
	switch m.statusLevel {
	case statusError:
		return styles.RenderError(m.status)
	case statusWarning:
		return styles.RenderWarning(m.status)
	case statusSuccess:
		return styles.RenderSuccess(m.status)
	default:
		return styles.RenderInfo(m.status)
	}
}
