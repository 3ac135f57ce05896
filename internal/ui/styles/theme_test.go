// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/seekchat/internal/model"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewThemeMode(t *testing.T) {
	dark := NewThemeMode("dark")
	if !dark.IsDark {
		t.Error("NewThemeMode(dark) should report a dark background")
	}

	light := NewThemeMode("LIGHT")
	if light.IsDark {
		t.Error("NewThemeMode(LIGHT) should report a light background")
	}
}

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme()

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"UserBubble", theme.UserBubble},
		{"AssistantBubble", theme.AssistantBubble},
		{"ReasoningBody", theme.ReasoningBody},
		{"SourceTitle", theme.SourceTitle},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
	}

	for _, s := range styles {
		if rendered := s.style.Render("test"); !strings.Contains(rendered, "test") {
			t.Errorf("%s style lost its content: %q", s.name, rendered)
		}
	}
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestRoleLabel(t *testing.T) {
	theme := NewTheme()
	tests := []struct {
		role model.Role
		want string
	}{
		{model.RoleUser, "You"},
		{model.RoleAssistant, "DeepSeek"},
		{model.RoleSystem, "System"},
	}
	for _, tt := range tests {
		if got := theme.RoleLabel(tt.role); !strings.Contains(got, tt.want) {
			t.Errorf("RoleLabel(%s) = %q, want it to contain %q", tt.role, got, tt.want)
		}
	}
}

func TestNotice(t *testing.T) {
	theme := NewTheme()

	if got := theme.Notice(model.RevealComplete, "plain"); got != "plain" {
		t.Errorf("complete replies should render unstyled, got %q", got)
	}
	if got := theme.Notice(model.RevealErrored, model.NoticeUpstreamFailure); !strings.Contains(got, StatusIndicators.Error) {
		t.Errorf("errored notice should carry the error indicator, got %q", got)
	}
	if got := theme.Notice(model.RevealAborted, model.NoticeAborted); !strings.Contains(got, model.NoticeAborted) {
		t.Errorf("aborted notice lost its text, got %q", got)
	}
}

func TestToggle(t *testing.T) {
	theme := NewTheme()
	if !strings.Contains(theme.Toggle("深度思考", true), "深度思考") {
		t.Error("Toggle should keep its label")
	}
}

func TestRenderHelpers(t *testing.T) {
	if !strings.Contains(RenderSuccess("saved"), StatusIndicators.Success) {
		t.Error("RenderSuccess should include the success indicator")
	}
	if !strings.Contains(RenderError("failed"), StatusIndicators.Error) {
		t.Error("RenderError should include the error indicator")
	}
	if !strings.Contains(RenderWarning("careful"), StatusIndicators.Warning) {
		t.Error("RenderWarning should include the warning indicator")
	}
	if !strings.Contains(RenderInfo("note"), StatusIndicators.Info) {
		t.Error("RenderInfo should include the info indicator")
	}
	if !strings.Contains(RenderLink("https://example.com"), "https://example.com") {
		t.Error("RenderLink should keep the link text")
	}
}

func TestGetLayoutMode(t *testing.T) {
	theme := NewTheme()
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{80, LayoutMedium},
		{120, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: got %v, want %v", tt.width, got, tt.want)
		}
	}
}
