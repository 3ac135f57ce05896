// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/seekchat/internal/model"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header       lipgloss.Style
	HeaderBrand  lipgloss.Style
	ToggleOn     lipgloss.Style
	ToggleOff    lipgloss.Style
	VariantBadge lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserLabel       lipgloss.Style
	AssistantLabel  lipgloss.Style
	SystemLabel     lipgloss.Style
	Timestamp       lipgloss.Style
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	SystemBubble    lipgloss.Style

	// Reasoning panel and sources list
	ReasoningHeader lipgloss.Style
	ReasoningBody   lipgloss.Style
	SourcesHeader   lipgloss.Style
	SourceTitle     lipgloss.Style
	SourceMeta      lipgloss.Style

	// Reply outcomes
	NoticeAborted lipgloss.Style
	NoticeError   lipgloss.Style
	ErrorDetail   lipgloss.Style
	Cursor        lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	StatusBar      lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style
	Spinner        lipgloss.Style
	ThinkingText   lipgloss.Style
}

// NewTheme creates a theme from the detected terminal background.
func NewTheme() *Theme {
	return NewThemeMode("auto")
}

// NewThemeMode creates a theme forcing "dark" or "light", or detecting the
// background for "auto" (and anything else).
func NewThemeMode(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case "dark":
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Blue)

	t.ToggleOn = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Blue).
		Bold(true).
		Padding(0, 1)

	t.ToggleOff = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(Overlay).
		Padding(0, 1)

	t.VariantBadge = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Messages
	t.UserLabel = lipgloss.NewStyle().Foreground(UserBubbleBorder).Bold(true)
	t.AssistantLabel = lipgloss.NewStyle().Foreground(Blue).Bold(true)
	t.SystemLabel = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(AssistantBubbleBorder).
		PaddingLeft(1)

	t.SystemBubble = lipgloss.NewStyle().
		Foreground(SystemBubbleFg).
		Italic(true).
		Align(lipgloss.Center)

	t.ReasoningHeader = lipgloss.NewStyle().
		Foreground(Violet).
		Bold(true)

	t.ReasoningBody = lipgloss.NewStyle().
		Foreground(ReasoningFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(ReasoningBorder).
		PaddingLeft(1).
		Italic(true)

	t.SourcesHeader = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.SourceTitle = lipgloss.NewStyle().
		Foreground(LinkColor).
		Underline(true)

	t.SourceMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.NoticeAborted = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true)

	t.NoticeError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.ErrorDetail = lipgloss.NewStyle().
		Foreground(TextMuted).
		PaddingLeft(2)

	t.Cursor = lipgloss.NewStyle().
		Foreground(Blue).
		Blink(true)

	// Input and status
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Blue).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Blue).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Violet)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// RoleLabel returns the styled speaker label for role.
func (t *Theme) RoleLabel(role model.Role) string {
	switch role {
	case model.RoleUser:
		return t.UserLabel.Render(role.DisplayName())
	case model.RoleAssistant:
		return t.AssistantLabel.Render(role.DisplayName())
	default:
		return t.SystemLabel.Render(role.DisplayName())
	}
}

// Notice styles a terminal reply body by its reveal state.
func (t *Theme) Notice(state model.RevealState, text string) string {
	switch state {
	case model.RevealAborted:
		return t.NoticeAborted.Render(text)
	case model.RevealErrored:
		return t.NoticeError.Render(StatusIndicators.Error + " " + text)
	default:
		return text
	}
}

// Toggle renders a labelled on/off switch.
func (t *Theme) Toggle(label string, on bool) string {
	if on {
		return t.ToggleOn.Render(label)
	}
	return t.ToggleOff.Render(label)
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
