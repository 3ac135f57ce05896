// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/seekchat/internal/lifecycle"
	"github.com/jeranaias/seekchat/internal/reveal"
	"github.com/jeranaias/seekchat/internal/ui/styles"
	"github.com/jeranaias/seekchat/internal/variant"
)

// Fixed layout heights.
const (
	headerHeight    = 1
	inputAreaHeight = 2
	statusBarHeight = 1
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctrl *lifecycle.Controller

	// Styling
	theme    *styles.Theme
	markdown *markdownRenderer

	// Dimensions
	width  int
	height int

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     KeyMap

	// Variant selection. tag follows the two toggles but may start on a
	// variant the toggles cannot express.
	tag         string
	reasoning   bool
	search      bool
	saveVariant func(tag string) error

	copyText func(string) error

	// Display
	showReasoning bool
	useMarkdown   bool
	showHelp      bool
	frame         *reveal.Snapshot // active reveal frame, nil when idle

	// Transient status line
	status      string
	statusLevel statusLevel
	statusSeq   int

	quitting bool
}

// Option configures a Model.
type Option func(*Model)

// WithTheme sets the theme.
func WithTheme(theme *styles.Theme) Option {
	return func(m *Model) { m.theme = theme }
}

// WithVariant selects the initial variant.
func WithVariant(tag string) Option {
	return func(m *Model) {
		m.tag = tag
		m.reasoning, m.search = variant.Toggles(tag)
	}
}

// WithVariantSaver is called with the new tag whenever the user switches
// variant, so the choice can outlive the session.
func WithVariantSaver(save func(tag string) error) Option {
	return func(m *Model) { m.saveVariant = save }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) { m.copyText = write }
}

// WithMarkdown turns Markdown rendering of finished answers on or off.
func WithMarkdown(enabled bool) Option {
	return func(m *Model) { m.useMarkdown = enabled }
}

// WithReasoningVisible sets whether reasoning panels start expanded.
func WithReasoningVisible(visible bool) Option {
	return func(m *Model) { m.showReasoning = visible }
}

// New creates a chat model driving ctrl.
func New(ctrl *lifecycle.Controller, opts ...Option) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "给 DeepSeek 发送消息"
	ti.CharLimit = 8192
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New(spinner.WithSpinner(spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    spinner.Line.FPS,
	}))

	m := Model{
		ctrl:          ctrl,
		viewport:      vp,
		input:         ti,
		spinner:       sp,
		help:          help.New(),
		keys:          DefaultKeyMap(),
		tag:           variant.TagPlain,
		copyText:      clipboard.WriteAll,
		showReasoning: true,
		useMarkdown:   true,
		width:         80,
		height:        24,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.theme == nil {
		m.theme = styles.NewTheme()
	}
	m.spinner.Style = m.theme.Spinner
	m.input.PromptStyle = m.theme.InputPrompt
	m.markdown = newMarkdownRenderer(m.theme.IsDark)

	m.layout()
	m.refresh()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Variant returns the tag the next question will use.
func (m Model) Variant() string {
	return m.tag
}

// Controller returns the lifecycle controller the model drives.
func (m Model) Controller() *lifecycle.Controller {
	return m.ctrl
}

// Quitting reports whether the model asked the program to exit.
func (m Model) Quitting() bool {
	return m.quitting
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.help.Width = width
	m.layout()
	m.markdown.SetWidth(m.contentWidth())
}

func (m *Model) layout() {
	viewportHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	viewportWidth := m.width
	if viewportWidth < 1 {
		viewportWidth = 1
	}
	m.viewport.Width = viewportWidth
	m.viewport.Height = viewportHeight

	// "> " prompt plus container padding
	inputWidth := m.width - 6
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth
}

// contentWidth is the usable width inside message margins.
func (m Model) contentWidth() int {
	w := m.width - 6
	if w < 20 {
		w = 20
	}
	return w
}

// refresh re-renders the conversation into the viewport, following the
// bottom when the user had not scrolled away.
func (m *Model) refresh() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) setStatus(text string, level statusLevel) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusLevel = level
	return clearStatusAfter(m.statusSeq)
}
