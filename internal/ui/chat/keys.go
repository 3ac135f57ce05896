// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat interface.
type KeyMap struct {
	Submit          key.Binding
	Abort           key.Binding
	Regenerate      key.Binding
	Copy            key.Binding
	ToggleReasoning key.Binding
	ToggleSearch    key.Binding
	CollapseThought key.Binding
	NewChat         key.Binding
	PageUp          key.Binding
	PageDown        key.Binding
	Help            key.Binding
	Quit            key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Abort: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "stop"),
		),
		Regenerate: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "regenerate"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "copy answer"),
		),
		ToggleReasoning: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "deep think"),
		),
		ToggleSearch: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "web search"),
		),
		CollapseThought: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "fold reasoning"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Abort, k.ToggleReasoning, k.ToggleSearch, k.Help}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Abort, k.Regenerate, k.Copy},
		{k.ToggleReasoning, k.ToggleSearch, k.CollapseThought},
		{k.PageUp, k.PageDown, k.NewChat},
		{k.Help, k.Quit},
	}
}
