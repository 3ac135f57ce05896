// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the seekchat TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. The theme can also be forced through the ui.theme config key.

# Color System (colors.go)

  - Blue - Brand color, assistant label, active toggles
  - Violet - Reasoning panel
  - Cyan - Search sources
  - Amber - Aborted replies and system notes
  - Rose - Failed replies

# Theme (theme.go)

	theme := styles.NewThemeMode(cfg.UI.Theme)
	label := theme.RoleLabel(msg.Role)
	body := theme.Notice(msg.RevealState, msg.MainText)

# Accessibility

Status output pairs every color with an ASCII indicator ([OK], [X], [!], [i])
so it stays readable for colorblind users and on monochrome terminals.
*/
package styles
