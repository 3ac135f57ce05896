// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/seekchat/internal/config"
	"github.com/jeranaias/seekchat/internal/ui/chat"
	"github.com/jeranaias/seekchat/internal/ui/styles"
	"github.com/jeranaias/seekchat/internal/util"
)

func newTUICmd(opts *globalOptions, deps appDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the full-screen chat (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, *opts, deps)
		},
	}
}

// runTUI runs the Bubble Tea program. The config file is watched so reveal
// pacing and display settings apply without a restart.
func runTUI(cmd *cobra.Command, opts globalOptions, deps appDeps) error {
	if err := RequiresTTY("run the TUI"); err != nil {
		return err
	}

	app, err := newApp(cmd.Context(), opts, true, deps)
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config
	model := chat.New(app.Controller,
		chat.WithTheme(styles.NewThemeMode(cfg.UI.Theme)),
		chat.WithVariant(cfg.StartVariant()),
		chat.WithVariantSaver(app.RememberVariant),
		chat.WithMarkdown(cfg.UI.Markdown),
		chat.WithReasoningVisible(cfg.UI.ShowReasoning),
	)

	p := tea.NewProgram(model, tea.WithAltScreen())

	if app.ConfigPath != "" && util.FileExists(app.ConfigPath) {
		w, err := config.Watch(app.ConfigPath, config.DefaultDebounce, func(c *config.Config, err error) {
			p.Send(chat.ConfigReloadedMsg{Config: c, Err: err})
		})
		if err != nil {
			log.Printf("CONFIG_WATCH_FAILED | path=%s error=%v", app.ConfigPath, err)
		} else {
			defer w.Close()
		}
	}

	_, err = p.Run()
	return err
}
