// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/seekchat/internal/export"
	"github.com/jeranaias/seekchat/internal/model"
	"github.com/jeranaias/seekchat/internal/util"
)

func newHistoryCmd(opts *globalOptions, deps appDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show, export or clear the active conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, *opts, deps)
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, *opts, deps)
		},
	}

	eo := exportOptions{}
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the conversation as Markdown, HTML or JSON",
		Example: `  seekchat history export
  seekchat history export --format json --output chat.json
  seekchat history export --format html --dir ./exports --theme light`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryExport(cmd, *opts, deps, eo)
		},
	}
	ef := exportCmd.Flags()
	ef.StringVarP(&eo.Format, "format", "f", export.FormatMarkdown, "export format: "+strings.Join(export.Formats(), ", "))
	ef.StringVarP(&eo.Output, "output", "o", "", "write to file instead of stdout")
	ef.StringVar(&eo.Dir, "dir", "", "write into directory under a generated name")
	ef.StringVar(&eo.Theme, "theme", "dark", "HTML theme: dark or light")
	ef.BoolVar(&eo.NoReasoning, "no-reasoning", false, "leave out the chain of thought")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Start a new, empty conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), *opts, false, deps)
			if err != nil {
				return err
			}
			defer app.Close()

			snap := app.Store.Snapshot()
			if err := app.Controller.Reset(); err != nil {
				return NewCommandError("history", "clear", "cannot save", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s removed %d messages\n", SuccessStyle.Render("[OK]"), snap.MessageCount())
			if preview := snap.GetPreview(); preview != "" {
				fmt.Fprintln(out, DimStyle.Render("  "+preview))
			}
			return nil
		},
	}

	cmd.AddCommand(show, exportCmd, clearCmd)
	return cmd
}

func runHistoryShow(cmd *cobra.Command, opts globalOptions, deps appDeps) error {
	app, err := newApp(cmd.Context(), opts, false, deps)
	if err != nil {
		return err
	}
	defer app.Close()

	out := cmd.OutOrStdout()
	snap := app.Store.Snapshot()
	if snap.MessageCount() == 0 {
		fmt.Fprintln(out, DimStyle.Render("No messages yet."))
		return nil
	}

	fmt.Fprintln(out, TitleStyle.Render(snap.Title()))
	fmt.Fprintf(out, "%s %s\n", LabelStyle.Render("Session:"), snap.ID)
	fmt.Fprintf(out, "%s %d\n", LabelStyle.Render("Messages:"), snap.MessageCount())
	fmt.Fprintln(out, RenderSeparator(GetTerminalWidth()-2))

	answer := 0
	for _, m := range app.Store.Messages() {
		header := m.Role.DisplayName() + " " + DimStyle.Render(m.Timestamp.Format("15:04"))
		if m.Role == model.RoleAssistant {
			answer++
			header += " " + DimStyle.Render(fmt.Sprintf("#%d", answer))
		}
		if m.Role == model.RoleAssistant && m.Variant != "" {
			header += " " + DimStyle.Render("["+m.Variant+"]")
		}
		fmt.Fprintln(out, TitleStyle.Render(header))
		if m.Role == model.RoleAssistant {
			printMessage(out, m, true)
			printSources(out, m.SearchResults)
		} else {
			fmt.Fprintln(out, m.MainText)
		}
		fmt.Fprintln(out)
	}
	return nil
}

// exportOptions are the flags of history export.
type exportOptions struct {
	Format      string
	Output      string
	Dir         string
	Theme       string
	NoReasoning bool
}

func runHistoryExport(cmd *cobra.Command, opts globalOptions, deps appDeps, eo exportOptions) error {
	xo := export.DefaultOptions()
	xo.Theme = eo.Theme
	xo.IncludeReasoning = !eo.NoReasoning

	exporter, err := export.ForFormat(eo.Format, xo)
	if err != nil {
		return NewCommandError("history", "export", "unsupported format "+eo.Format, err)
	}
	if eo.Output != "" && eo.Dir != "" {
		return NewCommandError("history", "export", "--output and --dir are exclusive", nil)
	}

	app, err := newApp(cmd.Context(), opts, false, deps)
	if err != nil {
		return err
	}
	defer app.Close()

	snap := app.Store.Snapshot()
	out := cmd.OutOrStdout()

	if eo.Dir != "" {
		path, err := export.ExportToFile(snap, exporter, eo.Dir)
		if err != nil {
			return NewCommandError("history", "export", eo.Dir, err)
		}
		fmt.Fprintf(out, "%s wrote %s\n", SuccessStyle.Render("[OK]"), path)
		return nil
	}

	data, err := exporter.Export(snap)
	if err != nil {
		return NewCommandError("history", "export", eo.Format, err)
	}
	if eo.Output == "" {
		_, err := out.Write(data)
		return err
	}
	if err := util.AtomicWriteFile(eo.Output, data, 0600); err != nil {
		return NewCommandError("history", "export", eo.Output, err)
	}
	fmt.Fprintf(out, "%s wrote %s\n", SuccessStyle.Render("[OK]"), eo.Output)
	return nil
}
