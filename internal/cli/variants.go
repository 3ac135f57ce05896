// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jeranaias/seekchat/internal/variant"
)

// variantInfo is the --json form of a registry row. Keys are never printed.
type variantInfo struct {
	Tag       string `json:"tag"`
	Name      string `json:"name"`
	Strategy  string `json:"strategy"`
	Reasoning bool   `json:"reasoning"`
	Search    bool   `json:"search"`
	Transport string `json:"transport"`
	BaseURL   string `json:"base_url"`
	Model     string `json:"model,omitempty"`
	Default   bool   `json:"default"`
}

func newVariantsCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "variants",
		Aliases: []string{"models"},
		Short:   "List the model variants",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(*opts)
			if err != nil {
				return err
			}
			reg := cfg.Registry()
			if asJSON {
				return writeVariantJSON(cmd.OutOrStdout(), reg, cfg.DefaultVariant)
			}
			writeVariantTable(cmd.OutOrStdout(), reg, cfg.DefaultVariant)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func variantInfos(reg *variant.Registry, current string) []variantInfo {
	all := reg.All()
	out := make([]variantInfo, 0, len(all))
	for _, v := range all {
		out = append(out, variantInfo{
			Tag:       v.Tag,
			Name:      v.DisplayName,
			Strategy:  v.Strategy.String(),
			Reasoning: v.Reasoning,
			Search:    v.Search,
			Transport: string(v.Recipe.Transport),
			BaseURL:   v.Recipe.BaseURL,
			Model:     v.Recipe.Model,
			Default:   v.Tag == current,
		})
	}
	return out
}

func writeVariantJSON(w io.Writer, reg *variant.Registry, current string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(variantInfos(reg, current))
}

// writeVariantTable renders the registry; current is marked with "*".
func writeVariantTable(w io.Writer, reg *variant.Registry, current string) {
	yesNo := func(b bool) string {
		if b {
			return "yes"
		}
		return "-"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SeparatorStyle).
		Headers("", "TAG", "NAME", "STRATEGY", "REASONING", "SEARCH", "TRANSPORT", "BASE URL")

	for _, info := range variantInfos(reg, current) {
		mark := ""
		if info.Default {
			mark = "*"
		}
		t.Row(mark, info.Tag, info.Name, info.Strategy,
			yesNo(info.Reasoning), yesNo(info.Search), info.Transport, info.BaseURL)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		s := lipgloss.NewStyle().Padding(0, 1)
		if row == table.HeaderRow {
			return s.Inherit(TitleStyle)
		}
		return s
	})

	fmt.Fprintln(w, t.Render())
}
