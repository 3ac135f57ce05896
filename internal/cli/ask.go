// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/seekchat/internal/model"
	"github.com/jeranaias/seekchat/internal/variant"
)

// askOptions are the flags of the ask command.
type askOptions struct {
	Variant       string
	Think         bool
	Search        bool
	JSON          bool
	HideReasoning bool
}

// askOutput is the --json form of an answer.
type askOutput struct {
	Variant   string               `json:"variant"`
	State     model.RevealState    `json:"state"`
	Answer    string               `json:"answer"`
	Reasoning string               `json:"reasoning,omitempty"`
	Sources   []model.SearchResult `json:"sources,omitempty"`
	Error     string               `json:"error,omitempty"`
}

func newAskCmd(opts *globalOptions, deps appDeps) *cobra.Command {
	ao := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question and print the answer",
		Long: `Ask a single question and print the answer.

The question and answer are appended to the active conversation. With no
argument the question is read from standard input.`,
		Example: `  seekchat ask "天空为什么是蓝色的？"
  seekchat ask --think "证明根号 2 是无理数"
  seekchat ask --variant plain+search --json "今天的新闻"
  echo "你好" | seekchat ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" && !IsTTY() {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return NewCommandError("ask", "read", "stdin", err)
				}
				question = strings.TrimSpace(string(data))
			}
			if question == "" {
				return NewCommandError("ask", "validate", "question is required", nil)
			}
			return runAsk(cmd, *opts, deps, *ao, question)
		},
	}

	f := cmd.Flags()
	f.StringVar(&ao.Variant, "variant", "", "variant tag (default from config)")
	f.BoolVar(&ao.Think, "think", false, "use a reasoning variant")
	f.BoolVar(&ao.Search, "search", false, "use a web-search variant")
	f.BoolVar(&ao.JSON, "json", false, "print the answer as JSON")
	f.BoolVar(&ao.HideReasoning, "hide-reasoning", false, "do not print the chain of thought")
	return cmd
}

func runAsk(cmd *cobra.Command, opts globalOptions, deps appDeps, ao askOptions, question string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	app, err := newApp(ctx, opts, IsStdoutTTY() && !ao.JSON, deps)
	if err != nil {
		return err
	}
	defer app.Close()

	tag := resolveTag(app.Config.DefaultVariant, ao.Variant, ao.Think, ao.Search)
	if _, err := app.Controller.Registry().Lookup(tag); err != nil {
		return NewCommandError("ask", "validate", "--variant "+tag, err)
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	runner := &turnRunner{
		ctrl:          app.Controller,
		out:           out,
		interrupts:    interrupts,
		showReasoning: !ao.HideReasoning,
	}
	if ao.JSON {
		runner.out = io.Discard
	}

	msg, err := runner.Run(ctx, func() (tea.Cmd, error) {
		return app.Controller.Send(question, tag)
	})
	if err != nil {
		return NewCommandError("ask", "send", tag, err)
	}

	if ao.JSON {
		payload := askOutput{
			Variant:   msg.Variant,
			State:     msg.RevealState,
			Answer:    msg.MainText,
			Reasoning: msg.ReasoningText,
			Sources:   msg.SearchResults,
			Error:     msg.ErrorDetail,
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(payload); err != nil {
			return err
		}
	}

	switch msg.RevealState {
	case model.RevealErrored, model.RevealAborted:
		return fmt.Errorf("%w: %s", ErrReplyFailed, msg.RevealState)
	}
	return nil
}

// resolveTag picks the variant: an explicit tag wins, then the toggle flags,
// then the configured default.
func resolveTag(def, explicit string, think, search bool) string {
	if explicit != "" {
		return explicit
	}
	if think || search {
		return variant.Select(think, search)
	}
	return def
}
