// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/seekchat/internal/config"
	"github.com/jeranaias/seekchat/internal/lifecycle"
	"github.com/jeranaias/seekchat/internal/model"
	"github.com/jeranaias/seekchat/internal/util"
	"github.com/jeranaias/seekchat/internal/variant"
)

// HistoryFileName holds REPL input history inside the config directory.
const HistoryFileName = "chat_history"

// =============================================================================
// LINE EDITOR
// =============================================================================

// lineEditor provides input history and line editing for the REPL.
type lineEditor struct {
	line        *liner.State
	historyFile string
}

func newLineEditor() *lineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	e := &lineEditor{line: line, historyFile: filepath.Join(dir, HistoryFileName)}

	if f, err := os.Open(e.historyFile); err == nil {
		e.line.ReadHistory(f)
		f.Close()
	}
	return e
}

// ReadInput reads one line. Non-empty lines go into history.
func (e *lineEditor) ReadInput(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

// Close writes history with owner-only permissions and restores the terminal.
func (e *lineEditor) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			e.line.WriteHistory(f)
			f.Close()
		}
	}
	e.line.Close()
}

// =============================================================================
// CHAT SESSION
// =============================================================================

// chatSession is the REPL state: the wired app plus the selected variant.
type chatSession struct {
	app      *App
	runner   *turnRunner
	out      io.Writer
	tag      string
	copyText func(string) error
}

func newChatCmd(opts *globalOptions, deps appDeps) *cobra.Command {
	var tag string
	var hideReasoning bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Line-mode chat with history and slash commands",
		Long: `Start a line-mode chat on the active conversation.

Ctrl+C stops a request in flight or skips the rest of a reveal. At the
prompt, Ctrl+C or Ctrl+D exits. Type /help for commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := RequiresTTY("chat"); err != nil {
				return err
			}
			return runChat(cmd, *opts, deps, tag, !hideReasoning)
		},
	}
	cmd.Flags().StringVar(&tag, "variant", "", "variant tag (default: last used, then config)")
	cmd.Flags().BoolVar(&hideReasoning, "hide-reasoning", false, "do not print the chain of thought")
	return cmd
}

func runChat(cmd *cobra.Command, opts globalOptions, deps appDeps, tag string, showReasoning bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	app, err := newApp(ctx, opts, true, deps)
	if err != nil {
		return err
	}
	defer app.Close()

	if tag == "" {
		tag = app.Config.StartVariant()
	}
	if _, err := app.Controller.Registry().Lookup(tag); err != nil {
		return NewCommandError("chat", "validate", "--variant "+tag, err)
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	s := &chatSession{
		app:      app,
		out:      out,
		tag:      tag,
		copyText: clipboard.WriteAll,
		runner: &turnRunner{
			ctrl:          app.Controller,
			out:           out,
			interrupts:    interrupts,
			showReasoning: showReasoning,
		},
	}

	editor := newLineEditor()
	defer editor.Close()

	s.printWelcome()
	s.printConversation()

	for {
		input, err := editor.ReadInput(PromptStyle.Render(s.prompt()))
		if err != nil {
			// Ctrl+C at the prompt (liner.ErrPromptAborted) or EOF
			fmt.Fprintln(out)
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			cont, err := s.handleSlashCommand(ctx, input)
			if err != nil {
				fmt.Fprintf(out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			if !cont {
				return nil
			}
			continue
		}

		if err := s.turn(ctx, func() (tea.Cmd, error) {
			return app.Controller.Send(input, s.tag)
		}); err != nil {
			fmt.Fprintf(out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
	}
}

func (s *chatSession) prompt() string {
	return s.tag + "> "
}

// turn runs one request and separates it from the next prompt.
func (s *chatSession) turn(ctx context.Context, start func() (tea.Cmd, error)) error {
	fmt.Fprintln(s.out)
	_, err := s.runner.Run(ctx, start)
	fmt.Fprintln(s.out)
	return err
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func (s *chatSession) handleSlashCommand(ctx context.Context, input string) (bool, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true, nil
	}
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		s.printHelp()

	case "/quit", "/q", "/exit":
		return false, nil

	case "/regen", "/r":
		index, err := s.answerIndex(args)
		if err != nil {
			return true, err
		}
		err = s.turn(ctx, func() (tea.Cmd, error) {
			return s.app.Controller.Regenerate(index, s.tag)
		})
		if err != nil {
			if errors.Is(err, lifecycle.ErrNotRegenerable) {
				return true, fmt.Errorf("nothing to regenerate")
			}
			return true, err
		}

	case "/copy", "/y":
		return true, s.copyAnswer(args)

	case "/new", "/clear":
		if err := s.app.Controller.Reset(); err != nil {
			return true, err
		}
		fmt.Fprintln(s.out, DimStyle.Render("[New conversation]"))

	case "/variant", "/v":
		if len(args) == 0 {
			fmt.Fprintf(s.out, "%s %s\n", LabelStyle.Render("Variant:"), s.tag)
			return true, nil
		}
		v, err := s.app.Controller.Registry().Lookup(args[0])
		if err != nil {
			return true, err
		}
		s.selectVariant(v.Tag)
		fmt.Fprintf(s.out, "%s %s (%s)\n", SuccessStyle.Render("[Variant]"), v.Tag, v.DisplayName)

	case "/think", "/search":
		reasoning, search := variant.Toggles(s.tag)
		if command == "/think" {
			reasoning = !reasoning
		} else {
			search = !search
		}
		s.selectVariant(variant.Select(reasoning, search))
		fmt.Fprintf(s.out, "%s %s\n", SuccessStyle.Render("[Variant]"), s.tag)

	case "/variants":
		writeVariantTable(s.out, s.app.Controller.Registry(), s.tag)

	case "/history":
		s.printConversation()

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
	return true, nil
}

// selectVariant switches the variant and remembers it for the next session.
// A failed save only warns.
func (s *chatSession) selectVariant(tag string) {
	s.tag = tag
	if err := s.app.RememberVariant(tag); err != nil {
		log.Printf("VARIANT_SAVE_FAILED | variant=%s error=%v", tag, err)
		fmt.Fprintln(s.out, WarningStyle.Render("Warning: could not save variant: "+err.Error()))
	}
}

// answerIndex resolves an optional answer number, as shown by /history, to a
// message index. No argument means the latest answer.
func (s *chatSession) answerIndex(args []string) (int, error) {
	conv := s.app.Store.Conversation()
	if len(args) == 0 {
		return conv.LastAssistantIndex(), nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
	if err != nil {
		return -1, fmt.Errorf("invalid answer number: %s", args[0])
	}
	index := conv.AnswerIndex(n)
	if index < 0 {
		return -1, fmt.Errorf("no answer #%d", n)
	}
	return index, nil
}

// copyAnswer puts an answer's text on the system clipboard.
func (s *chatSession) copyAnswer(args []string) error {
	index, err := s.answerIndex(args)
	if err != nil {
		return err
	}
	msg, err := s.app.Store.Get(index)
	if err != nil || !msg.Answered() {
		return fmt.Errorf("nothing to copy")
	}
	if err := s.copyText(msg.MainText); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	fmt.Fprintf(s.out, "%s copied %d characters\n", SuccessStyle.Render("[OK]"), util.RuneLen(msg.MainText))
	return nil
}

// =============================================================================
// OUTPUT
// =============================================================================

func (s *chatSession) printWelcome() {
	fmt.Fprintln(s.out, TitleStyle.Render("seekchat")+" "+DimStyle.Render(Version))
	fmt.Fprintln(s.out, DimStyle.Render("Type /help for commands, Ctrl+D to exit."))
	fmt.Fprintln(s.out)
}

func (s *chatSession) printHelp() {
	rows := [][2]string{
		{"/regen [N]", "Regenerate the last answer, or answer #N"},
		{"/copy [N]", "Copy the last answer, or answer #N"},
		{"/new", "Start a new conversation"},
		{"/variant [tag]", "Show or switch the variant"},
		{"/think", "Toggle deep thinking"},
		{"/search", "Toggle web search"},
		{"/variants", "List variants"},
		{"/history", "Print the conversation"},
		{"/quit", "Exit"},
	}
	fmt.Fprintln(s.out, TitleStyle.Render("Commands"))
	for _, r := range rows {
		fmt.Fprintf(s.out, "  %-16s %s\n", r[0], DimStyle.Render(r[1]))
	}
	fmt.Fprintln(s.out)
}

// printConversation prints the stored conversation so a resumed session shows
// where it left off.
func (s *chatSession) printConversation() {
	msgs := s.app.Store.Messages()
	if len(msgs) == 0 {
		return
	}
	fmt.Fprintln(s.out, RenderSeparator(GetTerminalWidth()-2))
	answer := 0
	for _, m := range msgs {
		switch m.Role {
		case model.RoleUser:
			fmt.Fprintln(s.out, PromptStyle.Render(m.Role.DisplayName()+": ")+m.MainText)
		case model.RoleAssistant:
			answer++
			fmt.Fprintln(s.out, TitleStyle.Render(fmt.Sprintf("%s #%d:", m.Role.DisplayName(), answer)))
			printMessage(s.out, m, s.runner.showReasoning)
			printSources(s.out, m.SearchResults)
		default:
			fmt.Fprintln(s.out, DimStyle.Render(m.MainText))
		}
		fmt.Fprintln(s.out)
	}
	fmt.Fprintln(s.out, RenderSeparator(GetTerminalWidth()-2))
}
