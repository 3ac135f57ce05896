// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// NewRootCmd builds the command tree. deps is empty outside tests.
func NewRootCmd(deps appDeps) *cobra.Command {
	opts := &globalOptions{}
	var closeLog func()

	root := &cobra.Command{
		Use:   "seekchat",
		Short: "Terminal chat for DeepSeek models with reasoning and web search",
		Long: `seekchat talks to DeepSeek-family models from the terminal.

Reasoning variants show their chain of thought before the answer, and search
variants list the web sources the answer was built from. Answers are revealed
progressively; press Esc (TUI) or Ctrl+C (chat) to skip to the end.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			closeLog = setupLogging(opts.Verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if closeLog != nil {
				closeLog()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, *opts, deps)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default ~/.seekchat/config.toml)")
	flags.StringVar(&opts.Backend, "backend", "", "storage backend: file, sqlite or memory")
	flags.BoolVar(&opts.Ephemeral, "ephemeral", false, "keep the conversation in memory only")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newTUICmd(opts, deps),
		newAskCmd(opts, deps),
		newChatCmd(opts, deps),
		newVariantsCmd(opts),
		newHistoryCmd(opts, deps),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree and exits with a code matching the error.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(appDeps{})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, ErrorStyle.Render("Error: ")+err.Error())
		return ExitCode(err)
	}
	return ExitSuccess
}
