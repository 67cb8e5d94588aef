package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/marginlang/margin/pkg/margin"
)

func newReplCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive directive session",
		Long: `Start an interactive session. Each line is evaluated as a
directive; brackets are added if missing. Dot-commands control the
session (.help lists them).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			logger := GetLogger(cmd.Context())

			store, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			rt, err := newRuntime(cmd.Context(), store, logger)
			if err != nil {
				return err
			}
			return runRepl(cmd, store, rt)
		},
	}
	return cmd
}

func runRepl(cmd *cobra.Command, store Store, rt *margin.Runtime) error {
	ctx := cmd.Context()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "margin> ",
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem(".help"),
			readline.PcItem(".notes"),
			readline.PcItem(".open"),
			readline.PcItem(".close"),
			readline.PcItem(".quit"),
			readline.PcItem(".exit"),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	fmt.Fprintln(cmd.OutOrStdout(), "margin directive REPL")
	fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Lines like ".append(...)" or ".path" are directives on the
		// current note, not dot-commands.
		if isReplCommand(line) {
			if quit := handleReplCommand(ctx, cmd, store, rt, line); quit {
				break
			}
			continue
		}

		source := line
		if !strings.HasPrefix(source, "[") {
			source = "[" + source + "]"
		}
		res := rt.Execute(ctx, source)
		if res.Err != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", res.Err)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), res.Output)
		}

		// Directives can create or modify notes; refresh the snapshot.
		if snapshot, err := store.Snapshot(ctx); err == nil {
			rt.SetNotes(snapshot)
		}
	}
	return nil
}

var replCommands = map[string]bool{
	".help": true, ".notes": true, ".open": true, ".close": true,
	".quit": true, ".exit": true,
}

func isReplCommand(line string) bool {
	if !strings.HasPrefix(line, ".") {
		return false
	}
	parts := strings.Fields(line)
	return replCommands[strings.ToLower(parts[0])]
}

func handleReplCommand(ctx context.Context, cmd *cobra.Command, store Store, rt *margin.Runtime, line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printReplHelp(cmd.OutOrStdout())

	case ".notes":
		ns, err := store.Snapshot(ctx)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		for _, n := range ns {
			fmt.Fprintln(cmd.OutOrStdout(), n.Path)
		}
		if len(ns) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(no notes)")
		}

	case ".open":
		if len(parts) < 2 {
			fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .open <path>")
			return false
		}
		n, err := store.FindByPath(ctx, parts[1])
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		if n == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "No note at %q\n", parts[1])
			return false
		}
		rt.SetCurrentNote(n)
		fmt.Fprintf(cmd.OutOrStdout(), "Current note: %s\n", n.Path)

	case ".close":
		rt.SetCurrentNote(nil)

	default:
		fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false
}

func printReplHelp(w io.Writer) {
	help := `
Commands:
  .help         Show this help message
  .notes        List note paths
  .open <path>  Set the current note (what "." refers to)
  .close        Clear the current note
  .quit / .exit Exit the REPL

Tips:
  - Brackets around directives are optional here: add(2, 3) works
  - Use arrow keys to navigate history
`
	fmt.Fprintln(w, help)
}
