// Package cli provides the command-line interface for margin.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/marginlang/margin/internal/notes"
	"github.com/marginlang/margin/pkg/margin"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

var (
	cfgFile string
	cfg     *Config
)

type configKey struct{}
type loggerKey struct{}

// Store is what the commands need from a notes backend.
type Store interface {
	notes.Operations
	margin.Cache
	Snapshot(ctx context.Context) ([]*notes.Note, error)
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "margin",
		Short: "margin - directives embedded in note text",
		Long: `margin evaluates [...] directives embedded in note text.

A directive is a bracketed expression such as [add(2, 3)] or
[maybe_new("inbox/todo")] written anywhere inside a note. margin finds
them, evaluates each independently, and reports the results.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			var err error
			cfg, err = LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)

			if cfg.Verbose && ConfigFileUsed() != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", ConfigFileUsed())
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./margin.yaml)")
	rootCmd.PersistentFlags().String("database", "", "path to the notes database (empty for in-memory)")
	rootCmd.PersistentFlags().String("user", "", "user the notes belong to")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (table|csv)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newEvalCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newNotesCommand())
	rootCmd.AddCommand(newReplCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return &Config{User: DefaultUser, Output: DefaultOutput}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// openStore opens the configured notes backend. The caller must Close
// it when a sqlite path is configured.
func openStore(cfg *Config) (Store, func() error, error) {
	if cfg.DatabasePath == "" {
		return notes.NewMemory(), func() error { return nil }, nil
	}
	s, err := notes.NewSQLite(cfg.DatabasePath, cfg.User)
	if err != nil {
		return nil, nil, fmt.Errorf("open notes database: %w", err)
	}
	return s, s.Close, nil
}

// newRuntime builds a Runtime over the store, with the store's current
// notes as the visible snapshot.
func newRuntime(ctx context.Context, store Store, logger *slog.Logger) (*margin.Runtime, error) {
	snapshot, err := store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	return margin.New(
		margin.WithOperations(store),
		margin.WithNotes(snapshot),
		margin.WithCache(store),
		margin.WithLogger(logger),
	), nil
}
