package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Analyze directives without evaluating them",
		Long: `Parse every directive in a text and report whether each is
idempotent (safe to re-run automatically) and whether it calls
time-dependent builtins such as now or today.`,
		Example: `  margin check note.txt
  echo '[new("a/b")]' | margin check`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetConfig(cmd.Context())
			logger := GetLogger(cmd.Context())

			text, err := readText(cmd, args)
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			rt, err := newRuntime(cmd.Context(), store, logger)
			if err != nil {
				return err
			}

			spans := rt.Find(text)
			if len(spans) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(no directives)")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Directive", "Idempotent", "Dynamic", "Notes"})
			for _, span := range spans {
				res := rt.Analyze(span.Source)
				note := res.Reason
				if res.Err != "" {
					note = "parse error: " + res.Err
				}
				t.AppendRow(table.Row{span.Source, yesNo(res.Idempotent && res.Err == ""), yesNo(res.Dynamic), note})
			}
			t.Render()
			return nil
		},
	}
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
