package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newNotesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "List the stored notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())

			store, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			ns, err := store.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if len(ns) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(no notes)")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Path", "Updated", "Content"})
			for _, n := range ns {
				t.AppendRow(table.Row{n.Path, n.UpdatedAt.Format(time.DateTime), preview(n.Content)})
			}
			t.Render()
			fmt.Fprintf(cmd.OutOrStdout(), "(%d notes)\n", len(ns))
			return nil
		},
	}
	return cmd
}

// preview truncates content to a single short line.
func preview(content string) string {
	s := content
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + "…"
	}
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}
