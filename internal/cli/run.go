package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/marginlang/margin/pkg/margin"
)

func newRunCommand() *cobra.Command {
	var notePath string

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Evaluate every directive in a text",
		Long: `Locate and evaluate all directives in a note text.

The text is read from the file argument, or from stdin when the
argument is "-" or missing. Each directive is evaluated independently;
a failing directive is reported but does not stop the others.`,
		Example: `  margin run note.txt
  cat note.txt | margin run`,
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
			if notePath != "" {
				n, err := store.FindByPath(cmd.Context(), notePath)
				if err != nil {
					return err
				}
				if n == nil {
					return fmt.Errorf("no note at %q", notePath)
				}
				rt.SetCurrentNote(n)
			}

			var results []margin.Result
			for _, span := range rt.Find(text) {
				res := rt.Execute(cmd.Context(), span.Source)
				res.Start, res.End = span.Start, span.End
				results = append(results, res)
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(no directives)")
				return nil
			}
			renderResults(cmd.OutOrStdout(), cfg.Output, results)
			return nil
		},
	}

	cmd.Flags().StringVar(&notePath, "note", "", "path of the note the text belongs to")

	return cmd
}

func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}
