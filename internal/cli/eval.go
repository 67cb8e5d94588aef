package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newEvalCommand() *cobra.Command {
	var notePath string

	cmd := &cobra.Command{
		Use:   "eval [directive]",
		Short: "Evaluate a single directive",
		Long: `Evaluate one directive and print its result.

The directive is taken from the argument, or from stdin when no
argument is given. Brackets are added if missing.`,
		Example: `  margin eval '[add(2, 3)]'
  margin eval 'maybe_new("inbox/todo")'
  echo '[today]' | margin eval`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetConfig(cmd.Context())
			logger := GetLogger(cmd.Context())

			source, err := directiveArg(cmd, args)
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

			res := rt.Execute(cmd.Context(), source)
			if res.Err != "" {
				return fmt.Errorf("%s", res.Err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Output)
			return nil
		},
	}

	cmd.Flags().StringVar(&notePath, "note", "", "path of the note the directive runs against")

	return cmd
}

// directiveArg reads the directive from args or stdin and normalizes
// the surrounding brackets.
func directiveArg(cmd *cobra.Command, args []string) (string, error) {
	var source string
	if len(args) == 1 {
		source = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		source = string(data)
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return "", fmt.Errorf("no directive given")
	}
	if !strings.HasPrefix(source, "[") {
		source = "[" + source + "]"
	}
	return source, nil
}
