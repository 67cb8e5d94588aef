// Command margin is the margin directive-language CLI.
package main

import (
	"os"

	"github.com/marginlang/margin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
