// Package main is the entry point for the glyph CLI.
package main

import (
	"os"

	"github.com/glyphlabs/glyph/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
