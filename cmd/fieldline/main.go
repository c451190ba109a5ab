package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fieldline/fieldline/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands that reach the formatter print their own diagnostics
		// and return an ExitError carrying the code; anything else is a
		// flag/usage error that still needs printing.
		code := cli.GetExitCode(err)
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
			code = cli.ExitCommandError
		}
		os.Exit(code)
	}
}
