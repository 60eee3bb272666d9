// Package main is the entry point for the nlq CLI binary.
package main

import (
	"errors"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/roach88/nlq/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	// Commands report ExitErrors through their formatter already; anything
	// else is a flag or argument error raised by cobra.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
