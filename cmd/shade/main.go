// Package main is the entry point for the Shade CLI.
package main

import (
	"os"

	"github.com/mrz1836/shade/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
