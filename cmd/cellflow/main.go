// Package main implements the cellflow CLI.
// It provides commands for analyzing notebook cells, printing their
// dependency graph, and querying per-cell dependencies.
package main

import (
	"os"

	"github.com/cellflow/cellflow/cmd/cellflow/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Flags().BoolP("version", "v", false, "Print version information")
	commands.RootCmd.SetVersionTemplate(`cellflow version {{.Version}}
`)
	commands.RootCmd.Version = version

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
