// Package commands provides the CLI commands for the cellflow tool.
package commands

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cellflow",
	Short: "cellflow - Static dependency analysis for notebook cells",
	Long: `cellflow derives, for each cell of a notebook or percent script, the
names it reads from and writes into the shared environment, and builds
the dependency graph between cells under last-writer-wins resolution.

Commands:
  analyze     Show per-cell read/write sets
  graph       Print the cell dependency graph
  deps        Show which cells a cell depends on
  dependents  Show which cells depend on a cell
  init        Create a config file interactively

Use "cellflow [command] --help" for more information about a command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}
