package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cellflow/cellflow/pkg/cell"
	"github.com/cellflow/cellflow/pkg/flow"
)

var depsCmd = &cobra.Command{
	Use:   "deps <file> <cell>",
	Short: "Show which cells a cell depends on",
	Long: `Lists the cells whose writes the given cell's reads resolve to:
for each name the cell reads, the nearest preceding writer.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPointQuery(args[0], args[1], func(f *flow.Flow, c *cell.Cell) ([]*cell.Cell, error) {
			return f.Dependencies(c)
		}, "depends on")
	},
}

var dependentsCmd = &cobra.Command{
	Use:   "dependents <file> <cell>",
	Short: "Show which cells depend on a cell",
	Long: `Lists the cells that next read each name the given cell writes:
for each written name, the nearest following reader.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPointQuery(args[0], args[1], func(f *flow.Flow, c *cell.Cell) ([]*cell.Cell, error) {
			return f.Dependents(c)
		}, "is depended on by")
	},
}

func runPointQuery(path, indexArg string, query func(*flow.Flow, *cell.Cell) ([]*cell.Cell, error), verb string) error {
	index, err := strconv.Atoi(indexArg)
	if err != nil {
		return fmt.Errorf("invalid cell index %q", indexArg)
	}

	f, _, err := buildFlow(path)
	if err != nil {
		return err
	}

	c, err := f.At(index)
	if err != nil {
		return err
	}

	related, err := query(f, c)
	if err != nil {
		return err
	}

	if len(related) == 0 {
		fmt.Printf("cell %d %s no other cell\n", index, verb)
		return nil
	}

	fmt.Printf("cell %d %s:\n", index, verb)
	for _, other := range related {
		pos, err := f.Position(other)
		if err != nil {
			return err
		}
		fmt.Printf("  cell %d: %s\n", pos, firstLine(other.Source()))
	}
	return nil
}

func init() {
	RootCmd.AddCommand(depsCmd)
	RootCmd.AddCommand(dependentsCmd)
}
