package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cellflow/cellflow/pkg/export"
)

var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Print the cell dependency graph",
	Long: `Builds the whole-notebook dependency graph: an edge from cell A to
cell B means B reads a name whose most recent prior writer is A.
Outputs a readable edge list, JSON, or Graphviz DOT.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, _, err := buildFlow(args[0])
		if err != nil {
			return err
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		dotOutput, _ := cmd.Flags().GetBool("dot")

		if dotOutput {
			return export.DOT(f, os.Stdout)
		}

		edges, err := export.Edges(f)
		if err != nil {
			return err
		}

		if jsonOutput {
			data, err := json.MarshalIndent(edges, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(edges) == 0 {
			fmt.Println("no dependencies between cells")
			return nil
		}
		for _, e := range edges {
			fmt.Printf("cell %d -> cell %d\n", e.From, e.To)
		}
		return nil
	},
}

func init() {
	graphCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	graphCmd.Flags().Bool("dot", false, "Output as Graphviz DOT")
	RootCmd.AddCommand(graphCmd)
}
