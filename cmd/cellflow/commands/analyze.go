package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cellflow/cellflow/pkg/flow"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Show per-cell read/write sets",
	Long: `Analyzes each cell of a notebook (.ipynb) or percent script and prints
the names it reads from and writes into the shared environment.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, _, err := buildFlow(args[0])
		if err != nil {
			return err
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		symbols, _ := cmd.Flags().GetBool("symbols")

		if jsonOutput {
			return printAnalysisJSON(f)
		}

		printAnalysis(f)
		if symbols {
			printSymbolTable(f)
		}
		return nil
	},
}

type cellReport struct {
	Index  int      `json:"index"`
	Source string   `json:"source"`
	Reads  []string `json:"reads"`
	Writes []string `json:"writes"`
}

func printAnalysisJSON(f *flow.Flow) error {
	reports := make([]cellReport, 0, f.Len())
	for i, c := range f.Cells() {
		reports = append(reports, cellReport{
			Index:  i,
			Source: c.Source(),
			Reads:  c.Reads(),
			Writes: c.Writes(),
		})
	}

	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printAnalysis(f *flow.Flow) {
	for i, c := range f.Cells() {
		fmt.Printf("Cell %d: %s\n", i, firstLine(c.Source()))
		fmt.Printf("  reads:  %s\n", joinOrDash(c.Reads()))
		fmt.Printf("  writes: %s\n", joinOrDash(c.Writes()))
	}
}

// printSymbolTable lists every symbol with its reader and writer cells.
func printSymbolTable(f *flow.Flow) {
	names := map[string]bool{}
	for _, c := range f.Cells() {
		for _, name := range c.Reads() {
			names[name] = true
		}
		for _, name := range c.Writes() {
			names[name] = true
		}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	fmt.Printf("\nSymbols (%d):\n", len(sorted))
	for _, name := range sorted {
		var readers, writers []string
		for _, c := range f.Readers(name) {
			if pos, err := f.Position(c); err == nil {
				readers = append(readers, fmt.Sprintf("%d", pos))
			}
		}
		for _, c := range f.Writers(name) {
			if pos, err := f.Position(c); err == nil {
				writers = append(writers, fmt.Sprintf("%d", pos))
			}
		}
		fmt.Printf("  %s: read by [%s], written by [%s]\n",
			name, strings.Join(readers, " "), strings.Join(writers, " "))
	}
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

func init() {
	analyzeCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	analyzeCmd.Flags().BoolP("symbols", "s", false, "Also print the symbol usage table")
	RootCmd.AddCommand(analyzeCmd)
}
