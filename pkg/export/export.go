// Package export renders a flow's dependency graph for external
// consumers, either as a plain edge list or as Graphviz DOT.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/cellflow/cellflow/pkg/flow"
)

// Edge is one dependency: the cell at To reads a name last written by
// the cell at From. Positions refer to flow order.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Edges flattens the flow's dependency graph into an edge list.
func Edges(f *flow.Flow) ([]Edge, error) {
	var edges []Edge
	for to, deps := range f.Graph() {
		for _, dep := range deps {
			from, err := f.Position(dep)
			if err != nil {
				return nil, err
			}
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges, nil
}

// DOT writes the dependency graph in Graphviz DOT format. Each cell
// becomes a vertex labeled with its position and the first line of its
// source.
func DOT(f *flow.Flow, w io.Writer) error {
	g := graph.New(graph.IntHash, graph.Directed())

	for i, c := range f.Cells() {
		err := g.AddVertex(i, graph.VertexAttribute("label", vertexLabel(i, c.Source())))
		if err != nil {
			return fmt.Errorf("adding vertex %d: %w", i, err)
		}
	}

	edges, err := Edges(f)
	if err != nil {
		return err
	}
	for _, e := range edges {
		if err := g.AddEdge(e.From, e.To); err != nil {
			return fmt.Errorf("adding edge %d -> %d: %w", e.From, e.To, err)
		}
	}

	return draw.DOT(g, w)
}

// vertexLabel compresses a cell to "i: first line" for display.
func vertexLabel(i int, source string) string {
	line := source
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	const maxLen = 40
	if len(line) > maxLen {
		line = line[:maxLen-3] + "..."
	}
	return fmt.Sprintf("%d: %s", i, line)
}
