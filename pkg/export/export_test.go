package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellflow/cellflow/pkg/flow"
)

func TestEdges(t *testing.T) {
	f, err := flow.FromSources([]string{"x = 1", "y = x + 1", "z = x + y"})
	require.NoError(t, err)

	edges, err := Edges(f)
	require.NoError(t, err)

	assert.ElementsMatch(t, []Edge{
		{From: 0, To: 1},
		{From: 0, To: 2},
		{From: 1, To: 2},
	}, edges)
}

func TestEdgesEmptyFlow(t *testing.T) {
	edges, err := Edges(flow.New())
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestDOT(t *testing.T) {
	f, err := flow.FromSources([]string{"x = 1", "y = x + 1"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, DOT(f, &buf))

	out := buf.String()
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "0: x = 1")
	assert.Contains(t, out, "1: y = x + 1")
}

func TestVertexLabel(t *testing.T) {
	assert.Equal(t, "0: x = 1", vertexLabel(0, "x = 1\ny = 2"))

	long := "value = some_extremely_long_function_name(argument_one, argument_two)"
	label := vertexLabel(3, long)
	assert.Contains(t, label, "3: ")
	assert.Contains(t, label, "...")
	assert.LessOrEqual(t, len(label), len("3: ")+40)
}
