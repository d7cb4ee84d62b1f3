package notebook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotebook(t *testing.T) {
	data := []byte(`{
		"nbformat": 4,
		"nbformat_minor": 5,
		"cells": [
			{"cell_type": "markdown", "source": "# Title"},
			{"cell_type": "code", "source": "x = 1"},
			{"cell_type": "code", "source": ["y = x + 1\n", "z = y * 2"]},
			{"cell_type": "raw", "source": "ignored"}
		]
	}`)

	cells, err := ParseNotebook(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"x = 1", "y = x + 1\nz = y * 2"}, cells)
}

func TestParseNotebookInvalidJSON(t *testing.T) {
	_, err := ParseNotebook([]byte("not json"))
	assert.Error(t, err)
}

func TestParseNotebookOldFormat(t *testing.T) {
	_, err := ParseNotebook([]byte(`{"nbformat": 3, "cells": []}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nbformat 3")
}

func TestParseNotebookMissingFormat(t *testing.T) {
	cells, err := ParseNotebook([]byte(`{"cells": [{"cell_type": "code", "source": "a = 1"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a = 1"}, cells)
}

func TestSplitPercent(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "no separators is one cell",
			src:  "x = 1\ny = 2",
			want: []string{"x = 1\ny = 2"},
		},
		{
			name: "percent separators",
			src:  "x = 1\n# %%\ny = x + 1\n# %%\nz = y",
			want: []string{"x = 1", "y = x + 1", "z = y"},
		},
		{
			name: "compact separator",
			src:  "x = 1\n#%%\ny = 2",
			want: []string{"x = 1", "y = 2"},
		},
		{
			name: "separator with cell title",
			src:  "# %% setup\nimport numpy as np\n# %% compute\nresult = np.zeros(3)",
			want: []string{"import numpy as np", "result = np.zeros(3)"},
		},
		{
			name: "empty cells dropped",
			src:  "# %%\n\n# %%\nx = 1\n# %%\n",
			want: []string{"x = 1"},
		},
		{
			name: "empty input",
			src:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitPercent(tt.src))
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	nbPath := filepath.Join(dir, "demo.ipynb")
	nbData := `{"nbformat": 4, "cells": [{"cell_type": "code", "source": "x = 1"}]}`
	require.NoError(t, os.WriteFile(nbPath, []byte(nbData), 0o644))

	cells, err := Load(nbPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"x = 1"}, cells)

	pyPath := filepath.Join(dir, "script.py")
	require.NoError(t, os.WriteFile(pyPath, []byte("a = 1\n# %%\nb = a"), 0o644))

	cells, err = Load(pyPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"a = 1", "b = a"}, cells)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.py"))
	assert.Error(t, err)
}
