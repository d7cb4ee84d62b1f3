// Package notebook loads ordered cell sources from notebook files.
// Supported inputs: Jupyter notebooks (.ipynb, nbformat 4), percent
// scripts (.py with `# %%` separators), and plain Python files, which
// load as a single cell.
package notebook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads the file at path and returns its code cells in order.
// The format is chosen by extension: .ipynb parses as JSON, anything
// else as a (possibly percent-separated) Python script.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".ipynb") {
		cells, err := ParseNotebook(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return cells, nil
	}

	return SplitPercent(string(data)), nil
}

// multiline accepts the two encodings nbformat allows for cell source:
// a single string or a list of line strings.
type multiline string

func (m *multiline) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var lines []string
		if err := json.Unmarshal(data, &lines); err != nil {
			return err
		}
		*m = multiline(strings.Join(lines, ""))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = multiline(s)
	return nil
}

type rawCell struct {
	CellType string    `json:"cell_type"`
	Source   multiline `json:"source"`
}

type rawNotebook struct {
	Cells    []rawCell `json:"cells"`
	NBFormat int       `json:"nbformat"`
}

// ParseNotebook extracts the code cells from an nbformat 4 document.
// Markdown and raw cells are skipped; cell order is preserved.
func ParseNotebook(data []byte) ([]string, error) {
	var nb rawNotebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("invalid notebook JSON: %w", err)
	}
	if nb.NBFormat != 0 && nb.NBFormat < 4 {
		return nil, fmt.Errorf("unsupported nbformat %d", nb.NBFormat)
	}

	var cells []string
	for _, c := range nb.Cells {
		if c.CellType != "code" {
			continue
		}
		cells = append(cells, string(c.Source))
	}
	return cells, nil
}

// SplitPercent splits a percent script on `# %%` separator lines. A
// script without separators is a single cell. Empty cells are dropped.
func SplitPercent(src string) []string {
	var cells []string
	var current []string

	flush := func() {
		text := strings.TrimRight(strings.Join(current, "\n"), "\n")
		if strings.TrimSpace(text) != "" {
			cells = append(cells, text)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(src, "\n") {
		if isPercentSeparator(line) {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return cells
}

func isPercentSeparator(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "# %%") || strings.HasPrefix(trimmed, "#%%")
}
