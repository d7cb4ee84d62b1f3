// Package flow maintains an ordered sequence of cells together with
// reverse indices from symbol name to the cells reading and writing it,
// and answers last-writer dependency queries over the sequence.
//
// A Flow is not safe for concurrent mutation; callers serialize access.
package flow

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cellflow/cellflow/pkg/cell"
)

// ErrUnknownCell is returned when a query names a cell that is not part
// of the flow. This indicates a caller bug, not a runtime condition.
var ErrUnknownCell = errors.New("cell not present in flow")

// Flow is an ordered collection of cells whose dependencies are kept up
// to date across insertions, replacements, and deletions.
type Flow struct {
	cells []*cell.Cell

	// reverse indices: symbol name to the set of cells using it
	readBy    map[string]map[*cell.Cell]bool
	writtenBy map[string]map[*cell.Cell]bool
}

// New builds a flow from cells in program order.
func New(cells ...*cell.Cell) *Flow {
	f := &Flow{
		readBy:    make(map[string]map[*cell.Cell]bool),
		writtenBy: make(map[string]map[*cell.Cell]bool),
	}
	for _, c := range cells {
		f.cells = append(f.cells, c)
		f.index(c)
	}
	return f
}

// FromSources parses each source into a cell and assembles the flow.
func FromSources(sources []string, opts ...cell.Option) (*Flow, error) {
	cells := make([]*cell.Cell, 0, len(sources))
	for i, src := range sources {
		c, err := cell.New(src, opts...)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		cells = append(cells, c)
	}
	return New(cells...), nil
}

// Len returns the number of cells in the flow.
func (f *Flow) Len() int {
	return len(f.cells)
}

// At returns the cell at position i.
func (f *Flow) At(i int) (*cell.Cell, error) {
	if i < 0 || i >= len(f.cells) {
		return nil, fmt.Errorf("position %d out of range [0,%d)", i, len(f.cells))
	}
	return f.cells[i], nil
}

// Cells returns the cells in order. The slice is a copy; the cells are
// shared.
func (f *Flow) Cells() []*cell.Cell {
	out := make([]*cell.Cell, len(f.cells))
	copy(out, f.cells)
	return out
}

// Position returns the position of c in the flow.
func (f *Flow) Position(c *cell.Cell) (int, error) {
	for i, other := range f.cells {
		if other == c {
			return i, nil
		}
	}
	return 0, ErrUnknownCell
}

// Readers returns the cells currently reading name, in flow order.
func (f *Flow) Readers(name string) []*cell.Cell {
	return f.ordered(f.readBy[name])
}

// Writers returns the cells currently writing name, in flow order.
func (f *Flow) Writers(name string) []*cell.Cell {
	return f.ordered(f.writtenBy[name])
}

// Append adds a cell at the end of the flow.
func (f *Flow) Append(c *cell.Cell) {
	f.cells = append(f.cells, c)
	f.index(c)
}

// Insert places a cell at position i, shifting later cells. Only the
// inserted cell's symbols are touched.
func (f *Flow) Insert(i int, c *cell.Cell) error {
	if i < 0 || i > len(f.cells) {
		return fmt.Errorf("position %d out of range [0,%d]", i, len(f.cells))
	}
	f.cells = append(f.cells, nil)
	copy(f.cells[i+1:], f.cells[i:])
	f.cells[i] = c
	f.index(c)
	return nil
}

// Replace swaps the cell at position i for c, unindexing the old cell
// before indexing the new one so the reverse maps never hold a stale
// entry.
func (f *Flow) Replace(i int, c *cell.Cell) error {
	if i < 0 || i >= len(f.cells) {
		return fmt.Errorf("position %d out of range [0,%d)", i, len(f.cells))
	}
	f.unindex(f.cells[i])
	f.cells[i] = c
	f.index(c)
	return nil
}

// Remove deletes the cell at position i.
func (f *Flow) Remove(i int) error {
	if i < 0 || i >= len(f.cells) {
		return fmt.Errorf("position %d out of range [0,%d)", i, len(f.cells))
	}
	f.unindex(f.cells[i])
	f.cells = append(f.cells[:i], f.cells[i+1:]...)
	return nil
}

// Dependencies returns the cells whose writes c's reads resolve to: for
// each read name, the nearest preceding writer. The queried cell itself
// is excluded, so the result always agrees with Graph.
func (f *Flow) Dependencies(c *cell.Cell) ([]*cell.Cell, error) {
	pos, err := f.Position(c)
	if err != nil {
		return nil, err
	}

	pending := make(map[string]bool)
	for _, name := range c.Reads() {
		pending[name] = true
	}

	var deps []*cell.Cell
	for i := pos - 1; i >= 0 && len(pending) > 0; i-- {
		other := f.cells[i]
		matched := false
		for _, name := range other.Writes() {
			if pending[name] {
				delete(pending, name)
				matched = true
			}
		}
		if matched {
			deps = append(deps, other)
		}
	}

	reverse(deps)
	return deps, nil
}

// Dependents returns the cells that next read each name c writes: for
// each written name, the nearest following reader. The queried cell
// itself is excluded.
func (f *Flow) Dependents(c *cell.Cell) ([]*cell.Cell, error) {
	pos, err := f.Position(c)
	if err != nil {
		return nil, err
	}

	pending := make(map[string]bool)
	for _, name := range c.Writes() {
		pending[name] = true
	}

	var deps []*cell.Cell
	for i := pos + 1; i < len(f.cells) && len(pending) > 0; i++ {
		other := f.cells[i]
		matched := false
		for _, name := range other.Reads() {
			if pending[name] {
				delete(pending, name)
				matched = true
			}
		}
		if matched {
			deps = append(deps, other)
		}
	}

	return deps, nil
}

// Graph computes, for every cell in order, its set of immediate
// predecessors under last-writer-wins resolution. One forward pass: the
// running writer map is updated only after a cell's reads are resolved,
// so a cell never depends on itself.
func (f *Flow) Graph() [][]*cell.Cell {
	graph := make([][]*cell.Cell, len(f.cells))
	lastWriter := make(map[string]*cell.Cell)
	position := make(map[*cell.Cell]int, len(f.cells))

	for i, c := range f.cells {
		position[c] = i

		seen := make(map[*cell.Cell]bool)
		var deps []*cell.Cell
		for _, name := range c.Reads() {
			writer := lastWriter[name]
			if writer == nil || seen[writer] {
				continue
			}
			seen[writer] = true
			deps = append(deps, writer)
		}
		sort.Slice(deps, func(a, b int) bool {
			return position[deps[a]] < position[deps[b]]
		})
		graph[i] = deps

		for _, name := range c.Writes() {
			lastWriter[name] = c
		}
	}

	return graph
}

// index adds a cell to both reverse maps.
func (f *Flow) index(c *cell.Cell) {
	for _, name := range c.Reads() {
		set := f.readBy[name]
		if set == nil {
			set = make(map[*cell.Cell]bool)
			f.readBy[name] = set
		}
		set[c] = true
	}
	for _, name := range c.Writes() {
		set := f.writtenBy[name]
		if set == nil {
			set = make(map[*cell.Cell]bool)
			f.writtenBy[name] = set
		}
		set[c] = true
	}
}

// unindex removes a cell from both reverse maps, dropping entries that
// become empty.
func (f *Flow) unindex(c *cell.Cell) {
	for _, name := range c.Reads() {
		if set := f.readBy[name]; set != nil {
			delete(set, c)
			if len(set) == 0 {
				delete(f.readBy, name)
			}
		}
	}
	for _, name := range c.Writes() {
		if set := f.writtenBy[name]; set != nil {
			delete(set, c)
			if len(set) == 0 {
				delete(f.writtenBy, name)
			}
		}
	}
}

// ordered projects a cell set into flow order.
func (f *Flow) ordered(set map[*cell.Cell]bool) []*cell.Cell {
	if len(set) == 0 {
		return nil
	}
	out := make([]*cell.Cell, 0, len(set))
	for _, c := range f.cells {
		if set[c] {
			out = append(out, c)
		}
	}
	return out
}

func reverse(cells []*cell.Cell) {
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
}
