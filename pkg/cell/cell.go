// Package cell wraps one independently parsed unit of Python code and
// exposes the two sets derived from it: the names it reads from the
// enclosing environment and the names it writes into it. Both sets are
// computed once at construction; a Cell is immutable afterwards.
package cell

import (
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/cellflow/cellflow/pkg/analyzer"
)

// ParseError reports that the parser rejected the cell source. It is
// the only failure mode of cell construction.
type ParseError struct {
	Line   int // 1-based line of the first syntax error
	Column int // 1-based column of the first syntax error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d", e.Line, e.Column)
}

// Cell is a piece of code that can be parsed independently. Dependencies
// are only computed between cells; statements inside a cell are not
// further decomposed.
type Cell struct {
	source string
	reads  map[string]bool
	writes map[string]bool
}

// Option configures cell construction.
type Option func(*options)

type options struct {
	classifierOpts []analyzer.Option
	lenient        bool
}

// WithBuiltins includes Python builtin names in the read/write sets.
func WithBuiltins() Option {
	return func(o *options) {
		o.classifierOpts = append(o.classifierOpts, analyzer.WithBuiltins())
	}
}

// Lenient makes construction tolerate syntax errors: the classifier
// analyzes whatever the parser could recover instead of failing.
func Lenient() Option {
	return func(o *options) { o.lenient = true }
}

// New parses source and classifies its symbols.
func New(source string, opts ...Option) (*Cell, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	content := []byte(source)
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree := parser.Parse(nil, content)
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() && !o.lenient {
		return nil, parseError(root)
	}

	return fromTable(source, analyzer.New(content, o.classifierOpts...).Classify(root)), nil
}

// FromTree builds a cell from an already parsed tree. The source bytes
// must be the ones the tree was parsed from.
func FromTree(root *sitter.Node, source []byte, opts ...Option) (*Cell, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if root.HasError() && !o.lenient {
		return nil, parseError(root)
	}
	return fromTable(string(source), analyzer.New(source, o.classifierOpts...).Classify(root)), nil
}

// Restore rebuilds a cell from previously computed read/write sets,
// skipping the parse. Used when replaying cached analysis results.
func Restore(source string, reads, writes []string) *Cell {
	c := &Cell{
		source: source,
		reads:  make(map[string]bool, len(reads)),
		writes: make(map[string]bool, len(writes)),
	}
	for _, name := range reads {
		c.reads[name] = true
	}
	for _, name := range writes {
		c.writes[name] = true
	}
	return c
}

func fromTable(source string, table analyzer.Table) *Cell {
	return &Cell{
		source: source,
		reads:  table.Reads(),
		writes: table.Writes(),
	}
}

// parseError locates the first error node for diagnostics.
func parseError(root *sitter.Node) *ParseError {
	if node := findErrorNode(root); node != nil {
		return &ParseError{
			Line:   int(node.StartPoint().Row) + 1,
			Column: int(node.StartPoint().Column) + 1,
		}
	}
	return &ParseError{Line: 1, Column: 1}
}

func findErrorNode(node *sitter.Node) *sitter.Node {
	if node.Type() == "ERROR" || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !child.HasError() {
			continue
		}
		if found := findErrorNode(child); found != nil {
			return found
		}
	}
	return node
}

// Source returns the cell's source text.
func (c *Cell) Source() string {
	return c.source
}

// Reads returns the sorted names the cell reads from the environment.
func (c *Cell) Reads() []string {
	return sortedNames(c.reads)
}

// Writes returns the sorted names the cell writes into the environment.
func (c *Cell) Writes() []string {
	return sortedNames(c.writes)
}

// ReadsName reports whether the cell reads the given name.
func (c *Cell) ReadsName(name string) bool {
	return c.reads[name]
}

// WritesName reports whether the cell writes the given name.
func (c *Cell) WritesName(name string) bool {
	return c.writes[name]
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
