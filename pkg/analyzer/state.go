// Package analyzer classifies the names a Python cell reads from and
// writes into its enclosing environment, using a scope-aware single pass
// over a tree-sitter syntax tree.
package analyzer

// SymbolState tracks how a name has been used within one cell.
type SymbolState int

const (
	// Unseen means no occurrence of the name has been recorded yet.
	Unseen SymbolState = iota
	// ReadOnly means the name was read and never written.
	ReadOnly
	// WrittenOnly means the name was written without a prior read.
	WrittenOnly
	// ReadThenWritten means the name counts as both read and written.
	// Covers augmented assignment, subscript/attribute mutation, a plain
	// read followed by reassignment, and a read of a name the cell wrote
	// earlier (a function body referencing it reads the environment at
	// call time, which may happen after other cells ran).
	ReadThenWritten
)

func (s SymbolState) String() string {
	switch s {
	case Unseen:
		return "unseen"
	case ReadOnly:
		return "read"
	case WrittenOnly:
		return "written"
	case ReadThenWritten:
		return "read-then-written"
	default:
		return "unknown"
	}
}

// IsRead reports whether the state counts as a read of the environment.
func (s SymbolState) IsRead() bool {
	return s == ReadOnly || s == ReadThenWritten
}

// IsWritten reports whether the state counts as a write to the environment.
func (s SymbolState) IsWritten() bool {
	return s == WrittenOnly || s == ReadThenWritten
}

// Table maps symbol names to their final state for one cell.
// The zero value of a missing entry is Unseen.
type Table map[string]SymbolState

// Read records a read occurrence. Reads and writes accumulate
// independently: a read of an already-written name still marks the name
// as read, since the occurrence may execute after other cells changed
// the environment.
func (t Table) Read(name string) {
	switch t[name] {
	case Unseen:
		t[name] = ReadOnly
	case WrittenOnly:
		t[name] = ReadThenWritten
	}
}

// Write records a write occurrence. A write after a read upgrades the
// state to ReadThenWritten; repeated writes are no-ops.
func (t Table) Write(name string) {
	switch t[name] {
	case Unseen:
		t[name] = WrittenOnly
	case ReadOnly:
		t[name] = ReadThenWritten
	}
}

// Reads returns the set of names whose final state counts as a read.
func (t Table) Reads() map[string]bool {
	out := make(map[string]bool)
	for name, state := range t {
		if state.IsRead() {
			out[name] = true
		}
	}
	return out
}

// Writes returns the set of names whose final state counts as a write.
func (t Table) Writes() map[string]bool {
	out := make(map[string]bool)
	for name, state := range t {
		if state.IsWritten() {
			out[name] = true
		}
	}
	return out
}
