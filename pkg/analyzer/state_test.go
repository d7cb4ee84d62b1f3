package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableTransitions(t *testing.T) {
	tests := []struct {
		name string
		ops  func(tbl Table)
		want SymbolState
	}{
		{
			name: "read only",
			ops:  func(tbl Table) { tbl.Read("x") },
			want: ReadOnly,
		},
		{
			name: "write only",
			ops:  func(tbl Table) { tbl.Write("x") },
			want: WrittenOnly,
		},
		{
			name: "read then write",
			ops:  func(tbl Table) { tbl.Read("x"); tbl.Write("x") },
			want: ReadThenWritten,
		},
		{
			name: "write then read",
			ops:  func(tbl Table) { tbl.Write("x"); tbl.Read("x") },
			want: ReadThenWritten,
		},
		{
			name: "repeated reads stay read only",
			ops:  func(tbl Table) { tbl.Read("x"); tbl.Read("x") },
			want: ReadOnly,
		},
		{
			name: "repeated writes stay written only",
			ops:  func(tbl Table) { tbl.Write("x"); tbl.Write("x") },
			want: WrittenOnly,
		},
		{
			name: "write after read then write is a no-op",
			ops:  func(tbl Table) { tbl.Read("x"); tbl.Write("x"); tbl.Write("x") },
			want: ReadThenWritten,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := make(Table)
			tt.ops(tbl)
			assert.Equal(t, tt.want, tbl["x"])
		})
	}
}

func TestSymbolStateClassification(t *testing.T) {
	assert.False(t, Unseen.IsRead())
	assert.False(t, Unseen.IsWritten())

	assert.True(t, ReadOnly.IsRead())
	assert.False(t, ReadOnly.IsWritten())

	assert.False(t, WrittenOnly.IsRead())
	assert.True(t, WrittenOnly.IsWritten())

	assert.True(t, ReadThenWritten.IsRead())
	assert.True(t, ReadThenWritten.IsWritten())
}

func TestTableProjections(t *testing.T) {
	tbl := make(Table)
	tbl.Read("b")
	tbl.Write("a")
	tbl.Read("d")
	tbl.Write("d")

	assert.Equal(t, map[string]bool{"b": true, "d": true}, tbl.Reads())
	assert.Equal(t, map[string]bool{"a": true, "d": true}, tbl.Writes())
}

func TestSymbolStateString(t *testing.T) {
	assert.Equal(t, "unseen", Unseen.String())
	assert.Equal(t, "read", ReadOnly.String())
	assert.Equal(t, "written", WrittenOnly.String())
	assert.Equal(t, "read-then-written", ReadThenWritten.String())
}
