package analyzer

import (
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, source string, opts ...Option) Table {
	t.Helper()
	content := []byte(source)
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree := parser.Parse(nil, content)
	defer tree.Close()
	require.False(t, tree.RootNode().HasError(), "test source must parse cleanly")
	return New(content, opts...).Classify(tree.RootNode())
}

func names(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	return out
}

func TestClassifyAssignments(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		wantReads  []string
		wantWrites []string
	}{
		{
			name:       "simple assignment",
			code:       "a = b + 1",
			wantReads:  []string{"b"},
			wantWrites: []string{"a"},
		},
		{
			name:       "augmented assignment reads and writes",
			code:       "x += 1",
			wantReads:  []string{"x"},
			wantWrites: []string{"x"},
		},
		{
			name:       "self referencing assignment",
			code:       "a = a + 1",
			wantReads:  []string{"a"},
			wantWrites: []string{"a"},
		},
		{
			name:       "tuple unpacking",
			code:       "a, b = pair",
			wantReads:  []string{"pair"},
			wantWrites: []string{"a", "b"},
		},
		{
			name:       "starred unpacking",
			code:       "first, *rest = items",
			wantReads:  []string{"items"},
			wantWrites: []string{"first", "rest"},
		},
		{
			name:       "chained assignment",
			code:       "a = b = value",
			wantReads:  []string{"value"},
			wantWrites: []string{"a", "b"},
		},
		{
			name:       "subscript target mutates base",
			code:       "d[k] = v",
			wantReads:  []string{"d", "k", "v"},
			wantWrites: []string{"d"},
		},
		{
			name:       "attribute target mutates base",
			code:       "obj.attr = v",
			wantReads:  []string{"obj", "v"},
			wantWrites: []string{"obj"},
		},
		{
			name:       "annotated assignment",
			code:       "count: int = start",
			wantReads:  []string{"start"},
			wantWrites: []string{"count"},
		},
		{
			name:       "bare annotation does not bind",
			code:       "count: int",
			wantReads:  []string{},
			wantWrites: []string{},
		},
		{
			name:       "walrus operator",
			code:       "if (n := compute()):\n    pass",
			wantReads:  []string{"compute"},
			wantWrites: []string{"n"},
		},
		{
			name:       "delete reads and writes target",
			code:       "del d",
			wantReads:  []string{"d"},
			wantWrites: []string{"d"},
		},
		{
			name:       "delete multiple targets",
			code:       "del a, b",
			wantReads:  []string{"a", "b"},
			wantWrites: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := classify(t, tt.code)
			assert.ElementsMatch(t, tt.wantReads, names(table.Reads()))
			assert.ElementsMatch(t, tt.wantWrites, names(table.Writes()))
		})
	}
}

func TestClassifyScopes(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		wantReads  []string
		wantWrites []string
	}{
		{
			name:       "function locals stay inside",
			code:       "def f(g):\n    h = i + 6",
			wantReads:  []string{"i"},
			wantWrites: []string{"f"},
		},
		{
			name:       "default values evaluated outside",
			code:       "def f(x=default):\n    return x",
			wantReads:  []string{"default"},
			wantWrites: []string{"f"},
		},
		{
			name:       "global declaration escalates write",
			code:       "def f():\n    global x\n    x = 1",
			wantReads:  []string{},
			wantWrites: []string{"f", "x"},
		},
		{
			name:       "global at module level is a no-op",
			code:       "global x\nx = 1",
			wantReads:  []string{},
			wantWrites: []string{"x"},
		},
		{
			name:       "nonlocal names never escape",
			code:       "def outer():\n    x = 1\n    def inner():\n        nonlocal x\n        x += 1",
			wantReads:  []string{},
			wantWrites: []string{"outer"},
		},
		{
			name:       "class body is its own scope",
			code:       "class C(Base):\n    attr = x",
			wantReads:  []string{"Base", "x"},
			wantWrites: []string{"C"},
		},
		{
			name:       "lambda parameter is local",
			code:       "f = lambda y: y + z",
			wantReads:  []string{"z"},
			wantWrites: []string{"f"},
		},
		{
			name:       "list comprehension target does not leak",
			code:       "result = [x * 2 for x in data]",
			wantReads:  []string{"data"},
			wantWrites: []string{"result"},
		},
		{
			name:       "dict comprehension with condition",
			code:       "result = {k: v for k, v in pairs if k in allowed}",
			wantReads:  []string{"pairs", "allowed"},
			wantWrites: []string{"result"},
		},
		{
			name:       "generator expression scope",
			code:       "gen = (x * factor for x in data)",
			wantReads:  []string{"data", "factor"},
			wantWrites: []string{"gen"},
		},
		{
			name:       "loop variable persists in scope",
			code:       "for i in items:\n    total += i",
			wantReads:  []string{"items", "total", "i"},
			wantWrites: []string{"i", "total"},
		},
		{
			name:       "with binding in current scope",
			code:       "with manager(p) as handle:\n    data = handle",
			wantReads:  []string{"manager", "p", "handle"},
			wantWrites: []string{"handle", "data"},
		},
		{
			name:       "except binds caught exception",
			code:       "try:\n    risky()\nexcept CustomError as err:\n    handle(err)",
			wantReads:  []string{"risky", "CustomError", "handle", "err"},
			wantWrites: []string{"err"},
		},
		{
			name:       "nested function reads free variable",
			code:       "def f():\n    def g():\n        return shared",
			wantReads:  []string{"shared"},
			wantWrites: []string{"f"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := classify(t, tt.code)
			assert.ElementsMatch(t, tt.wantReads, names(table.Reads()))
			assert.ElementsMatch(t, tt.wantWrites, names(table.Writes()))
		})
	}
}

func TestClassifyCallsAndImports(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		wantReads  []string
		wantWrites []string
	}{
		{
			name:       "plain call reads callee and args",
			code:       "func(x)",
			wantReads:  []string{"func", "x"},
			wantWrites: []string{},
		},
		{
			name:       "method call mutates receiver",
			code:       "data.append(x)",
			wantReads:  []string{"data", "x"},
			wantWrites: []string{"data"},
		},
		{
			name:       "keyword argument value is read",
			code:       "plot(style=theme)",
			wantReads:  []string{"plot", "theme"},
			wantWrites: []string{},
		},
		{
			name:       "import binds first dotted component",
			code:       "import os.path",
			wantReads:  []string{},
			wantWrites: []string{"os"},
		},
		{
			name:       "import with alias binds alias",
			code:       "import numpy as np",
			wantReads:  []string{},
			wantWrites: []string{"np"},
		},
		{
			name:       "from import binds names",
			code:       "from collections import OrderedDict, defaultdict as dd",
			wantReads:  []string{},
			wantWrites: []string{"OrderedDict", "dd"},
		},
		{
			name:       "wildcard import binds nothing",
			code:       "from os.path import *",
			wantReads:  []string{},
			wantWrites: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := classify(t, tt.code)
			assert.ElementsMatch(t, tt.wantReads, names(table.Reads()))
			assert.ElementsMatch(t, tt.wantWrites, names(table.Writes()))
		})
	}
}

func TestClassifyBuiltins(t *testing.T) {
	code := "print(len(x))"

	table := classify(t, code)
	assert.ElementsMatch(t, []string{"x"}, names(table.Reads()))

	table = classify(t, code, WithBuiltins())
	assert.ElementsMatch(t, []string{"print", "len", "x"}, names(table.Reads()))
}

func TestClassifyMultiStatementCell(t *testing.T) {
	code := "a = b + 1\nc = 4\ndel d\ne = 1\ndef f(g):\n    h = i + 6\n    print(e)"

	table := classify(t, code)

	assert.ElementsMatch(t, []string{"b", "d", "e", "i"}, names(table.Reads()))
	assert.ElementsMatch(t, []string{"a", "c", "d", "e", "f"}, names(table.Writes()))
}

func TestClassifyDeterministic(t *testing.T) {
	code := "a = b + 1\nfor i in items:\n    acc += transform(i)"
	first := classify(t, code)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, classify(t, code))
	}
}

func TestClassifierReuse(t *testing.T) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	content := []byte("a = b")
	tree := parser.Parse(nil, content)
	defer tree.Close()

	c := New(content)
	first := c.Classify(tree.RootNode())
	second := c.Classify(tree.RootNode())

	// Classify resets internal state, so runs are independent.
	assert.Equal(t, first, second)
	assert.ElementsMatch(t, []string{"b"}, names(second.Reads()))
	assert.ElementsMatch(t, []string{"a"}, names(second.Writes()))
}

func TestIsBuiltin(t *testing.T) {
	assert.True(t, isBuiltin("print"))
	assert.True(t, isBuiltin("len"))
	assert.True(t, isBuiltin("__name__"))
	assert.False(t, isBuiltin("numpy"))
	assert.False(t, isBuiltin("x"))
}
