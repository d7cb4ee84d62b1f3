package analyzer

// scope records name bindings for one lexical region during traversal.
// Names in globals were declared with the `global` keyword and escalate
// assignments to the cell's environment; names in locals are bound purely
// within the scope and invisible outside it.
type scope struct {
	globals map[string]bool
	locals  map[string]bool
}

func newScope() *scope {
	return &scope{
		globals: make(map[string]bool),
		locals:  make(map[string]bool),
	}
}

// scopeStack is the stack of nested scopes. An empty stack means the
// traversal is at module level, where assignments hit the environment.
type scopeStack []*scope

// atModule reports whether the traversal is at the outermost level.
func (s scopeStack) atModule() bool {
	return len(s) == 0
}

// top returns the innermost scope, or nil at module level.
func (s scopeStack) top() *scope {
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}

func (s *scopeStack) push() {
	*s = append(*s, newScope())
}

func (s *scopeStack) pop() {
	if len(*s) > 0 {
		*s = (*s)[:len(*s)-1]
	}
}
