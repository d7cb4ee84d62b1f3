package analyzer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/cellflow/cellflow/internal/log"
)

// Classifier walks one cell's syntax tree and records, per name, whether
// the cell reads it from or writes it into the enclosing environment.
// A Classifier is single-use state for one traversal; create a new one
// per classification (or call Classify again, which resets it).
type Classifier struct {
	source        []byte
	table         Table
	scopes        scopeStack
	trackBuiltins bool
	logger        log.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithBuiltins includes Python builtin names (print, len, ...) in the
// symbol table instead of filtering them out.
func WithBuiltins() Option {
	return func(c *Classifier) { c.trackBuiltins = true }
}

// WithLogger sets the logger used for traversal diagnostics.
func WithLogger(logger log.Logger) Option {
	return func(c *Classifier) { c.logger = logger }
}

// New creates a Classifier for the given cell source.
func New(source []byte, opts ...Option) *Classifier {
	c := &Classifier{
		source: source,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify traverses the tree rooted at root and returns the final
// symbol table. The traversal visits every node once, pushing a scope
// around function, class, lambda, and comprehension bodies.
func (c *Classifier) Classify(root *sitter.Node) Table {
	c.table = make(Table)
	c.scopes = c.scopes[:0]
	c.visit(root)
	return c.table
}

// passthroughKinds are node kinds that carry no binding semantics of
// their own: the traversal recurses into their children silently.
// Kinds missing from both this set and the visit switch are still
// recursed into, but with a diagnostic, so grammar additions surface.
var passthroughKinds = map[string]bool{
	"module": true, "block": true, "expression_statement": true,
	"if_statement": true, "elif_clause": true, "else_clause": true,
	"if_clause": true,
	"while_statement": true, "return_statement": true,
	"binary_operator": true, "boolean_operator": true,
	"comparison_operator": true, "unary_operator": true, "not_operator": true,
	"conditional_expression": true, "parenthesized_expression": true,
	"tuple": true, "list": true, "dictionary": true, "set": true, "pair": true,
	"string": true, "interpolation": true, "concatenated_string": true,
	"expression_list": true, "slice": true, "argument_list": true,
	"list_splat": true, "dictionary_splat": true, "await": true, "yield": true,
	"assert_statement": true, "raise_statement": true, "print_statement": true,
	"decorated_definition": true, "decorator": true, "type": true,
	"pass_statement": true, "break_statement": true, "continue_statement": true,
	"integer": true, "float": true, "true": true, "false": true, "none": true,
	"comment": true, "string_start": true, "string_content": true,
	"string_end": true, "escape_sequence": true, "ellipsis": true,
	"format_specifier": true, "format_expression": true,
	"ERROR": true,
}

func (c *Classifier) visit(node *sitter.Node) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "identifier":
		c.readName(c.text(node))
	case "attribute":
		// only the base object is an environment reference; the
		// attribute name lives in the object's namespace
		c.visit(node.ChildByFieldName("object"))
	case "subscript":
		c.visit(node.ChildByFieldName("value"))
		c.visit(node.ChildByFieldName("subscript"))
	case "keyword_argument":
		c.visit(node.ChildByFieldName("value"))
	case "call":
		c.visitCall(node)
	case "assignment":
		c.visitAssignment(node)
	case "augmented_assignment":
		c.visitAugmentedAssignment(node)
	case "named_expression":
		c.visitNamedExpression(node)
	case "delete_statement":
		c.visitDelete(node)
	case "for_statement":
		c.visitFor(node)
	case "with_statement":
		c.visitWith(node)
	case "try_statement":
		c.visitTry(node)
	case "function_definition":
		c.visitFunctionDef(node)
	case "class_definition":
		c.visitClassDef(node)
	case "lambda":
		c.visitLambda(node)
	case "list_comprehension", "set_comprehension", "generator_expression",
		"dictionary_comprehension":
		c.visitComprehension(node)
	case "global_statement":
		c.visitGlobal(node)
	case "nonlocal_statement":
		c.visitNonlocal(node)
	case "import_statement":
		c.visitImport(node)
	case "import_from_statement":
		c.visitImportFrom(node)
	default:
		if !passthroughKinds[node.Type()] {
			c.logger.Debug("no scope rule for node kind, recursing",
				"kind", node.Type())
		}
		c.visitChildren(node)
	}
}

func (c *Classifier) visitChildren(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c.visit(node.NamedChild(i))
	}
}

// inScope runs fn inside a freshly pushed scope. The pop is deferred so
// the stack stays balanced on every exit path.
func (c *Classifier) inScope(fn func()) {
	c.scopes.push()
	c.logger.Debug("entered local scope", "depth", len(c.scopes))
	defer func() {
		c.scopes.pop()
		c.logger.Debug("left local scope", "depth", len(c.scopes))
	}()
	fn()
}

// readName records a read of name unless it is bound as a local in the
// innermost scope.
func (c *Classifier) readName(name string) {
	if name == "" || (!c.trackBuiltins && isBuiltin(name)) {
		return
	}
	if c.scopes.atModule() || !c.scopes.top().locals[name] {
		c.table.Read(name)
	}
}

// assignName records a write of name. At module level, or when the name
// was declared global in the innermost scope, the write hits the cell's
// environment; otherwise it binds a scope-local invisible outside.
func (c *Classifier) assignName(name string) {
	if name == "" || (!c.trackBuiltins && isBuiltin(name)) {
		return
	}
	if c.scopes.atModule() || c.scopes.top().globals[name] {
		c.logger.Debug("assigning symbol", "name", name)
		c.table.Write(name)
	} else {
		c.scopes.top().locals[name] = true
	}
}

// assign records an assignment to an arbitrary target expression.
// Mutating a subscript or attribute counts as a read-then-write of the
// base object; destructuring targets recurse per element.
func (c *Classifier) assign(node *sitter.Node) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "identifier":
		c.assignName(c.text(node))
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list",
		"expression_list":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			c.assign(node.NamedChild(i))
		}
	case "list_splat_pattern", "dictionary_splat_pattern", "star_expression":
		c.assign(node.NamedChild(0))
	case "parenthesized_expression":
		c.assign(node.NamedChild(0))
	case "subscript":
		c.visit(node.ChildByFieldName("subscript"))
		c.readThenAssign(node.ChildByFieldName("value"))
	case "attribute":
		c.readThenAssign(node.ChildByFieldName("object"))
	default:
		c.logger.Debug("unexpected assignment target, treating as read",
			"kind", node.Type())
		c.visit(node)
	}
}

// readThenAssign marks the target as read and then written, the
// conservative treatment for in-place mutation.
func (c *Classifier) readThenAssign(node *sitter.Node) {
	if node == nil {
		return
	}
	c.visit(node)
	c.assign(node)
}

func (c *Classifier) visitAssignment(node *sitter.Node) {
	right := node.ChildByFieldName("right")
	c.visit(right)
	c.visit(node.ChildByFieldName("type"))
	// a bare annotation (x: int) declares without binding
	if right != nil {
		c.assign(node.ChildByFieldName("left"))
	}
}

func (c *Classifier) visitAugmentedAssignment(node *sitter.Node) {
	c.visit(node.ChildByFieldName("right"))
	c.readThenAssign(node.ChildByFieldName("left"))
}

func (c *Classifier) visitNamedExpression(node *sitter.Node) {
	c.visit(node.ChildByFieldName("value"))
	c.assign(node.ChildByFieldName("name"))
}

// visitDelete handles the del statement: the target must exist to be
// deleted, so it counts as both read and written.
func (c *Classifier) visitDelete(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "expression_list" || child.Type() == "tuple" {
			for j := 0; j < int(child.NamedChildCount()); j++ {
				c.readThenAssign(child.NamedChild(j))
			}
			continue
		}
		c.readThenAssign(child)
	}
}

// visitFor binds the loop target in the current scope, since loop
// variables persist after the loop.
func (c *Classifier) visitFor(node *sitter.Node) {
	c.assign(node.ChildByFieldName("left"))
	c.visit(node.ChildByFieldName("right"))
	c.visit(node.ChildByFieldName("body"))
	c.visit(node.ChildByFieldName("alternative"))
}

func (c *Classifier) visitWith(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "with_clause" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			item := child.NamedChild(j)
			if item.Type() != "with_item" {
				continue
			}
			value := item.ChildByFieldName("value")
			if value != nil && value.Type() == "as_pattern" {
				c.visitAsPattern(value)
			} else {
				c.visit(value)
			}
		}
	}
	c.visit(node.ChildByFieldName("body"))
}

func (c *Classifier) visitTry(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "except_clause", "except_group_clause":
			c.visitExcept(child)
		default:
			c.visit(child)
		}
	}
}

// visitExcept treats the exception type as a read and a caught-as name
// as an assignment in the current scope.
func (c *Classifier) visitExcept(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "as_pattern" {
			c.visitAsPattern(child)
			continue
		}
		c.visit(child)
	}
}

// visitAsPattern handles `expr as target`: the expression is a read,
// the target an assignment in the current scope.
func (c *Classifier) visitAsPattern(node *sitter.Node) {
	c.visit(node.NamedChild(0))
	alias := node.ChildByFieldName("alias")
	if alias == nil {
		return
	}
	if alias.Type() == "as_pattern_target" && alias.NamedChildCount() > 0 {
		c.assign(alias.NamedChild(0))
	} else {
		c.assign(alias)
	}
}

// visitFunctionDef assigns the function name in the enclosing scope,
// evaluates parameter defaults and annotations there too, then visits
// the body inside a fresh scope with the parameters bound as locals.
func (c *Classifier) visitFunctionDef(node *sitter.Node) {
	if name := node.ChildByFieldName("name"); name != nil {
		c.assign(name)
	}
	params := node.ChildByFieldName("parameters")
	c.visitParamDefaults(params)
	c.visit(node.ChildByFieldName("return_type"))
	c.inScope(func() {
		c.bindParams(params)
		c.visit(node.ChildByFieldName("body"))
	})
}

func (c *Classifier) visitClassDef(node *sitter.Node) {
	if name := node.ChildByFieldName("name"); name != nil {
		c.assign(name)
	}
	c.visit(node.ChildByFieldName("superclasses"))
	c.inScope(func() {
		c.visit(node.ChildByFieldName("body"))
	})
}

func (c *Classifier) visitLambda(node *sitter.Node) {
	params := node.ChildByFieldName("parameters")
	c.visitParamDefaults(params)
	c.inScope(func() {
		c.bindParams(params)
		c.visit(node.ChildByFieldName("body"))
	})
}

// visitParamDefaults evaluates default values and type annotations in
// the scope enclosing the definition, where they may read names.
func (c *Classifier) visitParamDefaults(params *sitter.Node) {
	if params == nil {
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		switch child.Type() {
		case "default_parameter":
			c.visit(child.ChildByFieldName("value"))
		case "typed_default_parameter":
			c.visit(child.ChildByFieldName("value"))
			c.visit(child.ChildByFieldName("type"))
		case "typed_parameter":
			c.visit(child.ChildByFieldName("type"))
		}
	}
}

// bindParams binds parameter names as locals of the current scope.
func (c *Classifier) bindParams(params *sitter.Node) {
	if params == nil {
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		c.bindParam(params.NamedChild(i))
	}
}

func (c *Classifier) bindParam(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "identifier":
		if top := c.scopes.top(); top != nil {
			top.locals[c.text(node)] = true
		}
	case "default_parameter", "typed_default_parameter":
		c.bindParam(node.ChildByFieldName("name"))
	case "typed_parameter", "list_splat_pattern", "dictionary_splat_pattern":
		c.bindParam(node.NamedChild(0))
	case "tuple_pattern":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			c.bindParam(node.NamedChild(i))
		}
	}
}

// visitComprehension evaluates a comprehension in its own scope: the
// for-clause targets are locals that never leak out.
func (c *Classifier) visitComprehension(node *sitter.Node) {
	c.inScope(func() {
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() != "for_in_clause" {
				continue
			}
			c.visit(child.ChildByFieldName("right"))
			c.assign(child.ChildByFieldName("left"))
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "for_in_clause" {
				continue
			}
			c.visit(child)
		}
	})
}

// visitGlobal marks names as escaping to the environment for the rest
// of the innermost scope. At module level the statement is a no-op.
func (c *Classifier) visitGlobal(node *sitter.Node) {
	top := c.scopes.top()
	if top == nil {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "identifier" {
			top.globals[c.text(child)] = true
		}
	}
}

// visitNonlocal binds names to an enclosing function scope, which never
// reaches the environment; treat them as locals of the current scope so
// neither their reads nor writes escape the cell.
func (c *Classifier) visitNonlocal(node *sitter.Node) {
	top := c.scopes.top()
	if top == nil {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "identifier" {
			top.locals[c.text(child)] = true
		}
	}
}

// visitImport binds the first component of each dotted module path, or
// the alias when one is given.
func (c *Classifier) visitImport(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			c.assignName(firstComponent(c.text(child)))
		case "aliased_import":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				c.assignName(c.text(alias))
			}
		}
	}
}

// visitImportFrom binds each imported name (or its alias); the module
// path itself is not bound. Wildcard imports carry no binding
// information and are skipped with a diagnostic.
func (c *Classifier) visitImportFrom(node *sitter.Node) {
	module := node.ChildByFieldName("module_name")
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if module != nil && child.StartByte() == module.StartByte() {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			c.assignName(firstComponent(c.text(child)))
		case "aliased_import":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				c.assignName(c.text(alias))
			}
		case "wildcard_import":
			c.logger.Debug("wildcard import binds unknown names, skipping")
		}
	}
}

// visitCall conservatively treats a method call's receiver as mutated:
// obj.method() reads and writes obj. A plain callee is an ordinary read.
func (c *Classifier) visitCall(node *sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn != nil && fn.Type() == "attribute" {
		c.readThenAssign(fn.ChildByFieldName("object"))
	} else {
		c.visit(fn)
	}
	c.visit(node.ChildByFieldName("arguments"))
}

func (c *Classifier) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if int(start) >= len(c.source) || int(end) > len(c.source) {
		return ""
	}
	return string(c.source[start:end])
}

func firstComponent(dotted string) string {
	if i := strings.IndexByte(dotted, '.'); i >= 0 {
		return dotted[:i]
	}
	return dotted
}
