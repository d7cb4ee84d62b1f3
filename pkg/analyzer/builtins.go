package analyzer

import "strings"

var pythonBuiltins = map[string]bool{
	"abs": true, "all": true, "any": true, "ascii": true,
	"bin": true, "bool": true, "breakpoint": true, "bytearray": true,
	"bytes": true, "callable": true, "chr": true, "classmethod": true,
	"compile": true, "complex": true, "delattr": true, "dict": true,
	"dir": true, "divmod": true, "enumerate": true, "eval": true,
	"exec": true, "filter": true, "float": true, "format": true,
	"frozenset": true, "getattr": true, "globals": true, "hasattr": true,
	"hash": true, "help": true, "hex": true, "id": true,
	"input": true, "int": true, "isinstance": true, "issubclass": true,
	"iter": true, "len": true, "list": true, "locals": true,
	"map": true, "max": true, "memoryview": true, "min": true,
	"next": true, "object": true, "oct": true, "open": true,
	"ord": true, "pow": true, "print": true, "property": true,
	"range": true, "repr": true, "reversed": true, "round": true,
	"set": true, "setattr": true, "slice": true, "sorted": true,
	"staticmethod": true, "str": true, "sum": true, "super": true,
	"tuple": true, "type": true, "vars": true, "zip": true,
	"True": true, "False": true, "None": true, "NotImplemented": true,
	"Ellipsis": true, "self": true, "cls": true,
}

// isBuiltin reports whether a name belongs to the Python builtin
// namespace. Dunder names count as builtins.
func isBuiltin(name string) bool {
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return true
	}
	return pythonBuiltins[name]
}
