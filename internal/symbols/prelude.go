package symbols

// coreTypes are the dart:core names visible in every library.
var coreTypes = []string{
	"Object", "Null", "num", "int", "double", "bool", "String", "Function", "Type", "Symbol",
	"List", "Map", "Set", "Iterable", "Iterator", "Comparable", "Pattern", "RegExp",
	"StringBuffer", "Duration", "DateTime", "Record", "Enum", "Future", "Stream",
	"Exception", "Error", "StateError", "ArgumentError", "RangeError", "UnsupportedError",
	"UnimplementedError", "FormatException",
}

// CoreNamespace returns a fresh namespace of dart:core builtins.
func CoreNamespace() Namespace {
	ns := make(Namespace, len(coreTypes))
	for _, name := range coreTypes {
		ns[name] = Symbol{Name: name, Kind: SymbolBuiltin}
	}
	return ns
}
