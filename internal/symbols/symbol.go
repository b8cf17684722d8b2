package symbols

import (
	"sort"

	"github.com/MarkBennett/dart-sub004/internal/ast"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

// SymbolKind classifies a top-level name.
type SymbolKind uint8

const (
	SymbolClass SymbolKind = iota + 1
	SymbolFunction
	SymbolVariable
	SymbolBuiltin
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolClass:
		return "class"
	case SymbolFunction:
		return "function"
	case SymbolVariable:
		return "variable"
	case SymbolBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

func kindOf(d ast.DeclKind) SymbolKind {
	switch d {
	case ast.DeclClass:
		return SymbolClass
	case ast.DeclFunction:
		return SymbolFunction
	default:
		return SymbolVariable
	}
}

// IsType reports whether the symbol can appear in extends/with/implements.
func (k SymbolKind) IsType() bool { return k == SymbolClass || k == SymbolBuiltin }

// Symbol is a declared top-level name.
type Symbol struct {
	Name   string
	Kind   SymbolKind
	Source source.Source // declaring unit; zero for builtins
	Tok    token.Index
	Span   source.Span
}

// Namespace maps names to symbols.
type Namespace map[string]Symbol

func (ns Namespace) Lookup(name string) (Symbol, bool) {
	sym, ok := ns[name]
	return sym, ok
}

// Names returns the sorted names in ns.
func (ns Namespace) Names() []string {
	out := make([]string, 0, len(ns))
	for name := range ns {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// merge copies the entries of other that pass filter and are not yet present.
func (ns Namespace) merge(other Namespace, filter func(string) bool) {
	for name, sym := range other {
		if filter != nil && !filter(name) {
			continue
		}
		if _, exists := ns[name]; !exists {
			ns[name] = sym
		}
	}
}
