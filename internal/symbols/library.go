package symbols

import (
	"github.com/MarkBennett/dart-sub004/internal/source"
)

// Library is the resolved form of a library: its defining unit, parts,
// dependencies and the namespaces computed from them.
type Library struct {
	Root     source.Source
	Name     string
	Parts    []source.Source
	Imports  []source.Source
	Exports  []source.Source
	External []string // dart: and package: URIs imported or exported

	// Scope holds declarations of the root and its parts.
	Scope Namespace
	// Exported is the export namespace seen by importers.
	Exported Namespace
}

// Sources returns the root followed by the parts.
func (l *Library) Sources() []source.Source {
	out := make([]source.Source, 0, 1+len(l.Parts))
	out = append(out, l.Root)
	return append(out, l.Parts...)
}

// Dependencies returns imported and exported libraries.
func (l *Library) Dependencies() []source.Source {
	return Links{Imports: l.Imports, Exports: l.Exports}.Libraries()
}

// Contains reports whether src is the root or one of the parts.
func (l *Library) Contains(src source.Source) bool {
	if l.Root == src {
		return true
	}
	for _, p := range l.Parts {
		if p == src {
			return true
		}
	}
	return false
}
