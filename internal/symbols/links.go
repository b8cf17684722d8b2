package symbols

import (
	"github.com/MarkBennett/dart-sub004/internal/ast"
	"github.com/MarkBennett/dart-sub004/internal/source"
)

// Links are the sources a unit's directives point at, split by role.
// External URIs and URIs that do not resolve are left out.
type Links struct {
	Parts   []source.Source
	Imports []source.Source
	Exports []source.Source
}

// LinksOf reads the directives of unit. A nil unit has no links.
func LinksOf(unit *ast.Unit) Links {
	var l Links
	if unit == nil {
		return l
	}
	for _, d := range unit.Directives {
		src, ok := unit.Source.Resolve(d.URI)
		if !ok || src.IsExternal() {
			continue
		}
		switch d.Kind {
		case ast.DirPart:
			l.Parts = appendUnique(l.Parts, src)
		case ast.DirImport:
			l.Imports = appendUnique(l.Imports, src)
		case ast.DirExport:
			l.Exports = appendUnique(l.Exports, src)
		}
	}
	return l
}

// Libraries returns imported and exported libraries without duplicates.
func (l Links) Libraries() []source.Source {
	out := make([]source.Source, 0, len(l.Imports)+len(l.Exports))
	for _, src := range l.Imports {
		out = appendUnique(out, src)
	}
	for _, src := range l.Exports {
		out = appendUnique(out, src)
	}
	return out
}

func appendUnique(list []source.Source, src source.Source) []source.Source {
	for _, have := range list {
		if have == src {
			return list
		}
	}
	return append(list, src)
}
