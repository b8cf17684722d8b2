// Package ast holds the parsed form of one compilation unit. Nodes refer to
// tokens by index into the unit's token arena rather than by pointer.
package ast

import (
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

type DirectiveKind uint8

const (
	DirLibrary DirectiveKind = iota + 1
	DirImport
	DirExport
	DirPart
	DirPartOf
)

func (k DirectiveKind) String() string {
	switch k {
	case DirLibrary:
		return "library"
	case DirImport:
		return "import"
	case DirExport:
		return "export"
	case DirPart:
		return "part"
	case DirPartOf:
		return "part of"
	default:
		return "unknown"
	}
}

// Directive is a library/import/export/part/part-of line.
type Directive struct {
	Kind    DirectiveKind
	Keyword token.Index
	URI     string // import/export/part, and part-of when given as a string
	URISpan source.Span
	Name    string // library name, or part-of library name
	Prefix  string // import ... as Prefix
	Show    []string
	Hide    []string
	Span    source.Span
}

// Visible reports whether the combinators let name through.
func (d Directive) Visible(name string) bool {
	if len(d.Show) > 0 {
		found := false
		for _, s := range d.Show {
			if s == name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, h := range d.Hide {
		if h == name {
			return false
		}
	}
	return true
}

type DeclKind uint8

const (
	DeclClass DeclKind = iota + 1
	DeclFunction
	DeclVariable
)

func (k DeclKind) String() string {
	switch k {
	case DeclClass:
		return "class"
	case DeclFunction:
		return "function"
	case DeclVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// TypeRef is a (possibly prefixed) type name as written.
type TypeRef struct {
	Prefix string
	Name   string
	Tok    token.Index // the name token
	Span   source.Span
}

func (t TypeRef) IsZero() bool { return t.Name == "" }

func (t TypeRef) String() string {
	if t.Prefix != "" {
		return t.Prefix + "." + t.Name
	}
	return t.Name
}

type MemberKind uint8

const (
	MemberMethod MemberKind = iota + 1
	MemberField
	MemberConstructor
)

type Member struct {
	Kind     MemberKind
	Name     string
	NameTok  token.Index
	Static   bool
	Abstract bool // no body
	Span     source.Span
}

// Decl is a top-level declaration.
type Decl struct {
	Kind       DeclKind
	Name       string
	NameTok    token.Index
	Abstract   bool
	Extends    TypeRef
	With       []TypeRef
	Implements []TypeRef
	Members    []Member
	Span       source.Span
}

// IsPrivate reports library privacy by Dart's leading-underscore rule.
func IsPrivate(name string) bool {
	return len(name) > 0 && name[0] == '_'
}

// Unit is one parsed source.
type Unit struct {
	Source     source.Source
	Tokens     *token.Stream
	Directives []Directive
	Decls      []Decl
}

// PartOf returns the part-of directive, if the unit is a part.
func (u *Unit) PartOf() (Directive, bool) {
	for _, d := range u.Directives {
		if d.Kind == DirPartOf {
			return d, true
		}
	}
	return Directive{}, false
}

// IsPart reports whether the unit starts with "part of".
func (u *Unit) IsPart() bool {
	_, ok := u.PartOf()
	return ok
}

// LibraryName returns the name from a library directive, or "".
func (u *Unit) LibraryName() string {
	for _, d := range u.Directives {
		if d.Kind == DirLibrary {
			return d.Name
		}
	}
	return ""
}

// DirectivesOf returns the directives of the given kind in source order.
func (u *Unit) DirectivesOf(kind DirectiveKind) []Directive {
	var out []Directive
	for _, d := range u.Directives {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// References lists the sources named by import, export and part directives,
// resolved relative to the unit. External (dart:, package:) URIs are skipped.
func (u *Unit) References() []source.Source {
	var out []source.Source
	seen := make(map[source.Source]struct{})
	for _, d := range u.Directives {
		if d.Kind != DirImport && d.Kind != DirExport && d.Kind != DirPart {
			continue
		}
		src, ok := u.Source.Resolve(d.URI)
		if !ok || src.IsExternal() {
			continue
		}
		if _, dup := seen[src]; dup {
			continue
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	return out
}
