package symbols

import (
	"fmt"
	"strings"

	"github.com/MarkBennett/dart-sub004/internal/ast"
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/source"
)

// Units gives the parsed unit of every source in a library's closure.
// A missing or nil entry means the source could not be read.
type Units map[source.Source]*ast.Unit

// Resolver binds one library at a time. Export namespaces are memoized per
// Resolver, so a fresh one should be used after any unit changes.
type Resolver struct {
	units    Units
	exports  map[source.Source]Namespace
	visiting map[source.Source]bool
}

func NewResolver(units Units) *Resolver {
	return &Resolver{
		units:    units,
		exports:  make(map[source.Source]Namespace),
		visiting: make(map[source.Source]bool),
	}
}

// Resolve is NewResolver(units).Resolve(root, rep).
func Resolve(root source.Source, units Units, rep diag.Reporter) *Library {
	return NewResolver(units).Resolve(root, rep)
}

// Resolve binds the library defined by root. Diagnostics are reported
// only for the root and its parts.
func (r *Resolver) Resolve(root source.Source, rep diag.Reporter) *Library {
	if rep == nil {
		rep = diag.Nop
	}
	lib := &Library{Root: root, Scope: make(Namespace)}
	unit := r.units[root]
	if unit == nil {
		lib.Exported = make(Namespace)
		return lib
	}
	lr := &libraryResolver{r: r, lib: lib, rep: rep, prefixes: make(map[string]Namespace)}
	lib.Name = unit.LibraryName()
	lr.checkDirectives(unit)
	lr.declare(unit)
	for _, part := range lib.Parts {
		if pu := r.units[part]; pu != nil && pu.IsPart() {
			lr.declare(pu)
		}
	}
	lib.Exported = r.exportNamespace(root)
	lr.bindImports(unit)
	lr.checkClasses(unit)
	for _, part := range lib.Parts {
		if pu := r.units[part]; pu != nil && pu.IsPart() {
			lr.checkClasses(pu)
		}
	}
	return lib
}

// exportNamespace: публичные имена библиотеки плюс всё, что она
// реэкспортирует. Циклы экспорта обрываются на повторном входе.
func (r *Resolver) exportNamespace(root source.Source) Namespace {
	if ns, ok := r.exports[root]; ok {
		return ns
	}
	if r.visiting[root] {
		return nil
	}
	unit := r.units[root]
	ns := make(Namespace)
	if unit == nil {
		r.exports[root] = ns
		return ns
	}
	r.visiting[root] = true
	defer delete(r.visiting, root)

	units := []*ast.Unit{unit}
	for _, part := range LinksOf(unit).Parts {
		if pu := r.units[part]; pu != nil && pu.IsPart() {
			units = append(units, pu)
		}
	}
	for _, u := range units {
		for _, d := range u.Decls {
			if ast.IsPrivate(d.Name) {
				continue
			}
			if _, exists := ns[d.Name]; !exists {
				ns[d.Name] = symbolOf(u, d)
			}
		}
	}
	for _, d := range unit.DirectivesOf(ast.DirExport) {
		target, ok := root.Resolve(d.URI)
		if !ok || target.IsExternal() {
			continue
		}
		ns.merge(r.exportNamespace(target), d.Visible)
	}
	r.exports[root] = ns
	return ns
}

func symbolOf(u *ast.Unit, d ast.Decl) Symbol {
	return Symbol{
		Name:   d.Name,
		Kind:   kindOf(d.Kind),
		Source: u.Source,
		Tok:    d.NameTok,
		Span:   u.Tokens.At(d.NameTok).Span,
	}
}

type libraryResolver struct {
	r        *Resolver
	lib      *Library
	rep      diag.Reporter
	imported Namespace
	prefixes map[string]Namespace
	// openExternal is set when an unprefixed non-core external library is
	// imported; unknown names may come from it.
	openExternal   bool
	externalPrefix map[string]bool
}

func (lr *libraryResolver) report(code diag.Code, src source.Source, sp source.Span, msg string) *diag.ReportBuilder {
	return diag.ReportError(lr.rep, code, src, sp, msg)
}

// checkDirectives validates URIs and part structure and fills in the
// library's links.
func (lr *libraryResolver) checkDirectives(unit *ast.Unit) {
	root := unit.Source
	for _, d := range unit.Directives {
		if d.Kind == ast.DirLibrary || d.Kind == ast.DirPartOf {
			continue
		}
		target, ok := root.Resolve(d.URI)
		if !ok {
			lr.report(diag.SemaUnresolvedURI, root, d.URISpan, fmt.Sprintf("cannot resolve URI '%s'", d.URI)).Emit()
			continue
		}
		if target.IsExternal() {
			if d.Kind == ast.DirPart {
				lr.report(diag.SemaNotAPart, root, d.URISpan, fmt.Sprintf("'%s' cannot be a part", d.URI)).Emit()
				continue
			}
			lr.lib.External = append(lr.lib.External, d.URI)
			continue
		}
		targetUnit := lr.r.units[target]
		switch d.Kind {
		case ast.DirImport:
			lr.lib.Imports = appendUnique(lr.lib.Imports, target)
		case ast.DirExport:
			lr.lib.Exports = appendUnique(lr.lib.Exports, target)
		case ast.DirPart:
			lr.lib.Parts = appendUnique(lr.lib.Parts, target)
		}
		if targetUnit == nil {
			lr.report(diag.SemaMissingSource, root, d.URISpan, fmt.Sprintf("target of URI '%s' does not exist", d.URI)).Emit()
			continue
		}
		if d.Kind == ast.DirPart {
			lr.checkPart(root, d, targetUnit)
		}
	}
}

func (lr *libraryResolver) checkPart(root source.Source, d ast.Directive, part *ast.Unit) {
	partOf, ok := part.PartOf()
	if !ok {
		lr.report(diag.SemaNotAPart, root, d.URISpan, fmt.Sprintf("'%s' is not a part of any library", d.URI)).Emit()
		return
	}
	owner := source.Source{}
	if partOf.URI != "" {
		owner, _ = part.Source.Resolve(partOf.URI)
	}
	switch {
	case !owner.IsZero() && owner != root:
		lr.report(diag.SemaPartOfMismatch, part.Source, partOf.URISpan,
			fmt.Sprintf("part of '%s' is included by '%s'", partOf.URI, root)).Emit()
	case owner.IsZero() && partOf.Name != lr.lib.Name:
		lr.report(diag.SemaPartOfMismatch, part.Source, partOf.Span,
			fmt.Sprintf("part of '%s' is included by library '%s'", partOf.Name, lr.lib.Name)).Emit()
	}
	for _, other := range part.Directives {
		if other.Kind == ast.DirPartOf {
			continue
		}
		lr.report(diag.SemaPartHasDirectives, part.Source, other.Span,
			fmt.Sprintf("a part cannot contain a %s directive", other.Kind)).Emit()
	}
}

// declare adds the unit's declarations to the library scope.
func (lr *libraryResolver) declare(u *ast.Unit) {
	for _, d := range u.Decls {
		sym := symbolOf(u, d)
		if prev, exists := lr.lib.Scope[d.Name]; exists {
			lr.report(diag.SemaDuplicateName, u.Source, sym.Span,
				fmt.Sprintf("'%s' is already declared in this library", d.Name)).
				WithNote(prev.Span, "previous declaration in "+prev.Source.Path()).
				Emit()
			continue
		}
		lr.lib.Scope[d.Name] = sym
		if d.Kind == ast.DeclClass {
			lr.checkMembers(u, d)
		}
	}
}

func (lr *libraryResolver) checkMembers(u *ast.Unit, d ast.Decl) {
	seen := make(map[string]ast.Member, len(d.Members))
	for _, m := range d.Members {
		if m.Name == "" {
			continue
		}
		if prev, dup := seen[m.Name]; dup {
			lr.report(diag.SemaDuplicateMember, u.Source, u.Tokens.At(m.NameTok).Span,
				fmt.Sprintf("'%s' is already declared in class '%s'", m.Name, d.Name)).
				WithNote(u.Tokens.At(prev.NameTok).Span, "previous declaration").
				Emit()
			continue
		}
		seen[m.Name] = m
	}
}

func (lr *libraryResolver) bindImports(unit *ast.Unit) {
	lr.imported = make(Namespace)
	lr.externalPrefix = make(map[string]bool)
	for _, d := range unit.DirectivesOf(ast.DirImport) {
		target, ok := unit.Source.Resolve(d.URI)
		if !ok {
			continue
		}
		if target.IsExternal() {
			switch {
			case d.Prefix != "":
				lr.externalPrefix[d.Prefix] = true
			case !strings.HasPrefix(d.URI, "dart:core"):
				lr.openExternal = true
			}
			continue
		}
		ns := lr.r.exportNamespace(target)
		if d.Prefix == "" {
			lr.imported.merge(ns, d.Visible)
			continue
		}
		into, ok := lr.prefixes[d.Prefix]
		if !ok {
			into = make(Namespace)
			lr.prefixes[d.Prefix] = into
		}
		into.merge(ns, d.Visible)
	}
}

func (lr *libraryResolver) checkClasses(u *ast.Unit) {
	for _, d := range u.Decls {
		if d.Kind != ast.DeclClass {
			continue
		}
		if !d.Extends.IsZero() {
			lr.checkType(u, d.Extends)
		}
		for _, ref := range d.With {
			lr.checkType(u, ref)
		}
		for _, ref := range d.Implements {
			lr.checkType(u, ref)
		}
	}
}

func (lr *libraryResolver) checkType(u *ast.Unit, ref ast.TypeRef) {
	sym, found, certain := lr.lookupType(ref)
	if !certain {
		return
	}
	if !found {
		lr.report(diag.SemaUndefinedClass, u.Source, ref.Span, fmt.Sprintf("undefined class '%s'", ref)).Emit()
		return
	}
	if !sym.Kind.IsType() {
		lr.report(diag.SemaUndefinedClass, u.Source, ref.Span,
			fmt.Sprintf("'%s' is a %s, not a class", ref, sym.Kind)).Emit()
	}
}

// lookupType returns certain=false when the name may come from a library
// that is not analyzed here (SDK or package imports).
func (lr *libraryResolver) lookupType(ref ast.TypeRef) (sym Symbol, found, certain bool) {
	if ref.Prefix != "" {
		if lr.externalPrefix[ref.Prefix] {
			return Symbol{}, false, false
		}
		ns, ok := lr.prefixes[ref.Prefix]
		if !ok {
			return Symbol{}, false, true
		}
		sym, found = ns.Lookup(ref.Name)
		return sym, found, true
	}
	if sym, ok := lr.lib.Scope.Lookup(ref.Name); ok {
		return sym, true, true
	}
	if sym, ok := lr.imported.Lookup(ref.Name); ok {
		return sym, true, true
	}
	if sym, ok := core.Lookup(ref.Name); ok {
		return sym, true, true
	}
	return Symbol{}, false, !lr.openExternal
}

var core = CoreNamespace()
