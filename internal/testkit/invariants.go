// Package testkit holds structural checks shared by parser and engine tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/MarkBennett/dart-sub004/internal/ast"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed unit:
// 1) every directive and declaration span is non-empty and within content
// 2) no two declarations share a name token
// 3) the name token of a declaration or member lies inside its span
// 4) member spans are contained in the span of their class
func CheckSpanInvariants(unit *ast.Unit, content []byte) error {
	if unit == nil || unit.Tokens == nil {
		return fmt.Errorf("nil unit or token stream")
	}
	size, err := safecast.Conv[uint32](len(content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	within := func(what string, sp source.Span) error {
		if sp.End <= sp.Start {
			return fmt.Errorf("%s: empty span %v", what, sp)
		}
		if sp.End > size {
			return fmt.Errorf("%s: span %v beyond content (%d bytes)", what, sp, size)
		}
		return nil
	}
	nameInside := func(what string, tok token.Index, outer source.Span) error {
		if tok == token.NoIndex {
			return nil
		}
		sp := unit.Tokens.At(tok).Span
		if sp.Start < outer.Start || sp.End > outer.End {
			return fmt.Errorf("%s: name %v outside %v", what, sp, outer)
		}
		return nil
	}

	for i, d := range unit.Directives {
		if err := within(fmt.Sprintf("directive %d (%s)", i, d.Kind), d.Span); err != nil {
			return err
		}
	}
	seen := make(map[token.Index]int, len(unit.Decls))
	for i, d := range unit.Decls {
		what := fmt.Sprintf("decl %d (%s %s)", i, d.Kind, d.Name)
		if err := within(what, d.Span); err != nil {
			return err
		}
		if j, dup := seen[d.NameTok]; dup && d.NameTok != token.NoIndex {
			return fmt.Errorf("%s: name token shared with decl %d", what, j)
		}
		seen[d.NameTok] = i
		if err := nameInside(what, d.NameTok, d.Span); err != nil {
			return err
		}
		for _, m := range d.Members {
			mwhat := fmt.Sprintf("%s member %s", what, m.Name)
			if err := within(mwhat, m.Span); err != nil {
				return err
			}
			if m.Span.Start < d.Span.Start || m.Span.End > d.Span.End {
				return fmt.Errorf("%s: span %v outside class %v", mwhat, m.Span, d.Span)
			}
			if err := nameInside(mwhat, m.NameTok, m.Span); err != nil {
				return err
			}
		}
	}
	return nil
}
