// Package frontend defines the scan/parse/resolve collaborators the engine
// drives. They are pure: output depends only on their inputs, and all
// diagnostics go to the supplied reporter.
package frontend

import (
	"github.com/MarkBennett/dart-sub004/internal/ast"
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/lexer"
	"github.com/MarkBennett/dart-sub004/internal/parser"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/symbols"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

type Scanner interface {
	Scan(src source.Source, text []byte, rep diag.Reporter) *token.Stream
}

type Parser interface {
	Parse(src source.Source, ts *token.Stream, rep diag.Reporter) *ast.Unit
}

type Resolver interface {
	Resolve(lib source.Source, units symbols.Units, rep diag.Reporter) *symbols.Library
}

// Frontend bundles the three collaborators.
type Frontend interface {
	Scanner
	Parser
	Resolver
}

// Default is the built-in Dart front end.
type Default struct {
	// MaxErrors caps syntax errors per file; 0 means unlimited.
	MaxErrors uint
}

func (Default) Scan(src source.Source, text []byte, rep diag.Reporter) *token.Stream {
	return lexer.Scan(src, text, lexer.Options{Reporter: rep})
}

func (d Default) Parse(src source.Source, ts *token.Stream, rep diag.Reporter) *ast.Unit {
	return parser.Parse(src, ts, parser.Options{Reporter: rep, MaxErrors: d.MaxErrors})
}

func (Default) Resolve(lib source.Source, units symbols.Units, rep diag.Reporter) *symbols.Library {
	return symbols.Resolve(lib, units, rep)
}
