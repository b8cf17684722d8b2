// Package cache holds per-source analysis artifacts and their state.
package cache

import (
	"github.com/MarkBennett/dart-sub004/internal/ast"
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/project"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/symbols"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

// State is how far analysis of a source has progressed. States only move
// forward, except through Invalidate and Remove.
type State uint8

const (
	Unknown State = iota
	Scanned
	Parsed
	Resolved
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "UNKNOWN"
	case Scanned:
		return "SCANNED"
	case Parsed:
		return "PARSED"
	case Resolved:
		return "RESOLVED"
	default:
		return "INVALID"
	}
}

// Entry is the cached analysis of one source.
type Entry struct {
	Source source.Source
	State  State
	Stamp  int64
	Digest project.Digest

	// Missing is set when the content could not be read; the source was
	// analysed as empty.
	Missing bool
	// Failed is set when a task faulted on this source. The processor does
	// not retry failed sources until they are invalidated.
	Failed bool

	Tokens      *token.Stream
	Unit        *ast.Unit
	ParseErrors []diag.Diagnostic // lexical and syntax errors

	// Library is the owning library root, once known.
	Library source.Source
	// Bound is set on library roots once resolved.
	Bound *symbols.Library
	// ResolveErrors are the semantic errors located in this source.
	ResolveErrors []diag.Diagnostic

	prev *history
}

// history keeps the artifacts of the last analysis across Invalidate so
// unchanged content does not need to be scanned and parsed again.
type history struct {
	digest      project.Digest
	tokens      *token.Stream
	unit        *ast.Unit
	parseErrors []diag.Diagnostic
}

// Reusable returns the previous parse of content with the given digest.
func (e *Entry) Reusable(digest project.Digest) (*token.Stream, *ast.Unit, []diag.Diagnostic, bool) {
	if e.prev == nil || e.prev.unit == nil || e.prev.digest != digest {
		return nil, nil, nil, false
	}
	return e.prev.tokens, e.prev.unit, e.prev.parseErrors, true
}

// Errors returns parse errors followed by resolve errors.
func (e *Entry) Errors() []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(e.ParseErrors)+len(e.ResolveErrors))
	out = append(out, e.ParseErrors...)
	return append(out, e.ResolveErrors...)
}

func (e *Entry) invalidate() {
	if e.Unit != nil {
		e.prev = &history{
			digest:      e.Digest,
			tokens:      e.Tokens,
			unit:        e.Unit,
			parseErrors: e.ParseErrors,
		}
	}
	e.State = Unknown
	e.Failed = false
	e.Missing = false
	e.Tokens = nil
	e.Unit = nil
	e.ParseErrors = nil
	e.Bound = nil
	e.ResolveErrors = nil
}
