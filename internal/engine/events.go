package engine

import (
	"github.com/MarkBennett/dart-sub004/internal/ast"
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/symbols"
)

// AnalysisError is one diagnostic as seen by clients of the server.
type AnalysisError = diag.Diagnostic

// ParsedEvent is delivered after a source is scanned and parsed.
type ParsedEvent struct {
	Source source.Source
	Unit   *ast.Unit
	Errors []AnalysisError
	Reused bool // content was unchanged; the previous parse was reused
}

// ResolvedEvent is delivered after a library is resolved.
type ResolvedEvent struct {
	Library source.Source
	Sources []source.Source
	Bound   *symbols.Library
	Errors  []AnalysisError
}

// DiscardedEvent is delivered after a library is dropped from the server.
type DiscardedEvent struct {
	Library source.Source
	Sources []source.Source
}

// AnalysisListener receives events on the analysis worker, in the order
// tasks complete. Implementations must not block.
type AnalysisListener interface {
	Parsed(ParsedEvent)
	Resolved(ResolvedEvent)
	Discarded(DiscardedEvent)
}

// ListenerFuncs adapts optional callbacks to AnalysisListener.
type ListenerFuncs struct {
	OnParsed    func(ParsedEvent)
	OnResolved  func(ResolvedEvent)
	OnDiscarded func(DiscardedEvent)
}

func (l ListenerFuncs) Parsed(ev ParsedEvent) {
	if l.OnParsed != nil {
		l.OnParsed(ev)
	}
}

func (l ListenerFuncs) Resolved(ev ResolvedEvent) {
	if l.OnResolved != nil {
		l.OnResolved(ev)
	}
}

func (l ListenerFuncs) Discarded(ev DiscardedEvent) {
	if l.OnDiscarded != nil {
		l.OnDiscarded(ev)
	}
}
