package frontend

import (
	"sync/atomic"

	"github.com/MarkBennett/dart-sub004/internal/ast"
	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/symbols"
	"github.com/MarkBennett/dart-sub004/internal/token"
)

// Counting wraps a Frontend and counts calls. Tests use it to prove that
// re-analysing unchanged input does no front-end work.
type Counting struct {
	Inner Frontend

	scans    atomic.Int64
	parses   atomic.Int64
	resolves atomic.Int64
}

func NewCounting(inner Frontend) *Counting {
	if inner == nil {
		inner = Default{}
	}
	return &Counting{Inner: inner}
}

func (c *Counting) Scan(src source.Source, text []byte, rep diag.Reporter) *token.Stream {
	c.scans.Add(1)
	return c.Inner.Scan(src, text, rep)
}

func (c *Counting) Parse(src source.Source, ts *token.Stream, rep diag.Reporter) *ast.Unit {
	c.parses.Add(1)
	return c.Inner.Parse(src, ts, rep)
}

func (c *Counting) Resolve(lib source.Source, units symbols.Units, rep diag.Reporter) *symbols.Library {
	c.resolves.Add(1)
	return c.Inner.Resolve(lib, units, rep)
}

// Counts is a snapshot of the call counters.
type Counts struct {
	Scans    int64
	Parses   int64
	Resolves int64
}

func (c Counts) Total() int64 { return c.Scans + c.Parses + c.Resolves }

func (c *Counting) Counts() Counts {
	return Counts{Scans: c.scans.Load(), Parses: c.parses.Load(), Resolves: c.resolves.Load()}
}

func (c *Counting) Reset() {
	c.scans.Store(0)
	c.parses.Store(0)
	c.resolves.Store(0)
}
