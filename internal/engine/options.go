package engine

import (
	"context"
	"io"
	"os"

	"github.com/MarkBennett/dart-sub004/internal/frontend"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/trace"
)

// Options configures a Server. Zero values are usable.
type Options struct {
	// Provider supplies source text. Defaults to the local disk.
	Provider source.Provider
	// Frontend scans, parses and resolves. Defaults to frontend.Default.
	Frontend frontend.Frontend
	// Root is the workspace root. Diagnostics for sources outside it are
	// dropped; "" keeps everything.
	Root string
	// Roots lists the workspace libraries re-analysed by QueueAnalyzeContext.
	Roots func(ctx context.Context) ([]source.Source, error)
	// CacheCapacity bounds the number of resolved libraries kept in
	// memory; 0 means unbounded.
	CacheCapacity int
	// Tracer receives spans and points; defaults to trace.Nop.
	Tracer trace.Tracer
	// Log receives human readable log lines; defaults to stderr. Use
	// io.Discard to silence.
	Log io.Writer
}

func (o Options) withDefaults() Options {
	if o.Provider == nil {
		o.Provider = source.Disk{}
	}
	if o.Frontend == nil {
		o.Frontend = frontend.Default{}
	}
	if o.Tracer == nil {
		o.Tracer = trace.Nop
	}
	if o.Log == nil {
		o.Log = os.Stderr
	}
	return o
}
