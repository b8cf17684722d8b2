package engine

import (
	"context"
	"fmt"

	"github.com/MarkBennett/dart-sub004/internal/ast"
	"github.com/MarkBennett/dart-sub004/internal/cache"
	"github.com/MarkBennett/dart-sub004/internal/project"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/task"
	"github.com/MarkBennett/dart-sub004/internal/token"
	"github.com/MarkBennett/dart-sub004/internal/trace"
)

// scan brings one source to PARSED and queues scans for the sources its
// directives name.
func (s *Server) scan(ctx context.Context, t task.Task) error {
	src := t.Source
	entry := s.cache.Get(src)
	if entry.State >= cache.Parsed || entry.Failed {
		return nil
	}
	contents, missing, err := s.read(ctx, src)
	if err != nil {
		return err
	}
	digest := project.DigestOf(contents.Text)

	var (
		ts     *token.Stream
		unit   *ast.Unit
		errs   []AnalysisError
		reused bool
	)
	if pts, punit, perrs, ok := entry.Reusable(digest); ok {
		ts, unit, errs, reused = pts, punit, perrs, true
	} else {
		l := newErrorListener(s.opts.Root)
		ts = s.opts.Frontend.Scan(src, contents.Text, l)
		if err := ctx.Err(); err != nil {
			return err
		}
		unit = s.opts.Frontend.Parse(src, ts, l)
		errs = l.Errors()
	}

	// scan and parse results land in one update; a fault or cancellation
	// above leaves the entry as it was
	state := cache.Parsed
	if unit == nil {
		state = cache.Scanned
	}
	s.cache.Update(src, func(e *cache.Entry) {
		e.State = state
		e.Stamp = contents.Stamp
		e.Digest = digest
		e.Missing = missing
		e.Tokens = ts
		e.Unit = unit
		e.ParseErrors = errs
	})
	s.errors.setParse(src, errs)
	s.emitParsed(ParsedEvent{Source: src, Unit: unit, Errors: errs, Reused: reused})

	if unit == nil {
		return nil
	}
	for _, ref := range unit.References() {
		if e, _ := s.cache.Peek(ref); e.State == cache.Unknown && !e.Failed {
			s.follow(t, task.Scan(nil, ref))
		}
	}
	return nil
}

// read fetches the content of src. Unreadable sources are logged and
// analysed as empty; only cancellation is returned as an error.
func (s *Server) read(ctx context.Context, src source.Source) (source.Contents, bool, error) {
	c, err := s.opts.Provider.Contents(ctx, src)
	if err == nil {
		return c, false, nil
	}
	if isCancellation(err) {
		return source.Contents{}, false, err
	}
	err = fmt.Errorf("%w: %w", ErrContentUnavailable, err)
	s.logf("%v", err)
	trace.Point(s.tracer, trace.KindPoint, trace.ScopeSource, "unavailable", err.Error(), 0)
	return source.Contents{}, true, nil
}
