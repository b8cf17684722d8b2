package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarkBennett/dart-sub004/internal/cache"
	"github.com/MarkBennett/dart-sub004/internal/task"
	"github.com/MarkBennett/dart-sub004/internal/trace"
)

// run is the analysis worker. It is the only goroutine that executes tasks
// or mutates the cache and the library graph.
func (s *Server) run() {
	defer close(s.done)
	for {
		t, err := s.queue.Pop(s.ctx)
		if err != nil || s.ctx.Err() != nil {
			return
		}
		s.metrics.queueDepth.Set(float64(s.queue.Len()))
		s.execute(t)
		if s.queue.Len() == 0 {
			s.drained()
		}
	}
}

func (s *Server) execute(t task.Task) {
	kind := t.Kind.String()
	sp := trace.Begin(s.tracer, trace.ScopeTask, kind, 0)
	if !t.Source.IsZero() {
		sp.WithExtra("target", t.Source.Path())
	}
	start := time.Now()

	err := s.perform(t.Context(), t)
	outcome := "ok"
	switch {
	case err == nil:
	case isCancellation(err):
		outcome = "canceled"
		trace.Point(s.tracer, trace.KindPoint, trace.ScopeTask, "cancel", t.String(), sp.ID())
	default:
		outcome = "fault"
		s.fault(t, err, sp.ID())
	}
	sp.End(outcome)

	s.metrics.tasks.WithLabelValues(kind, outcome).Inc()
	s.metrics.taskDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	s.completeWaiters(false)
}

// perform dispatches t. Panics and unexpected errors come back as
// *TaskFault; cancellation comes back as the context error.
func (s *Server) perform(ctx context.Context, t task.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TaskFault{Kind: t.Kind, Target: t.Source, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	switch t.Kind {
	case task.KindScan:
		err = s.scan(ctx, t)
	case task.KindAnalyzeLibrary:
		err = s.analyze(ctx, t)
	case task.KindFileChanged:
		err = s.fileChanged(ctx, t)
	case task.KindDiscard:
		err = s.discard(ctx, t)
	case task.KindEverythingChanged:
		err = s.everythingChanged(ctx, t)
	default:
		err = fmt.Errorf("unknown task kind %d", t.Kind)
	}
	if err == nil || isCancellation(err) {
		return err
	}
	var fault *TaskFault
	if !errors.As(err, &fault) {
		err = &TaskFault{Kind: t.Kind, Target: t.Source, Cause: err}
	}
	return err
}

// fault logs a failed task and marks its target so it is not retried until
// it changes.
func (s *Server) fault(t task.Task, err error, span uint64) {
	s.logf("%v", err)
	trace.Point(s.tracer, trace.KindFault, trace.ScopeTask, t.Kind.String(), err.Error(), span)
	switch t.Kind {
	case task.KindScan, task.KindAnalyzeLibrary:
		s.cache.Update(t.Source, func(e *cache.Entry) { e.Failed = true })
		s.failWaiter(t.Source, err)
	}
}

// follow queues next as a follow-up of t.
func (s *Server) follow(t task.Task, next task.Task) {
	if err := s.Submit(t.FollowUp(next)); err != nil && !errors.Is(err, ErrStopped) {
		s.logf("follow-up %s: %v", next, err)
	}
}

// drained runs once each time the queue becomes empty.
func (s *Server) drained() {
	s.metrics.idle.Inc()
	s.metrics.queueDepth.Set(0)
	s.metrics.observeCache(s.cache.Counts())
	s.completeWaiters(true)
	trace.Point(s.tracer, trace.KindPoint, trace.ScopeServer, "idle", "", 0)
	for _, fn := range s.idle.snapshot() {
		s.deliver("idle", fn)
	}
}

// deliver calls a listener, containing its panics.
func (s *Server) deliver(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logf("%s listener panicked: %v", what, r)
		}
	}()
	fn()
}

func (s *Server) emitParsed(ev ParsedEvent) {
	for _, l := range s.analysis.snapshot() {
		s.deliver("parsed", func() { l.Parsed(ev) })
	}
}

func (s *Server) emitResolved(ev ResolvedEvent) {
	for _, l := range s.analysis.snapshot() {
		s.deliver("resolved", func() { l.Resolved(ev) })
	}
}

func (s *Server) emitDiscarded(ev DiscardedEvent) {
	for _, l := range s.analysis.snapshot() {
		s.deliver("discarded", func() { l.Discarded(ev) })
	}
}
