package engine

import (
	"context"

	"github.com/MarkBennett/dart-sub004/internal/cache"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/symbols"
	"github.com/MarkBennett/dart-sub004/internal/task"
)

// Result is the up-to-date analysis of one source.
type Result struct {
	Source  source.Source
	Library source.Source
	Bound   *symbols.Library
	State   cache.State
	Missing bool
	Errors  []AnalysisError
}

type waitResult struct {
	res Result
	err error
}

// AnalyzeNow blocks until src is resolved and returns its analysis. The
// work is queued ahead of normal tasks. Cancelling ctx abandons the wait
// only: the queued analysis still runs and fills the cache. Concurrent
// calls for the same source share one wait.
func (s *Server) AnalyzeNow(ctx context.Context, src source.Source) (Result, error) {
	if s.stopped() {
		return Result{}, ErrStopped
	}
	if !s.running() {
		return Result{}, ErrNotStarted
	}
	if res, ok := s.resolved(src); ok && s.current(ctx, src) {
		return res, nil
	}
	ch := s.flight.DoChan(src.Path(), func() (any, error) {
		return s.await(src)
	})
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Result{}, r.Err
		}
		return r.Val.(Result), nil
	}
}

func (s *Server) await(src source.Source) (Result, error) {
	s.Pin(src)
	defer s.Unpin(src)

	ch := make(chan waitResult, 1)
	s.waitMu.Lock()
	s.waiters[src] = append(s.waiters[src], ch)
	err := s.Submit(task.AnalyzeLibrary(s.ctx, src).WithPriority(true))
	s.waitMu.Unlock()
	if err != nil {
		s.dropWaiter(src, ch)
		return Result{}, err
	}
	select {
	case r := <-ch:
		return r.res, r.err
	case <-s.ctx.Done():
		s.dropWaiter(src, ch)
		return Result{}, ErrStopped
	}
}

func (s *Server) dropWaiter(src source.Source, ch chan waitResult) {
	s.waitMu.Lock()
	defer s.waitMu.Unlock()
	list := s.waiters[src]
	for i, c := range list {
		if c == ch {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(s.waiters, src)
		return
	}
	s.waiters[src] = list
}

// resolved reads the committed analysis of src.
func (s *Server) resolved(src source.Source) (Result, bool) {
	e, ok := s.cache.Peek(src)
	if !ok || e.State != cache.Resolved {
		return Result{}, false
	}
	res := Result{
		Source:  src,
		Library: e.Library,
		State:   e.State,
		Missing: e.Missing,
		Errors:  s.errors.get(src),
	}
	if root, ok := s.cache.Peek(e.Library); ok {
		res.Bound = root.Bound
	}
	return res, true
}

// current reports whether the cached entry of src still matches the
// provider's stamp.
func (s *Server) current(ctx context.Context, src source.Source) bool {
	e, ok := s.cache.Peek(src)
	if !ok {
		return false
	}
	stamp, err := source.StampOf(ctx, s.opts.Provider, src)
	if err != nil {
		return e.Missing
	}
	return !e.Missing && stamp == e.Stamp
}

// completeWaiters answers the waiters whose sources are resolved against
// the provider's current content. Once the queue has drained, a resolved
// source is answered as of its last analysis and the rest fail.
func (s *Server) completeWaiters(final bool) {
	s.waitMu.Lock()
	defer s.waitMu.Unlock()
	if len(s.waiters) == 0 {
		return
	}
	final = final && s.queue.Len() == 0
	for src, list := range s.waiters {
		res, ok := s.resolved(src)
		if !final && (!ok || !s.current(s.ctx, src)) {
			continue
		}
		r := waitResult{res: res}
		if !ok {
			r.err = ErrNotResolved
		}
		for _, ch := range list {
			ch <- r
		}
		delete(s.waiters, src)
	}
}

func (s *Server) failWaiter(src source.Source, err error) {
	s.waitMu.Lock()
	defer s.waitMu.Unlock()
	for _, ch := range s.waiters[src] {
		ch <- waitResult{err: err}
	}
	delete(s.waiters, src)
}

func (s *Server) failWaiters(err error) {
	s.waitMu.Lock()
	defer s.waitMu.Unlock()
	for src, list := range s.waiters {
		for _, ch := range list {
			ch <- waitResult{err: err}
		}
		delete(s.waiters, src)
	}
}
