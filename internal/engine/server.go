// Package engine runs incremental analysis of a workspace. A Server owns
// the cache, the library graph and a task queue drained by one worker
// goroutine; clients submit changes and listen for results.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/MarkBennett/dart-sub004/internal/cache"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/task"
	"github.com/MarkBennett/dart-sub004/internal/trace"
	"github.com/MarkBennett/dart-sub004/internal/workspace"
)

type lifecycle uint8

const (
	stateNew lifecycle = iota
	stateRunning
	stateStopped
)

// Server is one analysis engine. Servers share no state, so any number
// may run in one process.
type Server struct {
	id      string
	opts    Options
	tracer  trace.Tracer
	cache   *cache.Cache
	context *workspace.Context
	queue   *task.Queue
	errors  *errorIndex
	metrics *metrics

	analysis registry[AnalysisListener]
	idle     registry[func()]

	flight  singleflight.Group
	waitMu  sync.Mutex
	waiters map[source.Source][]chan waitResult

	pinMu  sync.RWMutex
	pinned map[source.Source]int
	active map[source.Source]bool

	lifeMu sync.Mutex
	state  lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a server. It does no work until Start.
func New(opts Options) *Server {
	opts = opts.withDefaults()
	id := uuid.NewString()[:12]
	s := &Server{
		id:      id,
		opts:    opts,
		tracer:  trace.ForEngine(opts.Tracer, id),
		context: workspace.NewContext(),
		queue:   task.NewQueue(),
		errors:  newErrorIndex(),
		metrics: newMetrics(id),
		waiters: make(map[source.Source][]chan waitResult),
		pinned:  make(map[source.Source]int),
		active:  make(map[source.Source]bool),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cache = cache.New(
		cache.WithCapacity(opts.CacheCapacity),
		cache.WithPinned(s.isPinned),
		cache.WithEvictHook(func(lib source.Source, members []source.Source) {
			s.metrics.evictions.Inc()
			s.errors.discard(lib, members)
			trace.Point(s.tracer, trace.KindPoint, trace.ScopeLibrary, "evict", lib.Path(), 0)
		}),
	)
	return s
}

// ID distinguishes servers in logs and traces.
func (s *Server) ID() string { return s.id }

// Registry exposes the server's metrics.
func (s *Server) Registry() *prometheus.Registry { return s.metrics.registry }

// Cache gives read access to committed analysis state.
func (s *Server) Cache() *cache.Cache { return s.cache }

// Context is the library graph of the workspace.
func (s *Server) Context() *workspace.Context { return s.context }

// Start launches the analysis worker. Tasks submitted before Start stay
// queued until then. The worker stops when ctx is done or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	switch s.state {
	case stateRunning:
		return nil
	case stateStopped:
		return ErrStopped
	}
	s.state = stateRunning
	s.done = make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.cancel()
		case <-s.ctx.Done():
		}
	}()
	go s.run()
	trace.Point(s.tracer, trace.KindPoint, trace.ScopeServer, "start", "", 0)
	s.logf("started")
	return nil
}

// Stop terminates the worker, waits for the task in flight, and clears the
// cache, context and error index. Stop is idempotent.
func (s *Server) Stop() {
	s.lifeMu.Lock()
	prev := s.state
	s.state = stateStopped
	done := s.done
	s.lifeMu.Unlock()
	if prev == stateStopped {
		return
	}
	s.cancel()
	s.queue.Close()
	if done != nil {
		<-done
	}
	s.queue.Clear()
	s.cache.Clear()
	s.context.DiscardAll()
	s.errors.clear()
	s.failWaiters(ErrStopped)
	trace.Point(s.tracer, trace.KindPoint, trace.ScopeServer, "stop", "", 0)
	_ = s.tracer.Flush()
	s.logf("stopped")
}

func (s *Server) stopped() bool {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	return s.state == stateStopped
}

func (s *Server) running() bool {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	return s.state == stateRunning
}

// Submit queues t. Follow-up tasks inherit t's context.
func (s *Server) Submit(t task.Task) error {
	if s.stopped() {
		return ErrStopped
	}
	if t.Ctx == nil {
		t.Ctx = s.ctx
	}
	added, removed := s.queue.Add(t)
	if len(removed) > 0 {
		s.metrics.coalesced.Add(float64(len(removed)))
		trace.Point(s.tracer, trace.KindPoint, trace.ScopeTask, "coalesce",
			fmt.Sprintf("%s dropped %d", t, len(removed)), 0)
	}
	if !added && !s.stopped() {
		trace.Point(s.tracer, trace.KindPoint, trace.ScopeTask, "duplicate", t.String(), 0)
	}
	s.metrics.queueDepth.Set(float64(s.queue.Len()))
	return nil
}

// FileChanged reports that src was created, edited or deleted.
func (s *Server) FileChanged(src source.Source) error {
	return s.Submit(task.FileChanged(s.ctx, src))
}

// Discard drops library lib and everything cached for its members.
func (s *Server) Discard(lib source.Source) error {
	members := []source.Source{lib}
	if rec, ok := s.context.Library(lib); ok {
		members = rec.Members()
	}
	return s.Submit(task.Discard(s.ctx, lib, members))
}

// QueueAnalyzeContext forgets everything and re-analyses the workspace.
func (s *Server) QueueAnalyzeContext() error {
	return s.Submit(task.EverythingChanged(s.ctx))
}

// Analyze queues analysis of the library defined by (or containing) src.
func (s *Server) Analyze(src source.Source) error {
	return s.Submit(task.AnalyzeLibrary(s.ctx, src))
}

// AddAnalysisListener registers l; events are delivered on the worker.
func (s *Server) AddAnalysisListener(l AnalysisListener) Handle { return s.analysis.add(l) }

// RemoveAnalysisListener unregisters h. It reports whether h was
// registered; removing twice is harmless.
func (s *Server) RemoveAnalysisListener(h Handle) bool { return s.analysis.remove(h) }

// AddIdleListener registers fn, called once each time the queue drains.
func (s *Server) AddIdleListener(fn func()) Handle { return s.idle.add(fn) }

func (s *Server) RemoveIdleListener(h Handle) bool { return s.idle.remove(h) }

// Errors returns the diagnostics currently recorded for src.
func (s *Server) Errors(src source.Source) []AnalysisError {
	return s.errors.get(src)
}

// ErrorFiles lists every source with recorded diagnostics.
func (s *Server) ErrorFiles() []source.Source {
	return s.errors.files()
}

// State returns the cache state of src.
func (s *Server) State(src source.Source) cache.State {
	return s.cache.State(src)
}

// QueueLen reports pending tasks.
func (s *Server) QueueLen() int { return s.queue.Len() }

// Pin keeps the libraries containing src from being evicted. Pins nest.
func (s *Server) Pin(src source.Source) {
	s.pinMu.Lock()
	s.pinned[src]++
	s.pinMu.Unlock()
}

func (s *Server) Unpin(src source.Source) {
	s.pinMu.Lock()
	defer s.pinMu.Unlock()
	if s.pinned[src] <= 1 {
		delete(s.pinned, src)
		return
	}
	s.pinned[src]--
}

func (s *Server) isPinned(lib source.Source) bool {
	members := []source.Source{lib}
	if rec, ok := s.context.Library(lib); ok {
		members = rec.Members()
	}
	s.pinMu.RLock()
	defer s.pinMu.RUnlock()
	if s.active[lib] {
		return true
	}
	for _, m := range members {
		if s.pinned[m] > 0 {
			return true
		}
	}
	return false
}

// hold pins the libraries of the closure being committed, so resolving a
// closure larger than the cache capacity cannot evict its own members.
func (s *Server) hold(libs []source.Source) func() {
	s.pinMu.Lock()
	for _, lib := range libs {
		s.active[lib] = true
	}
	s.pinMu.Unlock()
	return func() {
		s.pinMu.Lock()
		clear(s.active)
		s.pinMu.Unlock()
	}
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(s.opts.Log, "engine %s: "+format+"\n", append([]any{s.id}, args...)...)
}
