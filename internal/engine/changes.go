package engine

import (
	"context"
	"strings"

	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/task"
	"github.com/MarkBennett/dart-sub004/internal/trace"
)

// members returns the recorded members of lib, or lib alone.
func (s *Server) members(lib source.Source) []source.Source {
	if rec, ok := s.context.Library(lib); ok {
		return rec.Members()
	}
	return []source.Source{lib}
}

// fileChanged invalidates src and every library that reaches it, then
// queues their analysis. A deleted library nobody else uses is discarded.
func (s *Server) fileChanged(ctx context.Context, t task.Task) error {
	src := t.Source
	libs := s.context.LibrariesContaining(src)
	if len(libs) == 0 {
		libs = []source.Source{src}
	}
	affected := s.context.Dependents(libs...)

	s.cache.Invalidate(src)
	for _, lib := range affected {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, m := range s.members(lib) {
			s.cache.Invalidate(m)
		}
	}
	trace.Point(s.tracer, trace.KindPoint, trace.ScopeSource, "invalidate",
		src.Path()+" -> "+joinPaths(affected), 0)

	if !s.opts.Provider.Exists(src) && len(affected) == 1 && affected[0] == src {
		if _, isRoot := s.context.Library(src); isRoot {
			s.follow(t, task.Discard(nil, src, s.members(src)))
		} else {
			s.cache.Remove(src)
			s.errors.discard(src, affected)
		}
		return nil
	}
	for _, lib := range affected {
		s.follow(t, task.AnalyzeLibrary(nil, lib))
	}
	return nil
}

// discard forgets a library and everything cached for its members.
func (s *Server) discard(ctx context.Context, t task.Task) error {
	lib := t.Source
	members := append([]source.Source(nil), t.Members...)
	if rec, ok := s.context.DiscardLibrary(lib); ok {
		for _, m := range rec.Members() {
			if !containsSource(members, m) {
				members = append(members, m)
			}
		}
	}
	if !containsSource(members, lib) {
		members = append([]source.Source{lib}, members...)
	}
	for _, m := range members {
		s.cache.Remove(m)
	}
	s.errors.discard(lib, members)
	s.emitDiscarded(DiscardedEvent{Library: lib, Sources: members})
	return nil
}

// everythingChanged drops all analysis and queues the workspace roots,
// except libraries whose discard is still queued.
func (s *Server) everythingChanged(ctx context.Context, t task.Task) error {
	var roots []source.Source
	if s.opts.Roots != nil {
		found, err := s.opts.Roots(ctx)
		if isCancellation(err) {
			return err
		}
		if err != nil {
			s.logf("listing workspace libraries: %v", err)
		}
		roots = found
	}

	// библиотеки с ожидающим Discard не возвращаются в очередь
	dropping := make(map[source.Source]bool)
	for _, p := range s.queue.Pending() {
		if p.Kind == task.KindDiscard {
			dropping[p.Source] = true
		}
	}

	discarded := s.context.DiscardAll()
	s.cache.Clear()
	s.errors.clear()
	for _, lib := range discarded {
		s.emitDiscarded(DiscardedEvent{Library: lib.Root, Sources: lib.Members()})
		if !containsSource(roots, lib.Root) && s.opts.Provider.Exists(lib.Root) {
			roots = append(roots, lib.Root)
		}
	}
	for _, root := range roots {
		if dropping[root] {
			continue
		}
		next := t.FollowUp(task.AnalyzeLibrary(nil, root)).WithPriority(false)
		if err := s.Submit(next); err != nil {
			return nil
		}
	}
	return nil
}

func containsSource(list []source.Source, src source.Source) bool {
	for _, have := range list {
		if have == src {
			return true
		}
	}
	return false
}

func joinPaths(list []source.Source) string {
	paths := make([]string, len(list))
	for i, src := range list {
		paths[i] = src.Path()
	}
	return strings.Join(paths, ",")
}
