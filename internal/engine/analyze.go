package engine

import (
	"context"

	"github.com/MarkBennett/dart-sub004/internal/cache"
	"github.com/MarkBennett/dart-sub004/internal/source"
	"github.com/MarkBennett/dart-sub004/internal/symbols"
	"github.com/MarkBennett/dart-sub004/internal/task"
	"github.com/MarkBennett/dart-sub004/internal/trace"
	"github.com/MarkBennett/dart-sub004/internal/workspace"
)

// closure is the library being analysed plus every library it reaches
// through imports and exports, with their parts.
type closure struct {
	roots   []source.Source
	members map[source.Source][]source.Source
	deps    map[source.Source][]source.Source
	entries map[source.Source]cache.Entry
	pending []source.Source // sources still to be scanned
}

func (c *closure) units() symbols.Units {
	out := make(symbols.Units, len(c.entries))
	for src, e := range c.entries {
		if e.Missing || e.State < cache.Parsed {
			out[src] = nil
			continue
		}
		out[src] = e.Unit
	}
	return out
}

func (c *closure) resolved(lib source.Source) bool {
	for _, m := range c.members[lib] {
		if c.entries[m].State != cache.Resolved {
			return false
		}
	}
	return true
}

// stale reports whether a strongly connected group of libraries must be
// resolved again: one of them is not resolved, or depends on a library
// resolved earlier in this pass.
func (c *closure) stale(scc []source.Source, dirty map[source.Source]bool) bool {
	for _, root := range scc {
		if !c.resolved(root) {
			return true
		}
		for _, dep := range c.deps[root] {
			if dirty[dep] {
				return true
			}
		}
	}
	return false
}

// broken reports a member that faulted before it could be parsed.
func (c *closure) broken(lib source.Source) (source.Source, bool) {
	for _, m := range c.members[lib] {
		if e := c.entries[m]; e.Failed && e.State < cache.Parsed {
			return m, true
		}
	}
	return source.Source{}, false
}

// staged is a resolved library waiting to be committed.
type staged struct {
	root    source.Source
	members []source.Source
	bound   *symbols.Library
	byFile  map[source.Source][]AnalysisError
	errors  []AnalysisError
}

// analyze resolves the library rooted at t.Source and every library it
// depends on. Unparsed sources are scanned first, by follow-up tasks
// queued ahead of a retry of t.
func (s *Server) analyze(ctx context.Context, t task.Task) error {
	lib := t.Source
	if owner, ok := s.ownerOf(lib); ok {
		s.follow(t, task.AnalyzeLibrary(nil, owner))
		return nil
	}

	cl, err := s.walk(ctx, lib)
	if err != nil {
		return err
	}
	if len(cl.pending) > 0 {
		for _, src := range cl.pending {
			s.follow(t, task.Scan(nil, src))
		}
		s.follow(t, task.AnalyzeLibrary(nil, lib))
		return nil
	}

	units := cl.units()
	dirty := make(map[source.Source]bool)
	var out []staged
	for _, scc := range workspace.ResolveOrder(cl.deps) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !cl.stale(scc, dirty) {
			continue
		}
		for _, root := range scc {
			if m, ok := cl.broken(root); ok {
				s.logf("%s: skipped, %s failed earlier", root, m)
				continue
			}
			dirty[root] = true
			l := newErrorListener(s.opts.Root)
			bound := s.opts.Frontend.Resolve(root, units, l)
			out = append(out, staged{
				root:    root,
				members: cl.members[root],
				bound:   bound,
				byFile:  l.byFile(),
				errors:  l.Errors(),
			})
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.commit(cl, out)
	return nil
}

// commit publishes staged libraries in resolution order.
func (s *Server) commit(cl *closure, out []staged) {
	release := s.hold(cl.roots)
	defer release()
	for _, st := range out {
		for _, m := range st.members {
			s.cache.Update(m, func(e *cache.Entry) {
				e.State = cache.Resolved
				e.Library = st.root
				e.ResolveErrors = st.byFile[m]
				if m == st.root {
					e.Bound = st.bound
				}
			})
		}
		rec := workspace.Library{Root: st.root, Parts: st.members[1:]}
		if st.bound != nil {
			rec.Imports = st.bound.Imports
			rec.Exports = st.bound.Exports
		}
		s.context.RecordLibrary(rec)
		s.errors.setLibrary(st.root, st.byFile)
		s.cache.Touch(st.root, st.members)
		trace.Point(s.tracer, trace.KindPoint, trace.ScopeLibrary, "resolved", st.root.Path(), 0)
		s.emitResolved(ResolvedEvent{
			Library: st.root,
			Sources: st.members,
			Bound:   st.bound,
			Errors:  st.errors,
		})
	}
	for _, root := range cl.roots {
		s.cache.Touch(root, cl.members[root])
	}
}

// ownerOf finds the library that src is a part of, when src is a parsed
// part.
func (s *Server) ownerOf(src source.Source) (source.Source, bool) {
	e, ok := s.cache.Peek(src)
	if !ok || e.Unit == nil {
		return source.Source{}, false
	}
	partOf, isPart := e.Unit.PartOf()
	if !isPart {
		return source.Source{}, false
	}
	for _, lib := range s.context.LibrariesContaining(src) {
		if lib != src {
			return lib, true
		}
	}
	if partOf.URI == "" {
		return source.Source{}, false
	}
	owner, ok := src.Resolve(partOf.URI)
	if !ok || owner.IsExternal() || owner == src {
		return source.Source{}, false
	}
	return owner, true
}

// walk collects the closure of lib, invalidating sources whose content
// changed since they were read. Cancellation is checked before each step.
func (s *Server) walk(ctx context.Context, lib source.Source) (*closure, error) {
	cl := &closure{
		members: make(map[source.Source][]source.Source),
		deps:    make(map[source.Source][]source.Source),
		entries: make(map[source.Source]cache.Entry),
	}
	visit := func(src source.Source) (cache.Entry, error) {
		if e, ok := cl.entries[src]; ok {
			return e, nil
		}
		e, err := s.fresh(ctx, src)
		if err != nil {
			return e, err
		}
		cl.entries[src] = e
		if e.State < cache.Parsed && !e.Failed {
			cl.pending = append(cl.pending, src)
		}
		return e, nil
	}

	queue := []source.Source{lib}
	seen := map[source.Source]bool{lib: true}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		root := queue[0]
		queue = queue[1:]
		cl.roots = append(cl.roots, root)

		e, err := visit(root)
		if err != nil {
			return nil, err
		}
		members := []source.Source{root}
		links := symbols.LinksOf(e.Unit)
		for _, part := range links.Parts {
			if part == root {
				continue
			}
			pe, err := visit(part)
			if err != nil {
				return nil, err
			}
			// файл без "part of" остаётся самостоятельной библиотекой
			if pe.Unit != nil && !pe.Missing && !pe.Unit.IsPart() {
				continue
			}
			members = append(members, part)
		}
		cl.members[root] = members
		deps := links.Libraries()
		cl.deps[root] = deps
		for _, dep := range deps {
			if !seen[dep] {
				seen[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return cl, nil
}

// fresh returns the entry of src, first invalidating it when the provider
// reports a different stamp than the one it was read with.
func (s *Server) fresh(ctx context.Context, src source.Source) (cache.Entry, error) {
	e := s.cache.Get(src)
	if e.State < cache.Scanned {
		return e, nil
	}
	stamp, err := source.StampOf(ctx, s.opts.Provider, src)
	if isCancellation(err) {
		return e, err
	}
	var stale bool
	switch {
	case err != nil:
		stale = !e.Missing
	case e.Missing:
		stale = true
	default:
		stale = stamp != e.Stamp
	}
	if !stale {
		return e, nil
	}
	trace.Point(s.tracer, trace.KindPoint, trace.ScopeSource, "stale", src.Path(), 0)
	s.cache.Invalidate(src)
	return s.cache.Get(src), nil
}
