// Package workspace tracks libraries and the import graph between them.
package workspace

import (
	"sort"
	"sync"

	"github.com/MarkBennett/dart-sub004/internal/source"
)

// Library is a defining unit plus its parts, with the libraries it
// imports and exports. Import cycles are allowed.
type Library struct {
	Root    source.Source
	Parts   []source.Source
	Imports []source.Source
	Exports []source.Source
}

// Members returns the root followed by the parts.
func (l Library) Members() []source.Source {
	out := make([]source.Source, 0, 1+len(l.Parts))
	out = append(out, l.Root)
	return append(out, l.Parts...)
}

// Dependencies returns imported and exported libraries, once each.
func (l Library) Dependencies() []source.Source {
	seen := make(map[source.Source]struct{}, len(l.Imports)+len(l.Exports))
	var out []source.Source
	for _, list := range [][]source.Source{l.Imports, l.Exports} {
		for _, src := range list {
			if _, dup := seen[src]; dup || src == l.Root {
				continue
			}
			seen[src] = struct{}{}
			out = append(out, src)
		}
	}
	return out
}

type set map[source.Source]struct{}

func (s set) sorted() []source.Source {
	out := make([]source.Source, 0, len(s))
	for src := range s {
		out = append(out, src)
	}
	sortSources(out)
	return out
}

func sortSources(list []source.Source) {
	sort.Slice(list, func(i, j int) bool { return list[i].Path() < list[j].Path() })
}

// Context is the library graph of one workspace. The analysis worker
// writes it; readers may query from any goroutine.
type Context struct {
	mu         sync.RWMutex
	libraries  map[source.Source]Library
	containing map[source.Source]set // member -> libraries
	importers  map[source.Source]set // library -> libraries importing or exporting it
}

func NewContext() *Context {
	return &Context{
		libraries:  make(map[source.Source]Library),
		containing: make(map[source.Source]set),
		importers:  make(map[source.Source]set),
	}
}

// RecordLibrary stores lib, replacing an earlier record with the same root.
func (c *Context) RecordLibrary(lib Library) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unlinkLocked(lib.Root)
	c.libraries[lib.Root] = lib
	for _, m := range lib.Members() {
		add(c.containing, m, lib.Root)
	}
	for _, dep := range lib.Dependencies() {
		add(c.importers, dep, lib.Root)
	}
}

func add(index map[source.Source]set, key, val source.Source) {
	s, ok := index[key]
	if !ok {
		s = make(set)
		index[key] = s
	}
	s[val] = struct{}{}
}

func drop(index map[source.Source]set, key, val source.Source) {
	if s, ok := index[key]; ok {
		delete(s, val)
		if len(s) == 0 {
			delete(index, key)
		}
	}
}

func (c *Context) unlinkLocked(root source.Source) (Library, bool) {
	old, ok := c.libraries[root]
	if !ok {
		return Library{}, false
	}
	for _, m := range old.Members() {
		drop(c.containing, m, root)
	}
	for _, dep := range old.Dependencies() {
		drop(c.importers, dep, root)
	}
	delete(c.libraries, root)
	return old, true
}

// Library returns the record for root.
func (c *Context) Library(root source.Source) (Library, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	lib, ok := c.libraries[root]
	return lib, ok
}

// LibrariesContaining returns the roots of every library with src as a
// member, in path order.
func (c *Context) LibrariesContaining(src source.Source) []source.Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.containing[src].sorted()
}

// Dependents returns roots together with every library that imports or
// exports one of them, directly or transitively, in path order.
func (c *Context) Dependents(roots ...source.Source) []source.Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(set, len(roots))
	stack := append([]source.Source(nil), roots...)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[top]; ok {
			continue
		}
		seen[top] = struct{}{}
		for imp := range c.importers[top] {
			if _, ok := seen[imp]; !ok {
				stack = append(stack, imp)
			}
		}
	}
	return seen.sorted()
}

// Closure returns root and every recorded library reachable from it
// through imports and exports.
func (c *Context) Closure(root source.Source) []source.Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(set)
	stack := []source.Source{root}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[top]; ok {
			continue
		}
		seen[top] = struct{}{}
		stack = append(stack, c.libraries[top].Dependencies()...)
	}
	return seen.sorted()
}

// DiscardLibrary forgets root and returns its last record.
func (c *Context) DiscardLibrary(root source.Source) (Library, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unlinkLocked(root)
}

// DiscardAll forgets every library and returns them in path order.
func (c *Context) DiscardAll() []Library {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Library, 0, len(c.libraries))
	for _, lib := range c.libraries {
		out = append(out, lib)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Root.Path() < out[j].Root.Path() })
	c.libraries = make(map[source.Source]Library)
	c.containing = make(map[source.Source]set)
	c.importers = make(map[source.Source]set)
	return out
}

// Libraries returns every recorded root in path order.
func (c *Context) Libraries() []source.Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]source.Source, 0, len(c.libraries))
	for root := range c.libraries {
		out = append(out, root)
	}
	sortSources(out)
	return out
}

func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.libraries)
}
