package cache

import (
	"container/list"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/MarkBennett/dart-sub004/internal/source"
)

// Cache maps sources to entries. The analysis worker is the only writer;
// other goroutines read copies through Get, Peek and Snapshot.
type Cache struct {
	mu      sync.RWMutex
	entries map[source.Source]*Entry

	// LRU over resolved libraries, only used when capacity > 0.
	capacity int
	libs     map[source.Source]*list.Element
	order    *list.List // front = most recent
	pinned   func(lib source.Source) bool
	onEvict  func(lib source.Source, members []source.Source)

	evictions atomic.Int64
}

type Option func(*Cache)

// WithCapacity bounds the number of resolved libraries kept. When more are
// resolved, the least recently used unpinned library loses all its
// entries. n <= 0 keeps everything.
func WithCapacity(n int) Option {
	return func(c *Cache) { c.capacity = n }
}

// WithPinned marks libraries that must never be evicted.
func WithPinned(fn func(lib source.Source) bool) Option {
	return func(c *Cache) { c.pinned = fn }
}

// WithEvictHook is called, under the cache lock, for each eviction.
func WithEvictHook(fn func(lib source.Source, members []source.Source)) Option {
	return func(c *Cache) { c.onEvict = fn }
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[source.Source]*Entry),
		libs:    make(map[source.Source]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the entry for src, creating an UNKNOWN entry when
// absent.
func (c *Cache) Get(src source.Source) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.entry(src)
}

// Peek returns a copy of the entry without creating one.
func (c *Cache) Peek(src source.Source) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[src]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// State is Peek(src).State, UNKNOWN for absent entries.
func (c *Cache) State(src source.Source) State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[src]; ok {
		return e.State
	}
	return Unknown
}

// Update mutates the entry for src under the write lock.
func (c *Cache) Update(src source.Source, fn func(e *Entry)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.entry(src))
}

func (c *Cache) entry(src source.Source) *Entry {
	e, ok := c.entries[src]
	if !ok {
		e = &Entry{Source: src}
		c.entries[src] = e
	}
	return e
}

// Invalidate resets src to UNKNOWN, keeping the previous artifacts as
// history. It reports whether the entry existed.
func (c *Cache) Invalidate(src source.Source) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[src]
	if !ok {
		return false
	}
	e.invalidate()
	c.forgetLibrary(src)
	return true
}

// Remove deletes the entry for src, history included.
func (c *Cache) Remove(src source.Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, src)
	c.forgetLibrary(src)
}

// Clear drops everything.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[source.Source]*Entry)
	c.libs = make(map[source.Source]*list.Element)
	c.order.Init()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sources returns all cached sources in path order.
func (c *Cache) Sources() []source.Source {
	c.mu.RLock()
	out := make([]source.Source, 0, len(c.entries))
	for src := range c.entries {
		out = append(out, src)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out
}

// Counts returns the number of entries per state.
func (c *Cache) Counts() map[State]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[State]int, 4)
	for _, e := range c.entries {
		out[e.State]++
	}
	return out
}

// Evictions returns how many libraries were evicted so far.
func (c *Cache) Evictions() int64 { return c.evictions.Load() }
