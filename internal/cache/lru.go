package cache

import (
	"container/list"

	"github.com/MarkBennett/dart-sub004/internal/source"
)

type lruEntry struct {
	lib     source.Source
	members []source.Source
}

// Touch records a use of a resolved library. With a capacity set, the least
// recently used unpinned libraries beyond it are evicted. It returns the
// evicted library roots.
func (c *Cache) Touch(lib source.Source, members []source.Source) []source.Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capacity <= 0 {
		return nil
	}
	if elem, ok := c.libs[lib]; ok {
		elem.Value.(*lruEntry).members = members
		c.order.MoveToFront(elem)
	} else {
		c.libs[lib] = c.order.PushFront(&lruEntry{lib: lib, members: members})
	}
	var evicted []source.Source
	// обходим с хвоста, закреплённые библиотеки пропускаем
	for elem := c.order.Back(); elem != nil && c.order.Len() > c.capacity; {
		prev := elem.Prev()
		le := elem.Value.(*lruEntry)
		if le.lib != lib && (c.pinned == nil || !c.pinned(le.lib)) {
			c.evictLocked(elem)
			evicted = append(evicted, le.lib)
		}
		elem = prev
	}
	return evicted
}

func (c *Cache) evictLocked(elem *list.Element) {
	le := c.order.Remove(elem).(*lruEntry)
	delete(c.libs, le.lib)
	for _, m := range le.members {
		if e, ok := c.entries[m]; ok && e.Library == le.lib {
			delete(c.entries, m)
		}
	}
	delete(c.entries, le.lib)
	c.evictions.Add(1)
	if c.onEvict != nil {
		c.onEvict(le.lib, le.members)
	}
}

// forgetLibrary drops src from the LRU when it was a library root.
func (c *Cache) forgetLibrary(src source.Source) {
	if elem, ok := c.libs[src]; ok {
		c.order.Remove(elem)
		delete(c.libs, src)
	}
}
