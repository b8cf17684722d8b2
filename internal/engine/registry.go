package engine

import (
	"sort"
	"sync"
)

// Handle identifies a registered listener. The zero Handle is never issued.
type Handle uint64

// registry is a typed listener list. Removal is idempotent.
type registry[T any] struct {
	mu    sync.Mutex
	next  Handle
	items map[Handle]T
}

func (r *registry[T]) add(v T) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items == nil {
		r.items = make(map[Handle]T)
	}
	r.next++
	r.items[r.next] = v
	return r.next
}

func (r *registry[T]) remove(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[h]
	delete(r.items, h)
	return ok
}

// snapshot returns the listeners in registration order.
func (r *registry[T]) snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	handles := make([]Handle, 0, len(r.items))
	for h := range r.items {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	out := make([]T, len(handles))
	for i, h := range handles {
		out[i] = r.items[h]
	}
	return out
}

func (r *registry[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
