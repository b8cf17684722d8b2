package task

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Pop once the queue is closed and drained.
var ErrClosed = errors.New("task queue closed")

// Queue orders tasks priority first, then FIFO. Adding a task removes
// queued tasks it supersedes, and drops it when an equivalent task is
// already waiting.
type Queue struct {
	mu     sync.Mutex
	high   []Task
	low    []Task
	closed bool
	wake   chan struct{}
}

func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Add queues t. It reports whether t was queued and which pending tasks
// were dropped as redundant.
func (q *Queue) Add(t Task) (bool, []Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false, nil
	}
	var removed []Task
	keep := func(list []Task) []Task {
		out := list[:0]
		for _, old := range list {
			if Supersedes(t, old) {
				removed = append(removed, old)
				continue
			}
			out = append(out, old)
		}
		return out
	}
	q.high = keep(q.high)
	q.low = keep(q.low)

	for _, list := range [][]Task{q.high, q.low} {
		for _, old := range list {
			if !duplicates(t, old) {
				continue
			}
			if !t.IsPriority() || old.IsPriority() {
				return false, removed
			}
		}
	}
	if t.IsPriority() {
		// a priority duplicate replaces a waiting normal one
		q.low = q.removeLocked(q.low, func(old Task) bool { return duplicates(t, old) }, &removed)
	}

	if t.IsPriority() {
		q.high = append(q.high, t)
	} else {
		q.low = append(q.low, t)
	}
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true, removed
}

func (q *Queue) removeLocked(list []Task, pred func(Task) bool, removed *[]Task) []Task {
	out := list[:0]
	for _, t := range list {
		if pred(t) {
			*removed = append(*removed, t)
			continue
		}
		out = append(out, t)
	}
	return out
}

// TryPop returns the next task without blocking.
func (q *Queue) TryPop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

func (q *Queue) popLocked() (Task, bool) {
	switch {
	case len(q.high) > 0:
		t := q.high[0]
		q.high[0] = Task{}
		q.high = q.high[1:]
		return t, true
	case len(q.low) > 0:
		t := q.low[0]
		q.low[0] = Task{}
		q.low = q.low[1:]
		return t, true
	}
	return Task{}, false
}

// Pop blocks until a task is available, ctx is done, or the queue is closed
// and empty.
func (q *Queue) Pop(ctx context.Context) (Task, error) {
	for {
		q.mu.Lock()
		t, ok := q.popLocked()
		closed := q.closed
		q.mu.Unlock()
		if ok {
			return t, nil
		}
		if closed {
			return Task{}, ErrClosed
		}
		select {
		case <-q.wake:
		case <-ctx.Done():
			return Task{}, ctx.Err()
		}
	}
}

// Remove drops every pending task matching pred and returns them.
func (q *Queue) Remove(pred func(Task) bool) []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	var removed []Task
	q.high = q.removeLocked(q.high, pred, &removed)
	q.low = q.removeLocked(q.low, pred, &removed)
	return removed
}

// Clear drops everything pending.
func (q *Queue) Clear() []Task {
	return q.Remove(func(Task) bool { return true })
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.high) + len(q.low)
}

// Pending returns the queued tasks in pop order.
func (q *Queue) Pending() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Task, 0, len(q.high)+len(q.low))
	out = append(out, q.high...)
	return append(out, q.low...)
}

// Close rejects further Adds and wakes a blocked Pop.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
