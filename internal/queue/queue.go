package queue

import (
	"sync"
)

// Ring is a generic thread-safe bounded FIFO. Pushing onto a full ring
// evicts the oldest item.
type Ring[T any] struct {
	mu    sync.Mutex
	items []T
	head  int // index of the oldest item
	size  int
}

// NewRing creates an empty ring holding at most capacity items.
// A capacity below 1 is raised to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{
		items: make([]T, capacity),
	}
}

// Push appends items, evicting the oldest ones once the ring is full.
func (r *Ring[T]) Push(items ...T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		if r.size < len(r.items) {
			r.items[(r.head+r.size)%len(r.items)] = item
			r.size++
			continue
		}
		r.items[r.head] = item
		r.head = (r.head + 1) % len(r.items)
	}
}

// Len returns the number of items in the ring.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Items returns a copy of the contents, oldest first.
func (r *Ring[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		result[i] = r.items[(r.head+i)%len(r.items)]
	}
	return result
}
