// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package cache

// Ring is a fixed-capacity FIFO buffer. Once full, each Push evicts exactly
// the oldest element, so Len never exceeds Cap.
//
// Ring is not safe for concurrent use; owners guard it with their own lock.
//
// Complexity:
//   - Push: O(1)
//   - Last: O(n) in the number of elements returned
type Ring[T any] struct {
	buf   []T
	head  int // index of the oldest element
	count int
}

// NewRing creates a ring holding at most capacity elements.
// A non-positive capacity is treated as 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest element when the ring is full.
// It returns the evicted element and true when an eviction happened.
func (r *Ring[T]) Push(v T) (evicted T, ok bool) {
	capacity := len(r.buf)
	if r.count < capacity {
		r.buf[(r.head+r.count)%capacity] = v
		r.count++
		return evicted, false
	}
	evicted = r.buf[r.head]
	r.buf[r.head] = v
	r.head = (r.head + 1) % capacity
	return evicted, true
}

// Len returns the number of stored elements.
func (r *Ring[T]) Len() int {
	return r.count
}

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Last returns up to n of the newest elements in chronological order
// (oldest of the selection first). n <= 0 returns nothing.
func (r *Ring[T]) Last(n int) []T {
	if n <= 0 || r.count == 0 {
		return []T{}
	}
	if n > r.count {
		n = r.count
	}
	out := make([]T, n)
	start := r.count - n
	for i := 0; i < n; i++ {
		out[i] = r.buf[(r.head+start+i)%len(r.buf)]
	}
	return out
}

// All returns every element in chronological order.
func (r *Ring[T]) All() []T {
	return r.Last(r.count)
}
