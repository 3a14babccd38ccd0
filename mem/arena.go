// Package mem provides allocation helpers for event storage and draw state reuse.
package mem

import (
	"gioui.org/op"
)

const arenaBucketSize = 64

// Arena is an append-only sequence that grows one bucket at a time. Elements never move once appended, so pointers
// and indices into an arena stay valid for the arena's lifetime, even while more elements are appended.
type Arena[T any] struct {
	n       int
	buckets [][]T
}

// Grow grows the arena by one and returns a pointer to the new element, without overwriting it.
func (a *Arena[T]) Grow() *T {
	b, _ := a.index(a.n)
	if b >= len(a.buckets) {
		a.buckets = append(a.buckets, make([]T, 0, arenaBucketSize))
	}
	a.buckets[b] = a.buckets[b][:len(a.buckets[b])+1]
	ptr := &a.buckets[b][len(a.buckets[b])-1]
	a.n++
	return ptr
}

// Append appends v and returns the index of the new element.
func (a *Arena[T]) Append(v T) int {
	*a.Grow() = v
	return a.n - 1
}

func (a *Arena[T]) index(i int) (int, int) {
	return int(uint(i) / arenaBucketSize), int(uint(i) % arenaBucketSize)
}

func (a *Arena[T]) Ptr(i int) *T {
	b, j := a.index(i)
	return &a.buckets[b][j]
}

func (a *Arena[T]) Get(i int) T {
	b, j := a.index(i)
	return a.buckets[b][j]
}

// Last returns a pointer to the most recently appended element, or nil if the arena is empty.
func (a *Arena[T]) Last() *T {
	if a.n == 0 {
		return nil
	}
	return a.Ptr(a.n - 1)
}

func (a *Arena[T]) Len() int {
	return a.n
}

// Search returns the smallest index i in [0, Len()) at which f(element) is true, assuming that f is false for some
// prefix of the arena and true for the remainder. It returns Len() if there is no such index.
func (a *Arena[T]) Search(f func(*T) bool) int {
	lo, hi := 0, a.n
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if !f(a.Ptr(mid)) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Reset empties the arena, keeping its buckets for reuse. Pointers obtained before the reset must not be used
// afterwards.
func (a *Arena[T]) Reset() {
	for i := range a.buckets {
		clear(a.buckets[i])
		a.buckets[i] = a.buckets[i][:0]
	}
	a.n = 0
}

type ReusableOps struct {
	ops op.Ops
}

// Get resets and returns an op.Ops
func (rops *ReusableOps) Get() *op.Ops {
	rops.ops.Reset()
	return &rops.ops
}

// AllocationCache is a trivial cache of allocations. Put appends a value to a slice and Get pops a value from the
// slice, or allocates a new value.
type AllocationCache[T any] struct {
	items []*T
}

func (c *AllocationCache[T]) Put(x *T) {
	c.items = append(c.items, x)
}

func (c *AllocationCache[T]) Get() *T {
	if len(c.items) == 0 {
		return new(T)
	}
	item := c.items[len(c.items)-1]
	c.items = c.items[:len(c.items)-1]
	return item
}

func (c *AllocationCache[T]) Len() int { return len(c.items) }

// EnsureLen returns s with a length of at least n, appending zero values as needed.
func EnsureLen[S ~[]E, E any](s S, n int) S {
	if len(s) >= n {
		return s
	}
	return append(s, make([]E, n-len(s))...)
}
