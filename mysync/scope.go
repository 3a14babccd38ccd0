// Package mysync provides a reader/writer guarded value whose lock releases are handed out as scope tokens.
package mysync

import (
	"sync"
	"sync/atomic"
)

// Guarded protects a value of type T. Any number of readers may hold a read scope at once; a write scope is
// exclusive.
type Guarded[T any] struct {
	mu      sync.RWMutex
	v       T
	readers atomic.Int32
}

// ReadScope releases a read lock obtained from Guarded.Read.
type ReadScope struct {
	g interface {
		runlock()
	}
}

// WriteScope releases a write lock obtained from Guarded.Write.
type WriteScope struct {
	mu *sync.RWMutex
}

func NewGuarded[T any](v T) *Guarded[T] {
	return &Guarded[T]{v: v}
}

// Read acquires a read lock. The caller must call Close on the returned scope once it is done with the value and
// must not retain the value past that point.
func (g *Guarded[T]) Read() (T, ReadScope) {
	g.mu.RLock()
	g.readers.Add(1)
	return g.v, ReadScope{g}
}

// Write acquires the exclusive lock.
func (g *Guarded[T]) Write() (T, WriteScope) {
	g.mu.Lock()
	return g.v, WriteScope{&g.mu}
}

// Readers returns the number of currently open read scopes.
func (g *Guarded[T]) Readers() int {
	return int(g.readers.Load())
}

func (g *Guarded[T]) runlock() {
	g.readers.Add(-1)
	g.mu.RUnlock()
}

func (s ReadScope) Close()  { s.g.runlock() }
func (s WriteScope) Close() { s.mu.Unlock() }
