// Package syncx provides extended synchronization primitives
package syncx

import "sync"

// Published holds a value written by one goroutine and watched by many.
// Every Set bumps the version and wakes all current watchers.
type Published[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
	changed chan struct{}
}

// NewPublished creates a published value at version 0.
func NewPublished[T any](initial T) *Published[T] {
	return &Published[T]{value: initial, changed: make(chan struct{})}
}

// Get returns the current value and its version.
func (p *Published[T]) Get() (T, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value, p.version
}

// Set replaces the value and wakes watchers.
func (p *Published[T]) Set(v T) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = v
	p.version++
	close(p.changed)
	p.changed = make(chan struct{})
	return p.version
}

// Changed returns a channel closed by the next Set.
func (p *Published[T]) Changed() <-chan struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.changed
}

// Watch returns the current value and version together with the channel
// closed by the Set that follows them.
func (p *Published[T]) Watch() (T, uint64, <-chan struct{}) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value, p.version, p.changed
}
