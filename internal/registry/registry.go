// Package registry tracks which rendered nodes have already been enhanced.
//
// Entries are held through weak pointers: the registry never keeps a node
// alive. When a node is garbage collected its entry is dropped by a runtime
// cleanup, so rescans over an unbounded stream of re-rendered nodes do not
// grow the registry.
package registry

import (
	"runtime"
	"sync"
	"weak"
)

// Registry records an "enhanced" fact per node.
//
// The zero value is not usable; call New.
type Registry[T any] struct {
	mu      sync.Mutex
	entries map[weak.Pointer[T]]struct{}
	// cleanups lets Forget and Reset detach the GC callback.
	cleanups map[weak.Pointer[T]]runtime.Cleanup
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{
		entries:  make(map[weak.Pointer[T]]struct{}),
		cleanups: make(map[weak.Pointer[T]]runtime.Cleanup),
	}
}

// IsEnhanced reports whether node has been marked.
func (r *Registry[T]) IsEnhanced(node *T) bool {
	if node == nil {
		return false
	}
	wp := weak.Make(node)
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[wp]
	return ok
}

// MarkEnhanced records node. Marking an already marked node is a no-op.
func (r *Registry[T]) MarkEnhanced(node *T) {
	r.TryMark(node)
}

// TryMark marks node and reports whether it was newly marked.
func (r *Registry[T]) TryMark(node *T) bool {
	if node == nil {
		return false
	}
	wp := weak.Make(node)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[wp]; ok {
		return false
	}
	r.entries[wp] = struct{}{}
	r.cleanups[wp] = runtime.AddCleanup(node, r.drop, wp)
	return true
}

// Forget removes node, e.g. when the host reports it detached.
func (r *Registry[T]) Forget(node *T) {
	if node == nil {
		return
	}
	wp := weak.Make(node)

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.cleanups[wp]; ok {
		c.Stop()
	}
	delete(r.cleanups, wp)
	delete(r.entries, wp)
}

// Len returns the number of live entries.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Reset drops every entry.
func (r *Registry[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cleanups {
		c.Stop()
	}
	r.entries = make(map[weak.Pointer[T]]struct{})
	r.cleanups = make(map[weak.Pointer[T]]runtime.Cleanup)
}

// drop runs on the runtime cleanup goroutine after a node is collected.
func (r *Registry[T]) drop(wp weak.Pointer[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, wp)
	delete(r.cleanups, wp)
}
