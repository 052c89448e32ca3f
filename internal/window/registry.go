package window

import (
	"sync"

	"photo-stream/internal/logging"
)

// Key identifies one cached window: the view mode (say "grid" or
// "table") and the scope it is bound to (a project id, or zero for the
// union view).
type Key struct {
	Mode    string
	ScopeID int64
}

// Registry owns the per-scope window singletons that survive across
// view re-renders. It is an explicit structure handed to the owning
// application, never ambient global state, and windows leave it only
// through explicit Reset or Drop calls.
type Registry[T any] struct {
	mu      sync.Mutex
	entries map[Key]*Manager[T]
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[Key]*Manager[T])}
}

// Get returns the cached Manager for key, creating it with create on
// first use.
func (r *Registry[T]) Get(key Key, create func() *Manager[T]) *Manager[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.entries[key]; ok {
		return m
	}
	m := create()
	r.entries[key] = m
	logging.Debug("window registry: created window for mode=%s scope=%d", key.Mode, key.ScopeID)
	return m
}

// Reset clears the cached window for key, if any, returning it to the
// empty state while keeping it registered.
func (r *Registry[T]) Reset(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.entries[key]; ok {
		m.Reset()
	}
}

// Drop removes the window for key entirely. Use it when the scope
// itself goes away (a project deleted or archived).
func (r *Registry[T]) Drop(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Len returns the number of registered windows.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
