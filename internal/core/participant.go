package core

import (
	"context"
	"sync"
)

// Handle is the transport-supplied delivery primitive for one participant.
// Deliver must respect ctx; the dispatcher bounds every attempt with a
// deadline so a stuck transport cannot stall fan-out.
type Handle interface {
	Deliver(ctx context.Context, msg *Message) error
}

// Registry tracks known participants and their live transport handles.
// One participant name maps to at most one handle; re-registration replaces
// the previous handle (last write wins).
//
// Deregistration removes only the handle. Session and channel membership is
// logical state and survives; dispatch to a deregistered member reports
// Failed(unreachable).
type Registry struct {
	mu      sync.RWMutex
	handles map[string]Handle
}

// NewRegistry creates an empty participant registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]Handle)}
}

// Register binds a handle to a participant name, replacing any prior handle.
func (r *Registry) Register(name string, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[name] = h
}

// Lookup returns the live handle for a participant, if any.
func (r *Registry) Lookup(name string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[name]
	return h, ok
}

// Known reports whether the participant is currently registered.
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handles[name]
	return ok
}

// Deregister drops the participant's handle. Idempotent.
func (r *Registry) Deregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, name)
}

// List returns all registered participant names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handles))
	for name := range r.handles {
		names = append(names, name)
	}
	return names
}
