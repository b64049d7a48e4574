package scope

import "sync"

// Registry maps scope IDs to the handles declared there. A handle is
// registered under one scope at a time.
type Registry struct {
	mu      sync.RWMutex
	entries map[string][]*Handle
	owners  map[*Handle]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string][]*Handle),
		owners:  make(map[*Handle]string),
	}
}

// Register stores handles under s in order. It fails if s already has
// handles, if a handle is listed twice or owned by another scope, or if a
// handle has no server. Registering no handles is a no-op.
func (r *Registry) Register(s Scope, handles []*Handle) error {
	if s == nil {
		return configError(nil, ErrNilScope, "")
	}
	if len(handles) == 0 {
		return nil
	}
	id := s.ID()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; ok {
		return configError(s, ErrAlreadyRegistered, "")
	}
	seen := make(map[*Handle]bool, len(handles))
	for i, h := range handles {
		if h == nil || h.srv == nil {
			return configError(s, ErrNilServer, "server %d has no server", i)
		}
		if seen[h] {
			return configError(s, ErrDuplicateHandle, "server %d listed twice", i)
		}
		if owner, ok := r.owners[h]; ok {
			return configError(s, ErrDuplicateHandle, "server %d already registered under scope %q", i, owner)
		}
		seen[h] = true
	}

	r.entries[id] = append([]*Handle(nil), handles...)
	for _, h := range handles {
		r.owners[h] = id
	}
	return nil
}

// Lookup returns the handles registered at exactly s.
func (r *Registry) Lookup(s Scope) []*Handle {
	if s == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Handle(nil), r.entries[s.ID()]...)
}

// CollectReachable returns the handles of s and all its ancestors, nearest
// scope first, each handle once.
func (r *Registry) CollectReachable(s Scope) []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Handle
	seen := make(map[*Handle]bool)
	for cur := range Ancestors(s) {
		for _, h := range r.entries[cur.ID()] {
			if seen[h] {
				continue
			}
			seen[h] = true
			out = append(out, h)
		}
	}
	return out
}

// Forget drops the handles registered at s, so the scope ID can be
// registered again.
func (r *Registry) Forget(s Scope) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.entries[s.ID()] {
		delete(r.owners, h)
	}
	delete(r.entries, s.ID())
}

// Len is the number of scopes with registered handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
