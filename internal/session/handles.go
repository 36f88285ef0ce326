package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

const handlePrefix = "blob:"

// Handle is an ephemeral local reference to a staged file, used as a
// preview binding until released.
type Handle string

// IsHandle reports whether a preview binding refers to a local handle.
func IsHandle(binding string) bool {
	return strings.HasPrefix(binding, handlePrefix)
}

// Registry tracks live preview handles.
type Registry struct {
	mu   sync.Mutex
	live map[Handle]*PendingFile
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{live: make(map[Handle]*PendingFile)}
}

// Mint creates a handle for f.
func (r *Registry) Mint(f *PendingFile) Handle {
	h := Handle(handlePrefix + uuid.NewString())
	r.mu.Lock()
	r.live[h] = f
	r.mu.Unlock()
	return h
}

// Release drops h. Releasing an unknown handle is a no-op.
func (r *Registry) Release(h Handle) {
	r.mu.Lock()
	delete(r.live, h)
	r.mu.Unlock()
}

// Resolve returns the file behind a live handle.
func (r *Registry) Resolve(h Handle) (*PendingFile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.live[h]
	return f, ok
}

// Live returns the number of unreleased handles.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
