package pool

import (
	"fmt"
	"sync"

	"github.com/tidwall/hashmap"
	"github.com/zeebo/xxh3"
)

// Registry is a named collection of Pools, the Go replacement for the
// reference allocator's process-wide singleton: instead of one
// implicit global pool, callers look one up by name and get back a
// shared *Pool they can pass around freely.
type Registry struct {
	mu    sync.RWMutex
	pools hashmap.Map[string, *Pool]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Get returns the named pool, creating it with opts if it does not yet
// exist. The second return value reports whether the pool already
// existed.
func (r *Registry) Get(name string, opts Options) (*Pool, bool, error) {
	r.mu.RLock()
	if p, ok := r.pools.Get(name); ok {
		r.mu.RUnlock()
		return p, true, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pools.Get(name); ok {
		return p, true, nil
	}
	p, err := New(opts)
	if err != nil {
		return nil, false, err
	}
	r.pools.Set(name, p)
	return p, false, nil
}

// Delete removes the named pool from the registry. It does not reclaim
// the pool's arena; the caller must drop its own references.
func (r *Registry) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools.Delete(name)
}

// Len returns the number of registered pools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pools.Len()
}

// debugTag returns a short, stable hash of a pool name for log lines,
// cheaper than printing the name itself when names are long paths.
func debugTag(name string) string {
	h := xxh3.HashString(name)
	return fmt.Sprintf("%08x", uint32(h))
}

// DebugTag exposes debugTag for callers formatting their own log lines.
func DebugTag(name string) string {
	return debugTag(name)
}
