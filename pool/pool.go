// Package pool wraps a single buddy.Allocator with the external mutex
// its non-reentrant contract requires (§5 of the design: the engine is
// single-threaded by design, thread-safety is a collaborator's job).
package pool

import (
	"sync"

	"github.com/xgzlucario/buddy"
)

// RoundFunc rounds a requested size before it reaches the allocator,
// the same way the reference allocator's callers round a malloc request
// up to a size class before calling buddy_malloc.
type RoundFunc func(size int) int

// Options configures a Pool. A Pool always embeds its allocator's
// metadata in the arena's own tail (buddy.Embed) — Init's
// separate-header-region mode has no use case behind a lock-guarded
// collaborator, since the Pool owns the only reference to the arena.
type Options struct {
	MemorySize uint64
	Alignment  uint64
	// Round, if non-nil, is applied to every requested size before
	// Allocate and Reallocate hand it to the underlying allocator.
	Round RoundFunc
}

// DefaultOptions mirrors buddy.DefaultOptions with no rounding.
var DefaultOptions = Options{
	MemorySize: buddy.DefaultOptions.MemorySize,
	Alignment:  buddy.DefaultOptions.Alignment,
}

// Pool is a mutex-guarded Allocator, safe for concurrent use by multiple
// goroutines. It is the Go analogue of the reference library's
// process-wide pool: every public method takes the lock for its
// duration and releases it before returning.
type Pool struct {
	mu    sync.Mutex
	alloc *buddy.Allocator
	round RoundFunc
	stat  poolStat
}

// New creates a Pool backed by a freshly embedded arena.
func New(opts Options) (*Pool, error) {
	arena := make([]byte, opts.MemorySize)
	alloc, err := buddy.Embed(arena, opts.Alignment)
	if err != nil {
		return nil, err
	}
	return &Pool{alloc: alloc, round: opts.Round}, nil
}

// Allocate reserves a block of at least size bytes.
func (p *Pool) Allocate(size int) ([]byte, error) {
	if p.round != nil {
		size = p.round(size)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	block, err := p.alloc.Allocate(size)
	if err != nil {
		p.stat.failures.Inc()
		return nil, err
	}
	p.stat.allocations.Inc()
	return block, nil
}

// Free releases a block previously returned by Allocate or Reallocate.
func (p *Pool) Free(block []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alloc.Free(block)
	p.stat.frees.Inc()
}

// Reallocate resizes a previously-allocated block; see Allocator.Reallocate.
func (p *Pool) Reallocate(block []byte, size int) ([]byte, error) {
	if p.round != nil {
		size = p.round(size)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out, err := p.alloc.Reallocate(block, size)
	if err != nil {
		p.stat.failures.Inc()
		return nil, err
	}
	p.stat.reallocations.Inc()
	return out, nil
}

// Stat returns a point-in-time snapshot of the underlying allocator
// together with this pool's running call counters.
func (p *Pool) Stat() (buddy.Stat, CallCounts) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alloc.Stat(), p.stat.snapshot()
}

// Fragmentation reports the underlying allocator's fragmentation byte.
func (p *Pool) Fragmentation() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alloc.Fragmentation()
}
