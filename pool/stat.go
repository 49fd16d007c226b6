package pool

import "go.uber.org/atomic"

// poolStat holds the running call counters for a Pool, updated with
// atomic instructions so reads from Stat never need the pool's own
// mutex to stay consistent with a concurrent Allocate/Free.
type poolStat struct {
	allocations   atomic.Uint64
	frees         atomic.Uint64
	reallocations atomic.Uint64
	failures      atomic.Uint64
}

// CallCounts is a snapshot of a Pool's lifetime call counters.
type CallCounts struct {
	Allocations   uint64
	Frees         uint64
	Reallocations uint64
	Failures      uint64
}

func (s *poolStat) snapshot() CallCounts {
	return CallCounts{
		Allocations:   s.allocations.Load(),
		Frees:         s.frees.Load(),
		Reallocations: s.reallocations.Load(),
		Failures:      s.failures.Load(),
	}
}
