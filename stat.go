package buddy

// Stat is a point-in-time snapshot of an Allocator's occupancy,
// shaped like the teacher's CacheStat (runtime counters sampled
// without disturbing the allocator).
type Stat struct {
	// MemorySize is the arena size the allocator was configured with.
	MemorySize uint64
	// EffectiveSize is the power-of-two size the tree spans.
	EffectiveSize uint64
	// FreeBytes is the total free, non-virtual space.
	FreeBytes uint64
	// VirtualBytes is the space permanently reserved by the
	// non-power-of-two tail mask.
	VirtualBytes uint64
	// Allocations is the number of live allocation boundaries.
	Allocations uint64
}

// OccupancyRate returns the fraction (0..1) of effective size that is
// neither free nor virtual.
func (s Stat) OccupancyRate() float64 {
	if s.EffectiveSize == 0 {
		return 0
	}
	used := s.EffectiveSize - s.FreeBytes - s.VirtualBytes
	return float64(used) / float64(s.EffectiveSize)
}

// Stat walks the tree and computes a fresh occupancy snapshot. It is
// purely observational like the diagnostics in §4.5.
func (a *Allocator) Stat() Stat {
	s := Stat{
		MemorySize:    a.memorySize,
		EffectiveSize: a.am.effectiveSize(),
		VirtualBytes:  a.am.virtualSlots() * a.alignment,
	}

	walk := newWalkState(rootPos())
	current := rootPos()
	for {
		v := a.tree.status(current)
		l := a.tree.localOffset(current)
		// a full node with non-zero children is full only because both
		// children are; its allocations are counted further down.
		boundary := v == l && (l == 1 || a.tree.status(current.leftChild()) == 0)
		switch {
		case v == 0:
			s.FreeBytes += a.am.blockSize(current.depth)
		case boundary && a.am.addressForPos(current) < a.memorySize:
			// virtual-tail nodes start at or beyond memorySize and are
			// reported through VirtualBytes, not as allocations.
			s.Allocations++
		}
		if v == 0 || boundary {
			// fully free or a single allocation: no need to descend further,
			// but the walk primitive always descends left when possible,
			// so skip subtrees explicitly by advancing past them.
			if !advancePastSubtree(a.tree, walk, current) {
				return s
			}
			current = walk.current
			continue
		}
		if !a.tree.next(walk) {
			return s
		}
		current = walk.current
	}
}

// advancePastSubtree moves the walk to the next node outside of
// current's subtree, used by Stat to avoid descending into subtrees
// whose aggregate status already answers free/allocated/bytes.
func advancePastSubtree(t *tree, w *walkState, current pos) bool {
	w.current = current
	w.goingUp = true
	return t.next(w)
}
