package buddy

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/swiss"
)

// allocationLedger is an optional, opt-in side table mapping the
// offset of a live allocation to the size originally requested for
// it. It exists purely to make Dump's output readable — the engine
// itself never stores a header inside the arena (§1 non-goal) and
// never consults the ledger to make allocation decisions.
//
// Grounded in the teacher's cmap (github.com/cockroachdb/swiss), swapped
// from string keys to arena offsets.
type allocationLedger struct {
	m *swiss.Map[uint64, uint64]
}

func newAllocationLedger() *allocationLedger {
	return &allocationLedger{m: swiss.New[uint64, uint64](8)}
}

func (l *allocationLedger) put(offset, size uint64) {
	l.m.Put(offset, size)
}

func (l *allocationLedger) delete(offset uint64) {
	l.m.Delete(offset)
}

func (l *allocationLedger) get(offset uint64) (uint64, bool) {
	if l.m.Len() == 0 {
		return 0, false
	}
	return l.m.Get(offset)
}

// EnableLedger turns on the optional offset->requested-size ledger
// used by Dump to print the size a caller originally asked for,
// rather than only the rounded block size.
func (a *Allocator) EnableLedger() {
	if a.ledger == nil {
		a.ledger = newAllocationLedger()
	}
}

// EnableSizeSampling turns on a rolling Percentile sample of every
// requested allocation size, exposed via SizeDistribution.
func (a *Allocator) EnableSizeSampling() {
	if a.sizes == nil {
		a.sizes = NewPercentile()
	}
}

// SizeDistribution returns the rolling sample of requested allocation
// sizes, or nil if EnableSizeSampling was never called.
func (a *Allocator) SizeDistribution() *Percentile {
	return a.sizes
}

func (a *Allocator) recordAlloc(p pos, requested uint64) {
	if a.sizes != nil {
		a.sizes.Add(float64(requested))
	}
	if a.ledger != nil {
		a.ledger.put(a.am.addressForPos(p), requested)
	}
}

func (a *Allocator) forgetAlloc(p pos) {
	if a.ledger != nil {
		a.ledger.delete(a.am.addressForPos(p))
	}
}

// CheckInvariant walks the tree and verifies, at every internal node,
// that its value equals 1+min(left,right) when either child is
// non-zero (or, when both are zero, 0 or L for a node marked as one
// allocation), and at every leaf that its value
// is 0 or 1 (§3 invariants 1-2, §4.5). It never mutates the tree.
func (a *Allocator) CheckInvariant() bool {
	t := a.tree
	w := newWalkState(rootPos())
	current := rootPos()
	ok := true

	for {
		if current.depth == t.order {
			v := t.status(current)
			if v > 1 {
				ok = false
			}
		} else {
			left := t.status(current.leftChild())
			right := t.status(current.rightChild())
			currentV := t.status(current)
			if left != 0 || right != 0 {
				min := left
				if right < min {
					min = right
				}
				if currentV != min+1 {
					ok = false
				}
			} else if currentV > 0 && currentV < t.localOffset(current) {
				ok = false
			}
		}
		if !t.next(w) {
			return ok
		}
		current = w.current
	}
}

// Fragmentation reports a quality-of-fragmentation byte in [0,255]:
// 0 means perfectly unfragmented (free space is a single free block,
// the arena holds no allocations, or there is no free space), 255 means
// maximally fragmented. Ported
// from the reference allocator's quadratic-mean metric
// (https://asawicki.info/news_1757_a_metric_for_memory_fragmentation).
func (a *Allocator) Fragmentation() uint8 {
	t := a.tree
	if t.status(rootPos()) == 0 {
		return 0
	}

	var quality, totalFree uint64
	w := newWalkState(rootPos())
	current := rootPos()

	for {
		v := t.status(current)
		l := t.localOffset(current)
		switch {
		case v == 0:
			size := a.am.blockSize(current.depth)
			quality += size * size
			totalFree += size
			if !advancePastSubtree(t, w, current) {
				return finishFragmentation(quality, totalFree, a.memorySize)
			}
			current = w.current
			continue
		case v == l:
			if !advancePastSubtree(t, w, current) {
				return finishFragmentation(quality, totalFree, a.memorySize)
			}
			current = w.current
			continue
		}
		if !t.next(w) {
			return finishFragmentation(quality, totalFree, a.memorySize)
		}
		current = w.current
	}
}

func finishFragmentation(quality, totalFree, memorySize uint64) uint8 {
	const fractionalBits = 8
	const fractionalMask = 255

	// no free space, or every non-virtual byte free (no allocations).
	if totalFree == 0 || totalFree == memorySize {
		return 0
	}
	qualityPercent := (isqrt(quality) << fractionalBits) / totalFree
	qualityPercent *= qualityPercent
	qualityPercent >>= fractionalBits
	if qualityPercent > fractionalMask {
		qualityPercent = fractionalMask
	}
	return uint8(fractionalMask - qualityPercent)
}

// Dump renders the tree as an indented listing of occupied and free
// blocks, in the shape of the reference allocator's print_buddy_tree.
func (a *Allocator) Dump(w io.Writer) {
	a.dumpSubtree(w, rootPos(), "", true)
}

func (a *Allocator) dumpSubtree(w io.Writer, p pos, prefix string, isLast bool) {
	t := a.tree
	free := t.isFree(p)
	size := a.am.blockSize(p.depth)
	addr := a.am.addressForPos(p)

	branch := "├── "
	if isLast {
		branch = "└── "
	}
	requested := ""
	if !free && a.ledger != nil {
		if sz, ok := a.ledger.get(addr); ok {
			requested = fmt.Sprintf(", requested: %d", sz)
		}
	}
	fmt.Fprintf(w, "%s%ssize: %d, offset: %d, occupied: %t%s\n", prefix, branch, size, addr, !free, requested)

	if p.depth == t.order {
		return
	}
	childPrefix := prefix
	if isLast {
		childPrefix += "    "
	} else {
		childPrefix += "│   "
	}

	left, right := p.leftChild(), p.rightChild()
	hasLeft, hasRight := t.valid(left), t.valid(right)
	if hasLeft {
		a.dumpSubtree(w, left, childPrefix, !hasRight)
	}
	if hasRight {
		a.dumpSubtree(w, right, childPrefix, true)
	}
}

// HeaderSnapshot is a JSON-friendly snapshot of an Allocator's
// configuration, for DebugHeader.
type HeaderSnapshot struct {
	MemorySize    uint64 `json:"memory_size"`
	EffectiveSize uint64 `json:"effective_size"`
	Alignment     uint64 `json:"alignment"`
	Embedded      bool   `json:"embedded"`
	VirtualSlots  uint64 `json:"virtual_slots"`
	TreeOrder     uint64 `json:"tree_order"`
}

// DebugHeader writes a JSON snapshot of the allocator's configuration
// to w, encoded with sonic the way the teacher encodes its own
// wire-format payloads.
func (a *Allocator) DebugHeader(w io.Writer) error {
	snap := HeaderSnapshot{
		MemorySize:    a.memorySize,
		EffectiveSize: a.am.effectiveSize(),
		Alignment:     a.alignment,
		Embedded:      a.embedded,
		VirtualSlots:  a.am.virtualSlots(),
		TreeOrder:     a.tree.order,
	}
	b, err := sonic.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
