package buddy

// headerWordAlign mirrors BUDDY_ALIGNOF(struct buddy) in the reference
// allocator: the metadata region embedded in an arena's tail is rounded
// to a machine-word boundary.
const headerWordAlign = 8

// Allocator is the binary buddy allocator façade: it owns the
// configuration (arena, alignment) and the allocation tree, and
// implements Allocate/Free/Reallocate/Fragmentation per §4.4.
//
// An Allocator is single-threaded and non-reentrant (§5): a caller
// needing concurrent access must serialize every public method with
// its own lock — see the pool package for a ready-made wrapper.
type Allocator struct {
	arena      []byte
	memorySize uint64
	alignment  uint64
	embedded   bool

	am   arenaMap
	tree *tree

	// sizes, if non-nil, samples every requested allocation size for
	// the Percentiles diagnostic. Opt-in via EnableSizeSampling.
	sizes *Percentile
	// ledger, if non-nil, records requested-size-by-offset for the
	// Dump diagnostic without adding any per-block header to the
	// arena itself (kept beside the tree, not inside it).
	ledger *allocationLedger
}

// SizeofMetadata returns the number of bytes of external storage
// needed to track an arena of memorySize bytes at the given alignment,
// or an error if the configuration is invalid (§4.4, §7
// InvalidConfiguration).
func SizeofMetadata(memorySize, alignment uint64) (uint64, error) {
	if alignment == 0 || ceilPow2(alignment) != alignment {
		return 0, ErrInvalidConfiguration
	}
	if memorySize < alignment {
		return 0, ErrInvalidConfiguration
	}
	order := treeOrderFor(memorySize, alignment)
	return sizeofTree(order), nil
}

// Init initializes a buddy allocator whose metadata lives in
// headerRegion (a caller-provided region distinct from arena) and
// whose usable space is arena, trimmed down to a multiple of
// alignment. Returns ErrInvalidConfiguration if the regions are nil,
// alias each other, arena does not start on a word boundary, or
// headerRegion is too small.
func Init(headerRegion, arena []byte, memorySize, alignment uint64) (*Allocator, error) {
	if headerRegion == nil || arena == nil {
		return nil, ErrInvalidConfiguration
	}
	if dataPointer(headerRegion) == dataPointer(arena) {
		return nil, ErrInvalidConfiguration
	}
	if uintptr(dataPointer(arena))%headerWordAlign != 0 {
		return nil, ErrInvalidConfiguration
	}
	if alignment == 0 || ceilPow2(alignment) != alignment {
		return nil, ErrInvalidConfiguration
	}

	memorySize -= memorySize % alignment
	need, err := SizeofMetadata(memorySize, alignment)
	if err != nil {
		return nil, err
	}
	if uint64(len(headerRegion)) < need || uint64(len(arena)) < memorySize {
		return nil, ErrInvalidConfiguration
	}

	order := treeOrderFor(memorySize, alignment)
	t := newTreeOver(bitset(headerRegion), order)
	am := newArenaMap(memorySize, alignment)

	a := &Allocator{
		arena:      arena[:memorySize],
		memorySize: memorySize,
		alignment:  alignment,
		am:         am,
		tree:       t,
	}
	am.toggleVirtualTail(t, true)
	return a, nil
}

// Embed initializes a buddy allocator whose metadata is carved out of
// the tail of arena itself: the arena's usable capacity shrinks by
// SizeofMetadata bytes (rounded to a word boundary) so that the
// metadata fits. Returns ErrInvalidConfiguration if metadata cannot
// fit in the given arena.
func Embed(arena []byte, alignment uint64) (*Allocator, error) {
	if arena == nil {
		return nil, ErrInvalidConfiguration
	}
	if alignment == 0 || ceilPow2(alignment) != alignment {
		return nil, ErrInvalidConfiguration
	}

	memorySize := uint64(len(arena))
	size, err := SizeofMetadata(memorySize, alignment)
	if err != nil || size == 0 || size >= memorySize {
		return nil, ErrInvalidConfiguration
	}

	offset := memorySize - size
	if rem := offset % headerWordAlign; rem != 0 {
		size += rem
		if size >= memorySize {
			return nil, ErrInvalidConfiguration
		}
		offset = memorySize - size
	}

	a, err := Init(arena[offset:offset+size], arena[:offset], offset, alignment)
	if err != nil {
		return nil, err
	}
	a.embedded = true
	return a, nil
}

// Allocate hands out a naturally-aligned block of at least size bytes.
// A size of 0 is treated as 1 (the allocator never returns a
// zero-length block). Returns ErrOutOfMemory if size exceeds the
// arena's capacity or no free subtree of the required depth exists.
func (a *Allocator) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		size = 1
	}
	sz := uint64(size)
	if sz > a.memorySize {
		return nil, ErrOutOfMemory
	}

	depth := a.am.depthForSize(sz)
	p := a.tree.findFree(depth)
	if !a.tree.valid(p) {
		return nil, ErrOutOfMemory
	}
	a.tree.mark(p)

	block := a.blockAt(p)[:sz]
	a.recordAlloc(p, sz)
	return block, nil
}

// Free releases a block previously returned by Allocate or
// Reallocate. A nil block, or any block that does not point inside
// this allocator's arena, is silently ignored (§7
// InvalidPointer — defensive by design; use Dump to check beforehand
// if detecting this case matters to the caller).
func (a *Allocator) Free(block []byte) {
	offset, ok := offsetWithin(a.arena, block)
	if !ok {
		return
	}
	p := a.am.positionForAddress(a.tree, offset)
	if !a.tree.valid(p) {
		return
	}
	a.tree.release(p)
	a.forgetAlloc(p)
}

// Reallocate resizes a previously-allocated block. A nil block
// degrades into Allocate; a size of 0 degrades into Free. The
// returned block's payload is not copied from the original — the
// caller must not rely on content preservation across a move.
//
// If the resize cannot be satisfied, the original allocation is left
// intact and ErrOutOfMemory is returned.
func (a *Allocator) Reallocate(block []byte, size int) ([]byte, error) {
	if block == nil {
		return a.Allocate(size)
	}
	if size <= 0 {
		a.Free(block)
		return nil, nil
	}
	sz := uint64(size)
	if sz > a.memorySize {
		return nil, ErrOutOfMemory
	}

	offset, ok := offsetWithin(a.arena, block)
	if !ok {
		return nil, ErrInvalidPointer
	}
	origin := a.am.positionForAddress(a.tree, offset)
	if !a.tree.valid(origin) {
		return nil, ErrInvalidPointer
	}
	originalSize := uint64(len(block))

	targetDepth := a.am.depthForSize(sz)

	if a.tree.release(origin) == releasePartiallyUsed {
		return nil, ErrPartiallyUsedRelease
	}
	a.forgetAlloc(origin)

	newPos := a.tree.findFree(targetDepth)
	if !a.tree.valid(newPos) {
		// Allocation failure: restore the original mark, and record the
		// block's original requested size, not the failed grow request.
		a.tree.mark(origin)
		a.recordAlloc(origin, originalSize)
		return nil, ErrOutOfMemory
	}

	if newPos.index == origin.index {
		a.tree.mark(origin)
		a.recordAlloc(origin, sz)
		return block[:sz], nil
	}

	a.tree.mark(newPos)
	a.recordAlloc(newPos, sz)
	return a.blockAt(newPos)[:sz], nil
}

// blockAt returns the full-capacity slice into the arena for the
// block at p (len == cap == block size at p's depth).
func (a *Allocator) blockAt(p pos) []byte {
	offset := a.am.addressForPos(p)
	length := a.am.blockSize(p.depth)
	return a.arena[offset : offset+length : offset+length]
}
