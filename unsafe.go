package buddy

import "unsafe"

// dataPointer returns the address of a byte slice's backing array,
// unsafely, the same way the teacher's s2b/b2s helpers reach past the
// slice header rather than paying for a bounds-checked index.
func dataPointer(b []byte) unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(b))
}

// offsetWithin returns the byte offset of block's backing array from
// base's, or (0, false) if block does not point inside base (by
// address, not by Go slice-bounds semantics — used at the façade
// boundary to resolve a caller's block back to an arena offset, per
// the Design Notes' "unsafe pointer arithmetic only at the façade
// boundary").
func offsetWithin(base []byte, block []byte) (uint64, bool) {
	if len(block) == 0 {
		return 0, false
	}
	baseAddr := uintptr(dataPointer(base))
	blockAddr := uintptr(dataPointer(block))
	if blockAddr < baseAddr {
		return 0, false
	}
	offset := uint64(blockAddr - baseAddr)
	if offset >= uint64(len(base)) {
		return 0, false
	}
	return offset, true
}
