package buddy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newEmbedded(t *testing.T, memorySize, alignment uint64) *Allocator {
	t.Helper()
	arena := make([]byte, memorySize)
	a, err := Embed(arena, alignment)
	assert.NoError(t, err)
	return a
}

func TestAllocateBasic(t *testing.T) {
	assert := assert.New(t)

	a := newEmbedded(t, 4096, 64)
	block, err := a.Allocate(32)
	assert.NoError(err)
	assert.GreaterOrEqual(len(block), 32)
}

func TestAllocateExhaustsPool(t *testing.T) {
	assert := assert.New(t)

	a := newEmbedded(t, 1024, 64)
	_, err := a.Allocate(1024)
	assert.ErrorIs(err, ErrOutOfMemory)
}

func TestAllocateFreeReallocCoalesce(t *testing.T) {
	assert := assert.New(t)

	a := newEmbedded(t, 4096, 64)

	b1, err := a.Allocate(64)
	assert.NoError(err)
	b2, err := a.Allocate(64)
	assert.NoError(err)

	a.Free(b1)
	a.Free(b2)

	bigger, err := a.Reallocate(nil, 128)
	assert.NoError(err)
	assert.GreaterOrEqual(len(bigger), 128)
}

func TestAllocate32x32Exhaustion(t *testing.T) {
	assert := assert.New(t)

	a := newEmbedded(t, 2048, 64)
	var blocks [][]byte
	for i := 0; i < 32; i++ {
		b, err := a.Allocate(32)
		if err != nil {
			break
		}
		blocks = append(blocks, b)
	}
	// 2048 bytes at 64-byte granularity holds at most 32 blocks, minus
	// whatever the embedded metadata tail consumed.
	assert.LessOrEqual(len(blocks), 32)
	assert.Greater(len(blocks), 0)
}

func TestSiblingCoalesceTo128(t *testing.T) {
	assert := assert.New(t)

	a := newEmbedded(t, 4096, 64)

	b1, err := a.Allocate(64)
	assert.NoError(err)
	b2, err := a.Allocate(64)
	assert.NoError(err)

	a.Free(b1)
	a.Free(b2)

	b3, err := a.Allocate(128)
	assert.NoError(err)
	assert.GreaterOrEqual(len(b3), 128)
}

func TestVirtualTailNonPowerOfTwo(t *testing.T) {
	assert := assert.New(t)

	a := newEmbedded(t, 768, 64)
	assert.NoError(nil)

	var blocks [][]byte
	for {
		b, err := a.Allocate(64)
		if err != nil {
			break
		}
		blocks = append(blocks, b)
	}
	assert.True(a.CheckInvariant())

	st := a.Stat()
	assert.Greater(st.VirtualBytes, uint64(0))
}

func TestReallocateNilDegradesToAllocate(t *testing.T) {
	assert := assert.New(t)

	a := newEmbedded(t, 4096, 64)
	block, err := a.Reallocate(nil, 64)
	assert.NoError(err)
	assert.GreaterOrEqual(len(block), 64)
}

func TestReallocateZeroDegradesToFree(t *testing.T) {
	assert := assert.New(t)

	a := newEmbedded(t, 4096, 64)
	block, err := a.Allocate(64)
	assert.NoError(err)

	out, err := a.Reallocate(block, 0)
	assert.NoError(err)
	assert.Nil(out)
	assert.True(a.CheckInvariant())
}

func TestReallocateFailurePreservesOriginal(t *testing.T) {
	assert := assert.New(t)

	a := newEmbedded(t, 1024, 64)
	block, err := a.Allocate(64)
	assert.NoError(err)

	_, err = a.Reallocate(block, 1<<30)
	assert.ErrorIs(err, ErrOutOfMemory)
	assert.True(a.CheckInvariant())
}

func TestFreeInvalidPointerIgnored(t *testing.T) {
	a := newEmbedded(t, 4096, 64)
	foreign := make([]byte, 16)
	a.Free(foreign) // must not panic
	a.Free(nil)
}

func TestReallocateInvalidPointer(t *testing.T) {
	assert := assert.New(t)

	a := newEmbedded(t, 4096, 64)
	foreign := make([]byte, 16)
	_, err := a.Reallocate(foreign, 32)
	assert.ErrorIs(err, ErrInvalidPointer)
}

func TestSizeofMetadataInvalidConfiguration(t *testing.T) {
	assert := assert.New(t)

	_, err := SizeofMetadata(1024, 3) // not a power of two
	assert.ErrorIs(err, ErrInvalidConfiguration)

	_, err = SizeofMetadata(16, 64) // smaller than alignment
	assert.ErrorIs(err, ErrInvalidConfiguration)
}

func TestInitHeaderAliasesArenaRejected(t *testing.T) {
	assert := assert.New(t)

	arena := make([]byte, 1024)
	_, err := Init(arena, arena, 1024, 64)
	assert.ErrorIs(err, ErrInvalidConfiguration)
}
