package buddy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTreeNavigation(t *testing.T) {
	assert := assert.New(t)

	root := rootPos()
	assert.Equal(pos{index: 2, depth: 2}, root.leftChild())
	assert.Equal(pos{index: 3, depth: 2}, root.rightChild())
	assert.Equal(root, root.leftChild().parent())
	assert.Equal(root.rightChild(), root.leftChild().sibling())
}

func TestTreeMarkRelease(t *testing.T) {
	assert := assert.New(t)

	tr := newTree(4) // 8 leaves
	root := rootPos()

	leaf := tr.findFree(4)
	assert.True(tr.valid(leaf))
	tr.mark(leaf)

	assert.False(tr.isFree(leaf))
	assert.Equal(uint64(1), tr.status(root))

	assert.Equal(releaseOK, tr.release(leaf))
	assert.True(tr.isFree(leaf))
	assert.Equal(uint64(0), tr.status(root))
}

func TestTreeFindFreeExhaustion(t *testing.T) {
	assert := assert.New(t)

	tr := newTree(4) // 8 leaves of the smallest size
	var leaves []pos
	for i := 0; i < 8; i++ {
		p := tr.findFree(4)
		assert.True(tr.valid(p), "iteration %d", i)
		tr.mark(p)
		leaves = append(leaves, p)
	}

	assert.False(tr.valid(tr.findFree(4)))

	tr.release(leaves[0])
	p := tr.findFree(4)
	assert.True(tr.valid(p))
	assert.Equal(leaves[0], p)
}

func TestTreeSiblingCoalesce(t *testing.T) {
	assert := assert.New(t)

	tr := newTree(4)
	a := tr.findFree(4)
	tr.mark(a)
	b := tr.findFree(4)
	tr.mark(b)

	assert.Equal(a.sibling(), b)

	tr.release(a)
	tr.release(b)

	// the pair should have coalesced into one free block one level up
	p := tr.findFree(3)
	assert.True(tr.valid(p))
	assert.Equal(a.parent(), p)
}

func TestTreeReleasePartiallyUsed(t *testing.T) {
	assert := assert.New(t)

	tr := newTree(4)
	internal := rootPos().leftChild()
	assert.Equal(releasePartiallyUsed, tr.release(internal))
}

func TestTreeWalkVisitsEveryLeaf(t *testing.T) {
	assert := assert.New(t)

	tr := newTree(4) // 7 internal + 8 leaves = 15 nodes total
	w := newWalkState(rootPos())
	current := rootPos()
	leaves := 0
	nodes := 1

	for tr.next(w) {
		current = w.current
		nodes++
		if current.depth == tr.order {
			leaves++
		}
	}
	assert.Equal(8, leaves)
	assert.Equal(15, nodes)
}
