package rbtree

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatorFreeZero(t *testing.T) {
	alloc := NewAllocator[int]()
	alloc.malloc()
	assert.Panics(t, func() { alloc.free(0) })
}

func TestAllocatorReusesGaps(t *testing.T) {
	alloc := NewAllocator[int]()
	a, b, c := alloc.malloc(), alloc.malloc(), alloc.malloc()
	assert.Equal(t, []uint32{1, 2, 3}, []uint32{a, b, c})
	alloc.free(b)
	assert.Equal(t, 3, alloc.Used())
	assert.Equal(t, b, alloc.malloc())
	assert.Equal(t, 4, alloc.Size())
	assert.Panics(t, func() {
		alloc.free(c)
		alloc.free(c)
	})
}

func TestAllocatorHibernateBoot(t *testing.T) {
	alloc := NewAllocator[int]()
	for i := 0; i < 10000; i++ {
		n := alloc.malloc()
		alloc.storage[n].key = i
		alloc.storage[n].left = uint32(i)
		alloc.storage[n].right = uint32(i)
		alloc.storage[n].parent = uint32(i)
		alloc.storage[n].color = i%2 == 0
	}
	for i := 0; i < 10000; i++ {
		alloc.gaps[uint32(i)] = true // makes no sense, only to test
	}
	alloc.Hibernate()
	assert.True(t, alloc.Hibernated())
	assert.PanicsWithValue(t, "cannot hibernate an already hibernated Allocator", alloc.Hibernate)
	assert.Nil(t, alloc.storage)
	assert.Nil(t, alloc.gaps)
	assert.Equal(t, 0, alloc.Size())
	assert.Equal(t, 10001, alloc.hibernatedStorageLen)
	assert.Equal(t, 10000, alloc.hibernatedGapsLen)
	assert.PanicsWithValue(t, "hibernated allocators cannot be used", func() { alloc.Used() })
	assert.PanicsWithValue(t, "hibernated allocators cannot be used", func() { alloc.malloc() })
	assert.PanicsWithValue(t, "hibernated allocators cannot be used", func() { alloc.free(1) })
	alloc.Boot()
	assert.False(t, alloc.Hibernated())
	assert.Equal(t, 0, alloc.hibernatedGapsLen)
	for n := 1; n <= 10000; n++ {
		assert.Equal(t, n-1, alloc.storage[n].key)
		assert.Equal(t, uint32(n-1), alloc.storage[n].left)
		assert.Equal(t, uint32(n-1), alloc.storage[n].right)
		assert.Equal(t, uint32(n-1), alloc.storage[n].parent)
		assert.Equal(t, color((n-1)%2 == 0), alloc.storage[n].color)
		assert.True(t, alloc.gaps[uint32(n-1)])
	}
}

func TestAllocatorHibernateBootThreshold(t *testing.T) {
	alloc := NewAllocator[int]()
	alloc.malloc()
	alloc.HibernationThreshold = 3
	alloc.Hibernate()
	assert.False(t, alloc.Hibernated())
	alloc.malloc()
	alloc.Hibernate()
	assert.Equal(t, 0, alloc.hibernatedGapsLen)
	assert.Equal(t, 3, alloc.hibernatedStorageLen)
	alloc.Boot()
	assert.Equal(t, 3, alloc.Size())
	assert.Equal(t, 3, alloc.Used())
	assert.NotNil(t, alloc.gaps)
}

func TestHibernatedTreeSurvives(t *testing.T) {
	alloc := NewAllocator[string]()
	tree := NewRBTree(alloc)
	for _, w := range []string{"m", "c", "x", "a", "e", "z", "b"} {
		tree.Insert(w)
	}
	tree.Delete("e")
	before := slices.Collect(tree.Keys())
	alloc.Hibernate()
	assert.Error(t, tree.Verify())
	alloc.Boot()
	require.NoError(t, tree.Verify())
	assert.Equal(t, before, slices.Collect(tree.Keys()))
	tree.Insert("e")
	assert.Equal(t, 8, alloc.Size(), "the gap survived hibernation")
	require.NoError(t, tree.Verify())
}
