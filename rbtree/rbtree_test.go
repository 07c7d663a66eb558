package rbtree

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Create a tree storing a set of integers
func testNewIntSet() *RBTree[int] {
	return New[int]()
}

func testInsert(tree *RBTree[int], keys ...int) {
	for _, key := range keys {
		tree.Insert(key)
	}
}

func scenarioTree() *RBTree[int] {
	tree := testNewIntSet()
	testInsert(tree, 10, 20, 30, 100, 15, 17, 85, 50)
	return tree
}

func TestEmpty(t *testing.T) {
	tree := testNewIntSet()
	assert.Equal(t, 0, tree.Len())
	assert.True(t, tree.Max().NegativeLimit())
	assert.True(t, tree.Min().Limit())
	assert.True(t, tree.Search(10).Limit())
	assert.False(t, tree.Contains(10))
	assert.True(t, tree.Limit().Equal(tree.Min()))
	_, ok := tree.Minimum()
	assert.False(t, ok)
	_, ok = tree.Maximum()
	assert.False(t, ok)
	_, ok = tree.Predecessor(10)
	assert.False(t, ok)
	_, ok = tree.Successor(10)
	assert.False(t, ok)
	assert.Empty(t, slices.Collect(tree.Keys()))
	assert.Equal(t, 0, tree.Height())
	assert.NoError(t, tree.Verify())
}

func TestScenarioTraversal(t *testing.T) {
	tree := scenarioTree()
	assert.Equal(t, []int{10, 15, 17, 20, 30, 50, 85, 100}, slices.Collect(tree.Keys()))
	assert.Equal(t, 8, tree.Len())
	require.NoError(t, tree.Verify())
}

func TestScenarioPredecessorSuccessor(t *testing.T) {
	tree := scenarioTree()
	pred, ok := tree.Predecessor(30)
	assert.True(t, ok)
	assert.Equal(t, 20, pred)
	succ, ok := tree.Successor(30)
	assert.True(t, ok)
	assert.Equal(t, 50, succ)

	_, ok = tree.Predecessor(10)
	assert.False(t, ok, "10 is the minimum")
	_, ok = tree.Successor(100)
	assert.False(t, ok, "100 is the maximum")
	_, ok = tree.Predecessor(31)
	assert.False(t, ok, "31 is missing")
	_, ok = tree.Successor(31)
	assert.False(t, ok, "31 is missing")

	minimum, ok := tree.Minimum()
	assert.True(t, ok)
	assert.Equal(t, 10, minimum)
	maximum, ok := tree.Maximum()
	assert.True(t, ok)
	assert.Equal(t, 100, maximum)
}

func TestScenarioDelete(t *testing.T) {
	tree := scenarioTree()
	assert.True(t, tree.Delete(30))
	assert.Equal(t, []int{10, 15, 17, 20, 50, 85, 100}, slices.Collect(tree.Keys()))
	assert.Equal(t, 7, tree.Len())
	assert.False(t, tree.Contains(30))
	require.NoError(t, tree.Verify())
}

func TestDeleteMissing(t *testing.T) {
	tree := testNewIntSet()
	assert.False(t, tree.Delete(10))
	assert.Equal(t, 0, tree.Len())
	require.NoError(t, tree.Verify())

	tree = scenarioTree()
	before := slices.Collect(tree.Keys())
	assert.False(t, tree.Delete(999))
	assert.Equal(t, before, slices.Collect(tree.Keys()))
	assert.Equal(t, 8, tree.Len())
	require.NoError(t, tree.Verify())

	// delete was deleting after the request if request not found
	// ensure this does not regress:
	tree = testNewIntSet()
	testInsert(tree, 10)
	assert.False(t, tree.Delete(9))
	assert.Equal(t, 1, tree.Len())
}

func TestIncreasingRunIsBalanced(t *testing.T) {
	for _, size := range []int{1, 2, 3, 7, 100, 1000, 1 << 14} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			tree := testNewIntSet()
			for i := 1; i <= size; i++ {
				tree.Insert(i)
			}
			require.NoError(t, tree.Verify())
			bound := 2 * int(math.Ceil(math.Log2(float64(size+1))))
			assert.LessOrEqual(t, tree.Height(), bound)
		})
	}
}

func TestSearch(t *testing.T) {
	tree := scenarioTree()
	for _, key := range []int{10, 15, 17, 20, 30, 50, 85, 100} {
		iter := tree.Search(key)
		if assert.False(t, iter.Limit(), key) {
			assert.Equal(t, key, iter.Key())
		}
	}
	for _, key := range []int{-1, 0, 11, 16, 99, 101} {
		assert.True(t, tree.Search(key).Limit(), key)
	}
}

func TestDuplicates(t *testing.T) {
	tree := testNewIntSet()
	testInsert(tree, 5, 5, 3, 5, 7, 5)
	assert.Equal(t, 6, tree.Len())
	assert.Equal(t, []int{3, 5, 5, 5, 5, 7}, slices.Collect(tree.Keys()))
	require.NoError(t, tree.Verify())

	first := tree.Search(5)
	assert.Equal(t, 5, first.Key())
	for i := 4; i > 0; i-- {
		assert.True(t, tree.Delete(5))
		assert.Equal(t, i-1, strings.Count(fmt.Sprint(slices.Collect(tree.Keys())), "5"))
		require.NoError(t, tree.Verify())
	}
	assert.False(t, tree.Delete(5))
	assert.Equal(t, []int{3, 7}, slices.Collect(tree.Keys()))
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	tree := testNewIntSet()
	for i := 0; i < 200; i++ {
		tree.Insert(r.Intn(1000))
	}
	before := slices.Collect(tree.Keys())
	for i := 0; i < 200; i++ {
		key := r.Intn(1000)
		tree.Insert(key)
		require.True(t, tree.Delete(key))
		require.Equal(t, before, slices.Collect(tree.Keys()))
		require.NoError(t, tree.Verify())
	}
}

func TestKeysEarlyStop(t *testing.T) {
	tree := scenarioTree()
	var seen []int
	for key := range tree.Keys() {
		if key > 20 {
			break
		}
		seen = append(seen, key)
	}
	assert.Equal(t, []int{10, 15, 17, 20}, seen)
	// restartable
	assert.Len(t, slices.Collect(tree.Keys()), 8)
}

func TestStringAndFloatKeys(t *testing.T) {
	words := New[string]()
	for _, w := range strings.Fields("pear apple fig banana cherry apple") {
		words.Insert(w)
	}
	assert.Equal(t, []string{"apple", "apple", "banana", "cherry", "fig", "pear"},
		slices.Collect(words.Keys()))
	succ, ok := words.Successor("banana")
	assert.True(t, ok)
	assert.Equal(t, "cherry", succ)
	require.NoError(t, words.Verify())

	floats := New[float64]()
	for _, f := range []float64{2.5, math.NaN(), -1, math.Inf(1), 0} {
		floats.Insert(f)
	}
	require.NoError(t, floats.Verify())
	assert.True(t, floats.Contains(math.NaN()))
	minimum, _ := floats.Minimum()
	assert.True(t, math.IsNaN(minimum))
	maximum, _ := floats.Maximum()
	assert.True(t, math.IsInf(maximum, 1))
}

func TestDeleteWithIterator(t *testing.T) {
	tree := scenarioTree()
	iter := tree.Search(17)
	tree.DeleteWithIterator(iter)
	assert.False(t, tree.Contains(17))
	require.NoError(t, tree.Verify())
	assert.Panics(t, func() { tree.DeleteWithIterator(tree.Limit()) })
	assert.Panics(t, func() { tree.DeleteWithIterator(tree.NegativeLimit()) })
}

func TestErase(t *testing.T) {
	alloc := NewAllocator[int]()
	tree := NewRBTree(alloc)
	for i := 0; i < 10; i++ {
		tree.Insert(i)
	}
	assert.Equal(t, 11, alloc.Used())
	tree.Erase()
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, 1, alloc.Used())
	assert.Equal(t, 11, alloc.Size())
	require.NoError(t, tree.Verify())
	tree.Insert(3)
	assert.Equal(t, 11, alloc.Size(), "freed slots are reused")
}

func TestSharedAllocator(t *testing.T) {
	alloc := NewAllocator[int]()
	odd := NewRBTree(alloc)
	even := NewRBTree(alloc)
	for i := 0; i < 100; i++ {
		if i%2 == 0 {
			even.Insert(i)
		} else {
			odd.Insert(i)
		}
	}
	for i := 0; i < 100; i += 3 {
		if i%2 == 0 {
			assert.True(t, even.Delete(i))
		} else {
			assert.True(t, odd.Delete(i))
		}
	}
	require.NoError(t, odd.Verify())
	require.NoError(t, even.Verify())
	assert.Equal(t, odd.Len()+even.Len()+1, alloc.Used())
	for key := range odd.Keys() {
		assert.Equal(t, 1, key%2)
	}
}

func iterToString(i Iterator[int]) string {
	s := ""
	for ; !i.Limit(); i = i.Next() {
		if s != "" {
			s = s + ","
		}
		s = s + fmt.Sprintf("%d", i.Key())
	}
	return s
}

func reverseIterToString(i Iterator[int]) string {
	s := ""
	for ; !i.NegativeLimit(); i = i.Prev() {
		if s != "" {
			s = s + ","
		}
		s = s + fmt.Sprintf("%d", i.Key())
	}
	return s
}

func TestIterator(t *testing.T) {
	tree := testNewIntSet()
	for i := 0; i < 10; i = i + 2 {
		tree.Insert(i)
	}
	assert.Equal(t, "0,2,4,6,8", iterToString(tree.Min()))
	assert.Equal(t, "8,6,4,2,0", reverseIterToString(tree.Max()))
	assert.Equal(t, "4,6,8", iterToString(tree.Search(4)))
	assert.Equal(t, "4,2,0", reverseIterToString(tree.Search(4)))
	assert.Equal(t, "8", iterToString(tree.Search(8)))
	assert.Equal(t, "0", reverseIterToString(tree.Search(0)))
	assert.Equal(t, "0,2,4,6,8", iterToString(tree.NegativeLimit().Next()))
	assert.Equal(t, "8,6,4,2,0", reverseIterToString(tree.Limit().Prev()))
	assert.Panics(t, func() { tree.Limit().Next() })
	assert.Panics(t, func() { tree.NegativeLimit().Prev() })
	assert.Panics(t, func() { tree.Limit().Key() })
}

//
// Randomized tests
//

// oracle stores provides an interface similar to rbtree, but stores
// data in an sorted array
type oracle struct {
	data []int
}

func newOracle() *oracle {
	return &oracle{data: make([]int, 0)}
}

func (o *oracle) Len() int {
	return len(o.data)
}

func (o *oracle) Insert(key int) {
	i := sort.SearchInts(o.data, key)
	o.data = slices.Insert(o.data, i, key)
}

func (o *oracle) RandomExistingKey(rand *rand.Rand) int {
	index := rand.Intn(len(o.data))
	return o.data[index]
}

func (o *oracle) Delete(key int) bool {
	i := sort.SearchInts(o.data, key)
	if i == len(o.data) || o.data[i] != key {
		return false
	}
	o.data = slices.Delete(o.data, i, i+1)
	return true
}

// Predecessor returns the greatest key strictly less than key.
func (o *oracle) Predecessor(key int) (int, bool) {
	i := sort.SearchInts(o.data, key)
	if i == 0 {
		return 0, false
	}
	return o.data[i-1], true
}

// Successor returns the smallest key strictly greater than key.
func (o *oracle) Successor(key int) (int, bool) {
	i := sort.SearchInts(o.data, key+1)
	if i == len(o.data) {
		return 0, false
	}
	return o.data[i], true
}

func compareContents(t *testing.T, o *oracle, tree *RBTree[int]) {
	require.Equal(t, o.Len(), tree.Len())
	if o.Len() == 0 {
		require.Empty(t, slices.Collect(tree.Keys()))
	} else {
		require.Equal(t, o.data, slices.Collect(tree.Keys()))
	}
	require.NoError(t, tree.Verify())
}

func TestRandomized(t *testing.T) {
	const numKeys = 1000

	o := newOracle()
	tree := testNewIntSet()
	r := rand.New(rand.NewSource(0))
	for i := 0; i < 10000; i++ {
		op := r.Intn(100)
		if op < 50 {
			key := r.Intn(numKeys)
			o.Insert(key)
			tree.Insert(key)
			compareContents(t, o, tree)
		} else if op < 90 && o.Len() > 0 {
			key := o.RandomExistingKey(r)
			o.Delete(key)
			if !tree.Delete(key) {
				t.Fatal("DeleteExisting", key)
			}
			compareContents(t, o, tree)
		} else if op < 95 {
			key := r.Intn(numKeys)
			_, exists := slices.BinarySearch(o.data, key)
			assert.Equal(t, exists, tree.Contains(key), key)
		} else {
			key := r.Intn(numKeys)
			if !tree.Contains(key) {
				continue
			}
			// with duplicates the neighbour may be equal to the key itself
			pred, ok := tree.Predecessor(key)
			if ok && pred != key {
				expected, _ := o.Predecessor(key)
				assert.Equal(t, expected, pred, key)
			}
			succ, ok := tree.Successor(key)
			if ok && succ != key {
				expected, _ := o.Successor(key)
				assert.Equal(t, expected, succ, key)
			}
		}
	}
}

func TestPredecessorSuccessorDistinct(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	o := newOracle()
	tree := testNewIntSet()
	for _, key := range r.Perm(500) {
		o.Insert(key * 3)
		tree.Insert(key * 3)
	}
	for _, key := range o.data {
		expected, expectedOk := o.Predecessor(key)
		pred, ok := tree.Predecessor(key)
		assert.Equal(t, expectedOk, ok, key)
		assert.Equal(t, expected, pred, key)
		expected, expectedOk = o.Successor(key)
		succ, ok := tree.Successor(key)
		assert.Equal(t, expectedOk, ok, key)
		assert.Equal(t, expected, succ, key)
	}
}

func TestSizeConservation(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	tree := testNewIntSet()
	keys := r.Perm(2000)
	for i, key := range keys {
		tree.Insert(key)
		require.Equal(t, i+1, tree.Len())
	}
	require.NoError(t, tree.Verify())
	r.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
	for i, key := range keys {
		require.True(t, tree.Delete(key))
		require.Equal(t, len(keys)-i-1, tree.Len())
		require.NoError(t, tree.Verify(), "after deleting %d (iteration %d)", key, i)
	}
	assert.Equal(t, 1, tree.Allocator().Used())
}

func TestVerifyDetectsBrokenInvariants(t *testing.T) {
	tree := scenarioTree()
	alloc := tree.storage()
	alloc[tree.root].color = red
	assert.EqualError(t, tree.Verify(), "the root is red")
	alloc[tree.root].color = black

	alloc[0].color = red
	assert.EqualError(t, tree.Verify(), "the sentinel was modified")
	alloc[0].color = black

	leaf := tree.minimum(tree.root)
	alloc[leaf].color = black
	assert.Error(t, tree.Verify())
	alloc[leaf].color = red
	require.NoError(t, tree.Verify())

	tree.count++
	assert.Error(t, tree.Verify())
}

func BenchmarkInsert(b *testing.B) {
	for _, size := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("Size-%d", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				tree := testNewIntSet()
				for n := 0; n < size; n++ {
					tree.Insert(n)
				}
			}
		})
	}
}

func BenchmarkSearch(b *testing.B) {
	const size = 10000
	tree := testNewIntSet()
	for n := 0; n < size; n++ {
		tree.Insert(n)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree.Contains(i % size)
	}
}
