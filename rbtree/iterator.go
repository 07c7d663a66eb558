package rbtree

import (
	"cmp"
	"iter"
)

// Iterator allows scanning tree elements in sort order.
//
// Iterator invalidation rule is the same as C++ std::map<>'s. That
// is, if you delete the element that an iterator points to, the
// iterator becomes invalid. For other operation types, the iterator
// remains valid.
type Iterator[K cmp.Ordered] struct {
	tree *RBTree[K]
	node uint32
}

// Equal checks for the underlying nodes equality.
func (iter Iterator[K]) Equal(other Iterator[K]) bool {
	return iter.node == other.node
}

// Limit checks if the iterator points beyond the max element in the tree.
func (iter Iterator[K]) Limit() bool {
	return iter.node == 0
}

// NegativeLimit checks if the iterator points before the minimum element in the tree.
func (iter Iterator[K]) NegativeLimit() bool {
	return iter.node == negativeLimitNode
}

// Key returns the current element.
//
// REQUIRES: !iter.Limit() && !iter.NegativeLimit()
func (iter Iterator[K]) Key() K {
	doAssert(!iter.Limit() && !iter.NegativeLimit())
	return iter.tree.storage()[iter.node].key
}

// Next creates a new iterator that points to the successor of the current element.
//
// REQUIRES: !iter.Limit()
func (iter Iterator[K]) Next() Iterator[K] {
	doAssert(!iter.Limit())
	if iter.NegativeLimit() {
		return iter.tree.Min()
	}
	return Iterator[K]{iter.tree, doNext(iter.node, iter.tree.storage())}
}

// Prev creates a new iterator that points to the predecessor of the current
// node.
//
// REQUIRES: !iter.NegativeLimit()
func (iter Iterator[K]) Prev() Iterator[K] {
	doAssert(!iter.NegativeLimit())
	if iter.Limit() {
		return iter.tree.Max()
	}
	return Iterator[K]{iter.tree, doPrev(iter.node, iter.tree.storage())}
}

// Min creates an iterator that points to the minimum item in the tree.
// If the tree is empty, returns Limit().
func (tree *RBTree[K]) Min() Iterator[K] {
	return Iterator[K]{tree, tree.minimum(tree.root)}
}

// Max creates an iterator that points at the maximum item in the tree.
// If the tree is empty, returns NegativeLimit().
func (tree *RBTree[K]) Max() Iterator[K] {
	if tree.root == 0 {
		return Iterator[K]{tree, negativeLimitNode}
	}
	return Iterator[K]{tree, tree.maximum(tree.root)}
}

// Limit creates an iterator that points beyond the maximum item in the tree.
func (tree *RBTree[K]) Limit() Iterator[K] {
	return Iterator[K]{tree, 0}
}

// NegativeLimit creates an iterator that points before the minimum item in the tree.
func (tree *RBTree[K]) NegativeLimit() Iterator[K] {
	return Iterator[K]{tree, negativeLimitNode}
}

// Search finds the first node with the given key met on the way down from
// the root. Returns Limit() if there is none.
func (tree *RBTree[K]) Search(key K) Iterator[K] {
	return Iterator[K]{tree, tree.find(key)}
}

// Contains checks if the key is present in the tree.
func (tree *RBTree[K]) Contains(key K) bool {
	return tree.find(key) != 0
}

// Minimum returns the smallest key. The second value is false if the tree is empty.
func (tree *RBTree[K]) Minimum() (K, bool) {
	return tree.keyOf(tree.minimum(tree.root))
}

// Maximum returns the largest key. The second value is false if the tree is empty.
func (tree *RBTree[K]) Maximum() (K, bool) {
	return tree.keyOf(tree.maximum(tree.root))
}

// Predecessor returns the key which precedes the given one in sort order.
// The second value is false if the key is missing or is the minimum.
func (tree *RBTree[K]) Predecessor(key K) (K, bool) {
	n := tree.find(key)
	if n == 0 {
		var zero K
		return zero, false
	}
	return tree.keyOf(doPrev(n, tree.storage()))
}

// Successor returns the key which follows the given one in sort order.
// The second value is false if the key is missing or is the maximum.
func (tree *RBTree[K]) Successor(key K) (K, bool) {
	n := tree.find(key)
	if n == 0 {
		var zero K
		return zero, false
	}
	return tree.keyOf(doNext(n, tree.storage()))
}

// Keys yields the keys in ascending order.
func (tree *RBTree[K]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		tree.walk(tree.root, yield)
	}
}

func (tree *RBTree[K]) walk(n uint32, yield func(K) bool) bool {
	if n == 0 {
		return true
	}
	alloc := tree.storage()
	if !tree.walk(alloc[n].left, yield) {
		return false
	}
	if !yield(alloc[n].key) {
		return false
	}
	return tree.walk(alloc[n].right, yield)
}

func (tree *RBTree[K]) keyOf(n uint32) (K, bool) {
	if n == 0 || n == negativeLimitNode {
		var zero K
		return zero, false
	}
	return tree.storage()[n].key, true
}

func (tree *RBTree[K]) find(key K) uint32 {
	alloc := tree.storage()
	n := tree.root
	for n != 0 {
		switch c := cmp.Compare(key, alloc[n].key); {
		case c == 0:
			return n
		case c < 0:
			n = alloc[n].left
		default:
			n = alloc[n].right
		}
	}
	return 0
}

func (tree *RBTree[K]) minimum(n uint32) uint32 {
	alloc := tree.storage()
	if n == 0 {
		return 0
	}
	for alloc[n].left != 0 {
		n = alloc[n].left
	}
	return n
}

func (tree *RBTree[K]) maximum(n uint32) uint32 {
	alloc := tree.storage()
	if n == 0 {
		return 0
	}
	for alloc[n].right != 0 {
		n = alloc[n].right
	}
	return n
}

// Return the minimum node that's larger than N. Return 0 if no such
// node is found.
func doNext[K cmp.Ordered](n uint32, alloc []node[K]) uint32 {
	if alloc[n].right != 0 {
		m := alloc[n].right
		for alloc[m].left != 0 {
			m = alloc[m].left
		}
		return m
	}

	for n != 0 {
		p := alloc[n].parent
		if p == 0 {
			return 0
		}
		if isLeftChild(n, alloc) {
			return p
		}
		n = p
	}
	return 0
}

// Return the maximum node that's smaller than N. Return negativeLimitNode
// if no such node is found.
func doPrev[K cmp.Ordered](n uint32, alloc []node[K]) uint32 {
	if alloc[n].left != 0 {
		m := alloc[n].left
		for alloc[m].right != 0 {
			m = alloc[m].right
		}
		return m
	}

	for n != 0 {
		p := alloc[n].parent
		if p == 0 {
			break
		}
		if isRightChild(n, alloc) {
			return p
		}
		n = p
	}
	return negativeLimitNode
}
