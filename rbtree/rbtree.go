// Package rbtree implements an ordered set of cmp.Ordered keys as a
// red-black tree.
//
// Nodes are kept in an Allocator and refer to each other by index, slot 0
// being the shared black sentinel which stands for every missing child and
// for the root's parent. Insert, Delete and Search are O(log n). Equal keys
// are allowed and become distinct nodes: an insert of an equal key descends
// to the right, Search and Delete act on the first equal node met on the way
// down from the root.
//
// A tree must not be mutated concurrently.
package rbtree

import (
	"cmp"
	"math"
)

type color bool

const (
	black color = false
	red   color = true

	negativeLimitNode = math.MaxUint32
)

type node[K cmp.Ordered] struct {
	key                 K
	parent, left, right uint32
	color               color
}

// RBTree is a red-black tree with an API similar to C++ STL's.
type RBTree[K cmp.Ordered] struct {
	// Root of the tree, 0 when empty
	root uint32

	// Number of nodes under root, including the root
	count int

	// Nodes allocator
	allocator *Allocator[K]
}

// New creates an empty tree with its own allocator.
func New[K cmp.Ordered]() *RBTree[K] {
	return NewRBTree(NewAllocator[K]())
}

// NewRBTree creates a new red-black binary tree bound to the given allocator.
func NewRBTree[K cmp.Ordered](allocator *Allocator[K]) *RBTree[K] {
	return &RBTree[K]{allocator: allocator}
}

func (tree *RBTree[K]) storage() []node[K] {
	return tree.allocator.storage
}

// Allocator returns the bound nodes allocator.
func (tree *RBTree[K]) Allocator() *Allocator[K] {
	return tree.allocator
}

// Len returns the number of elements in the tree.
func (tree *RBTree[K]) Len() int {
	return tree.count
}

// Erase removes all the nodes from the tree.
func (tree *RBTree[K]) Erase() {
	nodes := make([]uint32, 0, tree.count)
	for iter := tree.Min(); !iter.Limit(); iter = iter.Next() {
		nodes = append(nodes, iter.node)
	}
	for _, n := range nodes {
		tree.allocator.free(n)
	}
	tree.root = 0
	tree.count = 0
}

// Insert adds the key to the tree and returns the iterator pointing to the new node.
// Duplicates are inserted as separate nodes.
func (tree *RBTree[K]) Insert(key K) Iterator[K] {
	n := tree.allocator.malloc()
	alloc := tree.storage()
	alloc[n] = node[K]{key: key, color: red}

	parent := uint32(0)
	current := tree.root
	for current != 0 {
		parent = current
		if cmp.Less(key, alloc[current].key) {
			current = alloc[current].left
		} else {
			current = alloc[current].right
		}
	}

	alloc[n].parent = parent
	if parent == 0 {
		tree.root = n
	} else if cmp.Less(key, alloc[parent].key) {
		alloc[parent].left = n
	} else {
		alloc[parent].right = n
	}
	tree.count++

	tree.insertFixup(n)
	return Iterator[K]{tree, n}
}

func (tree *RBTree[K]) insertFixup(n uint32) {
	alloc := tree.storage()
	for alloc[alloc[n].parent].color == red {
		parent := alloc[n].parent
		grandparent := alloc[parent].parent
		if parent == alloc[grandparent].left {
			uncle := alloc[grandparent].right
			if alloc[uncle].color == red {
				// Case A: push the violation up
				alloc[parent].color = black
				alloc[uncle].color = black
				alloc[grandparent].color = red
				n = grandparent
				continue
			}
			if n == alloc[parent].right {
				// Case B: triangle -> line
				n = parent
				tree.rotateLeft(n)
				parent = alloc[n].parent
			}
			// Case C: line
			alloc[parent].color = black
			alloc[grandparent].color = red
			tree.rotateRight(grandparent)
		} else {
			uncle := alloc[grandparent].left
			if alloc[uncle].color == red {
				// Case A: push the violation up
				alloc[parent].color = black
				alloc[uncle].color = black
				alloc[grandparent].color = red
				n = grandparent
				continue
			}
			if n == alloc[parent].left {
				// Case B: triangle -> line
				n = parent
				tree.rotateRight(n)
				parent = alloc[n].parent
			}
			// Case C: line
			alloc[parent].color = black
			alloc[grandparent].color = red
			tree.rotateLeft(grandparent)
		}
	}
	alloc[tree.root].color = black
}

// Delete removes the first node with the given key met on the way down from
// the root. Returns false and leaves the tree untouched if there is none.
func (tree *RBTree[K]) Delete(key K) bool {
	n := tree.find(key)
	if n == 0 {
		return false
	}
	tree.doDelete(n)
	return true
}

// DeleteWithIterator deletes the current item.
//
// REQUIRES: !iter.Limit() && !iter.NegativeLimit()
func (tree *RBTree[K]) DeleteWithIterator(iter Iterator[K]) {
	doAssert(!iter.Limit() && !iter.NegativeLimit())
	doAssert(iter.tree == tree)
	tree.doDelete(iter.node)
}

func (tree *RBTree[K]) doDelete(z uint32) {
	alloc := tree.storage()
	removedColor := alloc[z].color
	// x takes the place of the removed node, xParent is tracked separately
	// because x may be the sentinel
	var x, xParent uint32

	if alloc[z].left == 0 {
		x = alloc[z].right
		xParent = alloc[z].parent
		tree.transplant(z, x)
	} else if alloc[z].right == 0 {
		x = alloc[z].left
		xParent = alloc[z].parent
		tree.transplant(z, x)
	} else {
		y := tree.minimum(alloc[z].right)
		removedColor = alloc[y].color
		x = alloc[y].right
		if alloc[y].parent == z {
			xParent = y
		} else {
			xParent = alloc[y].parent
			tree.transplant(y, x)
			alloc[y].right = alloc[z].right
			alloc[alloc[y].right].parent = y
		}
		tree.transplant(z, y)
		alloc[y].left = alloc[z].left
		alloc[alloc[y].left].parent = y
		alloc[y].color = alloc[z].color
	}

	if removedColor == black {
		tree.deleteFixup(x, xParent)
	}
	tree.allocator.free(z)
	tree.count--
}

func (tree *RBTree[K]) deleteFixup(x, parent uint32) {
	alloc := tree.storage()
	for x != tree.root && alloc[x].color == black {
		if x == alloc[parent].left {
			sibling := alloc[parent].right
			if alloc[sibling].color == red {
				// sibling red
				alloc[sibling].color = black
				alloc[parent].color = red
				tree.rotateLeft(parent)
				sibling = alloc[parent].right
			}
			if alloc[alloc[sibling].left].color == black && alloc[alloc[sibling].right].color == black {
				// both children of the sibling are black
				alloc[sibling].color = red
				x = parent
				parent = alloc[x].parent
				continue
			}
			if alloc[alloc[sibling].right].color == black {
				// far child black, near child red
				alloc[alloc[sibling].left].color = black
				alloc[sibling].color = red
				tree.rotateRight(sibling)
				sibling = alloc[parent].right
			}
			// far child red
			alloc[sibling].color = alloc[parent].color
			alloc[parent].color = black
			alloc[alloc[sibling].right].color = black
			tree.rotateLeft(parent)
			x = tree.root
		} else {
			sibling := alloc[parent].left
			if alloc[sibling].color == red {
				// sibling red
				alloc[sibling].color = black
				alloc[parent].color = red
				tree.rotateRight(parent)
				sibling = alloc[parent].left
			}
			if alloc[alloc[sibling].right].color == black && alloc[alloc[sibling].left].color == black {
				// both children of the sibling are black
				alloc[sibling].color = red
				x = parent
				parent = alloc[x].parent
				continue
			}
			if alloc[alloc[sibling].left].color == black {
				// far child black, near child red
				alloc[alloc[sibling].right].color = black
				alloc[sibling].color = red
				tree.rotateLeft(sibling)
				sibling = alloc[parent].left
			}
			// far child red
			alloc[sibling].color = alloc[parent].color
			alloc[parent].color = black
			alloc[alloc[sibling].left].color = black
			tree.rotateRight(parent)
			x = tree.root
		}
	}
	if x != 0 {
		alloc[x].color = black
	}
}

// transplant puts v in place of u. The children of v stay as they are.
func (tree *RBTree[K]) transplant(u, v uint32) {
	alloc := tree.storage()
	parent := alloc[u].parent
	if parent == 0 {
		tree.root = v
	} else if u == alloc[parent].left {
		alloc[parent].left = v
	} else {
		alloc[parent].right = v
	}
	if v != 0 {
		alloc[v].parent = parent
	}
}

/*
    X		     Y
  A   Y	    =>     X   C
     B C 	  A B
*/
func (tree *RBTree[K]) rotateLeft(x uint32) {
	alloc := tree.storage()
	y := alloc[x].right
	doAssert(y != 0)
	alloc[x].right = alloc[y].left
	if alloc[y].left != 0 {
		alloc[alloc[y].left].parent = x
	}
	alloc[y].parent = alloc[x].parent
	if alloc[x].parent == 0 {
		tree.root = y
	} else if isLeftChild(x, alloc) {
		alloc[alloc[x].parent].left = y
	} else {
		alloc[alloc[x].parent].right = y
	}
	alloc[y].left = x
	alloc[x].parent = y
}

/*
     Y           X
   X   C  =>   A   Y
  A B             B C
*/
func (tree *RBTree[K]) rotateRight(y uint32) {
	alloc := tree.storage()
	x := alloc[y].left
	doAssert(x != 0)

	// Move "B"
	alloc[y].left = alloc[x].right
	if alloc[x].right != 0 {
		alloc[alloc[x].right].parent = y
	}

	alloc[x].parent = alloc[y].parent
	if alloc[y].parent == 0 {
		tree.root = x
	} else if isLeftChild(y, alloc) {
		alloc[alloc[y].parent].left = x
	} else {
		alloc[alloc[y].parent].right = x
	}
	alloc[x].right = y
	alloc[y].parent = x
}

func doAssert(b bool) {
	if !b {
		panic("rbtree internal assertion failed")
	}
}

//
// Internal node attribute accessors
//

func isLeftChild[K cmp.Ordered](n uint32, alloc []node[K]) bool {
	return n == alloc[alloc[n].parent].left
}

func isRightChild[K cmp.Ordered](n uint32, alloc []node[K]) bool {
	return n == alloc[alloc[n].parent].right
}
