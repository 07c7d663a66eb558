package rbtree

import (
	"cmp"

	"github.com/pkg/errors"
)

// Height returns the number of nodes on the longest path from the root to a leaf.
func (tree *RBTree[K]) Height() int {
	return tree.height(tree.root)
}

func (tree *RBTree[K]) height(n uint32) int {
	if n == 0 {
		return 0
	}
	alloc := tree.storage()
	return 1 + max(tree.height(alloc[n].left), tree.height(alloc[n].right))
}

// Verify validates the red-black tree invariants:
//  1. the sentinel is black and untouched
//  2. the root is black
//  3. red nodes have black children
//  4. all paths from a node to the leaves have the same number of black nodes
//  5. the in-order sequence of keys is non-decreasing
//
// It also checks that the parent links agree with the child links and that
// Len() matches the number of reachable nodes.
func (tree *RBTree[K]) Verify() error {
	alloc := tree.storage()
	if alloc == nil {
		return errors.New("the allocator is hibernated")
	}
	sentinel := alloc[0]
	if sentinel.color != black || sentinel.left != 0 || sentinel.right != 0 || sentinel.parent != 0 {
		return errors.New("the sentinel was modified")
	}
	if tree.root == 0 {
		if tree.count != 0 {
			return errors.Errorf("empty tree reports %d nodes", tree.count)
		}
		return nil
	}
	if alloc[tree.root].color != black {
		return errors.New("the root is red")
	}
	if alloc[tree.root].parent != 0 {
		return errors.Errorf("the root #%d has parent #%d", tree.root, alloc[tree.root].parent)
	}
	count, _, err := tree.verifySubtree(tree.root)
	if err != nil {
		return err
	}
	if count != tree.count {
		return errors.Errorf("%d nodes are reachable but Len() is %d", count, tree.count)
	}
	var prev K
	first := true
	for key := range tree.Keys() {
		if !first && cmp.Less(key, prev) {
			return errors.Errorf("keys are out of order: %v follows %v", key, prev)
		}
		prev = key
		first = false
	}
	return nil
}

// verifySubtree returns the number of nodes and the black height of the subtree.
func (tree *RBTree[K]) verifySubtree(n uint32) (int, int, error) {
	if n == 0 {
		return 0, 1, nil
	}
	alloc := tree.storage()
	left, right := alloc[n].left, alloc[n].right
	if alloc[n].color == red && (alloc[left].color == red || alloc[right].color == red) {
		return 0, 0, errors.Errorf("red node #%d has a red child", n)
	}
	for _, child := range [2]uint32{left, right} {
		if child != 0 && alloc[child].parent != n {
			return 0, 0, errors.Errorf("node #%d has parent #%d instead of #%d",
				child, alloc[child].parent, n)
		}
	}
	leftCount, leftHeight, err := tree.verifySubtree(left)
	if err != nil {
		return 0, 0, err
	}
	rightCount, rightHeight, err := tree.verifySubtree(right)
	if err != nil {
		return 0, 0, err
	}
	if leftHeight != rightHeight {
		return 0, 0, errors.Errorf("node #%d has black heights %d (left) and %d (right)",
			n, leftHeight, rightHeight)
	}
	if alloc[n].color == black {
		leftHeight++
	}
	return leftCount + rightCount + 1, leftHeight, nil
}
