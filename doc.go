/*
Package ordtree is the root of a red-black tree ordered set library and its
command line tool.

The tree itself lives in the rbtree package. It keeps the nodes in an arena
(rbtree.Allocator) and links them with uint32 indices, slot 0 being the
shared black sentinel. Equal keys are allowed and are placed to the right:

	tree := rbtree.New[int]()
	for _, key := range []int{10, 20, 30, 100, 15, 17, 85, 50} {
		tree.Insert(key)
	}
	pred, _ := tree.Predecessor(30) // 20
	succ, _ := tree.Successor(30)   // 50
	tree.Delete(30)
	for key := range tree.Keys() {
		fmt.Println(key)
	}
	if err := tree.Verify(); err != nil {
		panic(err)
	}

cmd/ordtree executes operation scripts against a tree ("ordtree run") and
cross-checks the tree against github.com/google/btree on randomized
sequences ("ordtree stress").
*/
package ordtree
