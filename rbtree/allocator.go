package rbtree

import (
	"cmp"
	"fmt"
	"sync"

	"github.com/gogo/protobuf/sortkeys"
)

// Allocator is the allocator for nodes in a RBTree.
//
// Slot 0 is the sentinel: it is black, carries the zero key and its links
// are never written. All trees bound to the same allocator share it.
type Allocator[K cmp.Ordered] struct {
	HibernationThreshold int

	storage              []node[K]
	gaps                 map[uint32]bool
	hibernatedData       [5][]byte
	hibernatedKeys       []K
	hibernatedStorageLen int
	hibernatedGapsLen    int
}

// NewAllocator creates a new allocator for RBTree's nodes.
func NewAllocator[K cmp.Ordered]() *Allocator[K] {
	return &Allocator[K]{
		storage: []node[K]{{}},
		gaps:    map[uint32]bool{},
	}
}

// Size returns the currently allocated size, including the sentinel.
func (allocator *Allocator[K]) Size() int {
	return len(allocator.storage)
}

// Used returns the number of nodes contained in the allocator, including the sentinel.
func (allocator *Allocator[K]) Used() int {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}
	return len(allocator.storage) - len(allocator.gaps)
}

// Hibernated reports whether Hibernate() compressed the storage.
func (allocator *Allocator[K]) Hibernated() bool {
	return allocator.hibernatedStorageLen > 0
}

// Hibernate compresses the allocated memory. The structural columns are
// packed with LZ4, the keys are kept as they are.
func (allocator *Allocator[K]) Hibernate() {
	if allocator.hibernatedStorageLen > 0 {
		panic("cannot hibernate an already hibernated Allocator")
	}
	if len(allocator.storage) < allocator.HibernationThreshold {
		return
	}
	allocator.hibernatedStorageLen = len(allocator.storage)
	buffers := [4][]uint32{}
	for i := 0; i < len(buffers); i++ {
		buffers[i] = make([]uint32, len(allocator.storage))
	}
	keys := make([]K, len(allocator.storage))
	// we deinterleave to achieve a better compression ratio
	for i, n := range allocator.storage {
		keys[i] = n.key
		buffers[0][i] = n.left
		buffers[1][i] = n.parent
		buffers[2][i] = n.right
		if n.color == red {
			buffers[3][i] = 1
		}
	}
	allocator.hibernatedKeys = keys
	allocator.storage = nil
	wg := &sync.WaitGroup{}
	wg.Add(len(buffers) + 1)
	for i, buffer := range buffers {
		go func(i int, buffer []uint32) {
			defer wg.Done()
			allocator.hibernatedData[i] = CompressUInt32Slice(buffer)
			buffers[i] = nil
		}(i, buffer)
	}
	// compress gaps
	go func() {
		defer wg.Done()
		if len(allocator.gaps) > 0 {
			allocator.hibernatedGapsLen = len(allocator.gaps)
			gapsBuffer := make([]uint32, 0, len(allocator.gaps))
			for key := range allocator.gaps {
				gapsBuffer = append(gapsBuffer, key)
			}
			sortkeys.Uint32s(gapsBuffer)
			allocator.hibernatedData[len(buffers)] = CompressUInt32Slice(gapsBuffer)
		}
		allocator.gaps = nil
	}()
	wg.Wait()
}

// Boot performs the opposite of Hibernate() - decompresses and restores the allocated memory.
func (allocator *Allocator[K]) Boot() {
	if allocator.hibernatedStorageLen == 0 {
		// not hibernated
		return
	}
	allocator.gaps = map[uint32]bool{}
	buffers := [4][]uint32{}
	errs := [5]error{}
	wg := &sync.WaitGroup{}
	wg.Add(len(buffers) + 1)
	for i := 0; i < len(buffers); i++ {
		go func(i int) {
			defer wg.Done()
			buffers[i] = make([]uint32, allocator.hibernatedStorageLen)
			errs[i] = DecompressUInt32Slice(allocator.hibernatedData[i], buffers[i])
			allocator.hibernatedData[i] = nil
		}(i)
	}
	go func() {
		defer wg.Done()
		if allocator.hibernatedGapsLen > 0 {
			gapData := allocator.hibernatedData[len(buffers)]
			buffer := make([]uint32, allocator.hibernatedGapsLen)
			errs[len(buffers)] = DecompressUInt32Slice(gapData, buffer)
			for _, key := range buffer {
				allocator.gaps[key] = true
			}
			allocator.hibernatedData[len(buffers)] = nil
			allocator.hibernatedGapsLen = 0
		}
	}()
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			panic(fmt.Sprintf("cannot boot a corrupted Allocator: %v", err))
		}
	}
	allocator.storage = make([]node[K], allocator.hibernatedStorageLen, (allocator.hibernatedStorageLen*3)/2)
	for i := range allocator.storage {
		n := &allocator.storage[i]
		n.key = allocator.hibernatedKeys[i]
		n.left = buffers[0][i]
		n.parent = buffers[1][i]
		n.right = buffers[2][i]
		if buffers[3][i] > 0 {
			n.color = red
		}
	}
	allocator.hibernatedKeys = nil
	allocator.hibernatedStorageLen = 0
}

func (allocator *Allocator[K]) malloc() uint32 {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}
	if len(allocator.gaps) > 0 {
		var key uint32
		for key = range allocator.gaps {
			break
		}
		delete(allocator.gaps, key)
		return key
	}
	n := len(allocator.storage)
	if n == negativeLimitNode {
		// math.MaxUint32 is reserved
		panic("the size of my RBTree allocator has reached the maximum value for uint32, sorry")
	}
	allocator.storage = append(allocator.storage, node[K]{})
	return uint32(n)
}

func (allocator *Allocator[K]) free(n uint32) {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}
	if n == 0 {
		panic("node #0 is special and cannot be deallocated")
	}
	_, exists := allocator.gaps[n]
	doAssert(!exists)
	allocator.storage[n] = node[K]{}
	allocator.gaps[n] = true
}
