package pools

import "sync"
import "sync/atomic"

import s "github.com/bnclabs/gosettings"
import humanize "github.com/dustin/go-humanize"

// Allocator cache of reusable page blocks organized as size-class
// freelists plus an oversize sink. Several pools can share one
// allocator; install a mutex with Setmutex if they run on different
// goroutines.
type Allocator struct {
	// 64-bit aligned stats
	nobtains  int64 // blocks obtained from the page source
	nreleases int64 // blocks released to the page source
	nreuses   int64 // blocks served from the freelists

	maxindex         int64 // one past the highest non-empty non-sink slot
	maxfreeindex     int64 // retention cap in boundary units, 0 unlimited
	currentfreeindex int64 // remaining credit below the cap
	mu               *sync.Mutex
	owner            *Pool
	pages            Pagesource

	// Lists of free nodes. Slot 0 is used for oversized nodes, and
	// slot k in 1..Maxindex-1 holds nodes of size (k+1)*Boundarysize.
	// Example for Boundaryindex == 12:
	// slot  0: nodes larger than 81920
	// slot  1: size  8192
	// slot  2: size 12288
	// ...
	// slot 19: size 81920
	free [Maxindex]*memnode
}

// NewAllocator create a fresh allocator, all freelist slots empty.
// Supply nil settings for Defaultsettings().
func NewAllocator(setts s.Settings) *Allocator {
	if setts == nil {
		setts = Defaultsettings()
	}
	allocator := &Allocator{
		pages: newpagesource(setts.String("pagesource")),
	}
	if maxfree := setts.Int64("maxfree"); maxfree != Maxfreeunlimited {
		allocator.Maxfreeset(maxfree)
	}
	if setts.Bool("threadsafe") {
		allocator.Setmutex(&sync.Mutex{})
	}
	debugf("%v created\n", allocator.logprefix())
	return allocator
}

// Setmutex install `mu` as the unit of mutual exclusion for this
// allocator. Freelist mutations and pool tree-linkage updates route
// through it.
func (allocator *Allocator) Setmutex(mu *sync.Mutex) {
	allocator.mu = mu
}

// Maxfreeset install a new retention cap of `size` bytes, rounded up
// to boundary units. Maxfreeunlimited means never give blocks back.
func (allocator *Allocator) Maxfreeset(size int64) {
	if allocator.mu != nil {
		allocator.mu.Lock()
		defer allocator.mu.Unlock()
	}

	maxfreeindex := alignto(size, Boundarysize) >> Boundaryindex
	current := allocator.currentfreeindex + maxfreeindex - allocator.maxfreeindex
	if current < 0 || current > maxfreeindex {
		current = maxfreeindex
	}
	allocator.currentfreeindex = current
	allocator.maxfreeindex = maxfreeindex
}

// Destroy release every cached node back to the page source. The
// owner pool, if any, is already gone by the time this is called.
func (allocator *Allocator) Destroy() {
	count, bytes := int64(0), int64(0)
	for index := 0; index < Maxindex; index++ {
		for node := allocator.free[index]; node != nil; node = allocator.free[index] {
			allocator.free[index] = node.next
			count, bytes = count+1, bytes+node.endp
			allocator.pages.Release(node.block)
		}
	}
	atomic.AddInt64(&allocator.nreleases, count)
	debugf("%v destroyed, gave back %v nodes %v\n",
		allocator.logprefix(), count, humanize.Ibytes(uint64(bytes)))
}

// alloc return a node whose usable span holds at least `insize` bytes
// past the header, from cache if possible, else from the page source.
func (allocator *Allocator) alloc(insize int64) (*memnode, error) {
	// Round up the block size to the next boundary, but always
	// allocate at least a certain size (Minalloc).
	size := alignto(insize+sizeofmemnode, Boundarysize)
	if size < insize {
		return nil, ErrorSizeOverflow
	}
	if size < Minalloc {
		size = Minalloc
	}

	// Find the index for this node size by dividing its size by the
	// boundary size.
	index := (size >> Boundaryindex) - 1

	if index < allocator.maxindex {
		if allocator.mu != nil {
			allocator.mu.Lock()
		}
		// Walk the free list to see if there are any nodes on it of
		// the requested size.
		for i := index; i < allocator.maxindex; i++ {
			node := allocator.free[i]
			if node == nil {
				continue
			}
			// If this node doesn't have any nodes waiting in line
			// behind it and it sits on the highest slot, find the
			// new highest slot.
			if allocator.free[i] = node.next; node.next == nil && i == allocator.maxindex-1 {
				m := i
				for m > 0 && allocator.free[m] == nil {
					m--
				}
				if m > 0 {
					allocator.maxindex = m + 1
				} else {
					allocator.maxindex = 0
				}
			}
			allocator.creditfree(node)
			if allocator.mu != nil {
				allocator.mu.Unlock()
			}
			atomic.AddInt64(&allocator.nreuses, 1)
			node.next, node.firstavail = nil, sizeofmemnode
			initnode(node)
			return node, nil
		}
		if allocator.mu != nil {
			allocator.mu.Unlock()
		}

	} else if allocator.free[0] != nil {
		if allocator.mu != nil {
			allocator.mu.Lock()
		}
		// Seek the sink, its nodes are kept in non-decreasing index
		// order, the first fit is the tightest fit.
		ref := &allocator.free[0]
		node := *ref
		for node != nil && index > node.index {
			ref = &node.next
			node = *ref
		}
		if node != nil {
			*ref = node.next
			allocator.creditfree(node)
			if allocator.mu != nil {
				allocator.mu.Unlock()
			}
			atomic.AddInt64(&allocator.nreuses, 1)
			node.next, node.firstavail = nil, sizeofmemnode
			initnode(node)
			return node, nil
		}
		if allocator.mu != nil {
			allocator.mu.Unlock()
		}
	}

	// If we haven't got a suitable node, ask the page source for a
	// new one and initialize it.
	block, err := allocator.pages.Obtain(size)
	if err != nil {
		return nil, err
	}
	atomic.AddInt64(&allocator.nobtains, 1)
	node := &memnode{
		index:      index,
		firstavail: sizeofmemnode,
		endp:       size,
		block:      block,
	}
	return node, nil
}

// creditfree account a node leaving the freelists, caller holds the
// mutex.
func (allocator *Allocator) creditfree(node *memnode) {
	allocator.currentfreeindex += node.index + 1
	if allocator.currentfreeindex > allocator.maxfreeindex {
		allocator.currentfreeindex = allocator.maxfreeindex
	}
}

// free return a nil-terminated next-linked list of nodes to the
// freelists. Nodes that would push retained memory over the cap are
// released to the page source, outside the mutex.
func (allocator *Allocator) free(node *memnode) {
	if allocator.mu != nil {
		allocator.mu.Lock()
	}

	maxindex := allocator.maxindex
	maxfreeindex := allocator.maxfreeindex
	currentfreeindex := allocator.currentfreeindex

	// Walk the list of submitted nodes, shoving them in the right
	// size buckets as we go.
	var evictlist *memnode
	for node != nil {
		next, index := node.next, node.index

		if maxfreeindex != Maxfreeunlimited && index+1 > currentfreeindex {
			node.next = evictlist
			evictlist = node

		} else if index < Maxindex {
			node.next = allocator.free[index]
			allocator.free[index] = node
			if index+1 > maxindex {
				maxindex = index + 1
			}
			if currentfreeindex >= index+1 {
				currentfreeindex -= index + 1
			} else {
				currentfreeindex = 0
			}

		} else {
			// This node is too large for a specific size bucket, slip
			// it into the sink keeping the sink sorted by index.
			ref := &allocator.free[0]
			for *ref != nil && (*ref).index < index {
				ref = &(*ref).next
			}
			node.next = *ref
			*ref = node
			if currentfreeindex >= index+1 {
				currentfreeindex -= index + 1
			} else {
				currentfreeindex = 0
			}
		}
		node = next
	}

	allocator.maxindex = maxindex
	allocator.currentfreeindex = currentfreeindex

	if allocator.mu != nil {
		allocator.mu.Unlock()
	}

	for evictlist != nil {
		node, evictlist = evictlist, evictlist.next
		atomic.AddInt64(&allocator.nreleases, 1)
		allocator.pages.Release(node.block)
		node.block, node.next = nil, nil
	}
}
