package pools

import "unsafe"

import "github.com/bnclabs/mempool/lib"

// Pool a node of a parent/child tree of bump arenas. A pool serves
// default-aligned allocations from an ordered ring of page blocks and
// reclaims all of them in one Clear or Destroy call. A single pool
// must be used from at most one goroutine at a time; different pools
// sharing one allocator may be used concurrently when the allocator
// carries a mutex.
type Pool struct {
	parent  *Pool
	child   *Pool // head of the child list
	sibling *Pool
	ref     **Pool // back-pointer to the slot pointing at this pool

	allocator      *Allocator
	active         *memnode // head of the circular node ring
	self           *memnode // the node whose body carries this pool's header
	selffirstavail int64

	avgalloc lib.AverageInt64 // allocation sizes requested from this pool
}

// sizeofmempool bytes reserved for the pool header inside the body of
// its self node, default-aligned.
var sizeofmempool = aligndefault(int64(unsafe.Sizeof(Pool{})))

// Create a pool. A nil parent attaches the pool to the global root, a
// nil allocator inherits the parent's. Partial failure leaves the
// parent untouched.
func Create(parent *Pool, allocator *Allocator) (*Pool, error) {
	if parent == nil {
		parent = gpool
	}
	if allocator == nil {
		if parent == nil {
			panicerr("pools.Create(): no allocator and pools not initialized")
		}
		allocator = parent.allocator
	}

	pool, err := bootstrap(allocator)
	if err != nil {
		return nil, err
	}

	if pool.parent = parent; parent != nil {
		mu := parent.allocator.mu
		if mu != nil {
			mu.Lock()
		}
		if pool.sibling = parent.child; pool.sibling != nil {
			pool.sibling.ref = &pool.sibling
		}
		parent.child = pool
		pool.ref = &parent.child
		if mu != nil {
			mu.Unlock()
		}
	}
	return pool, nil
}

// Createunmanaged create a pool without a parent. If allocator is nil
// a fresh one is created and owned by the pool; destroying the pool
// then destroys the allocator too.
func Createunmanaged(allocator *Allocator) (*Pool, error) {
	poolallocator := allocator
	if poolallocator == nil {
		poolallocator = NewAllocator(nil)
	}
	pool, err := bootstrap(poolallocator)
	if err != nil {
		return nil, err
	}
	if allocator == nil {
		poolallocator.owner = pool
	}
	return pool, nil
}

// bootstrap obtain the self node and lay the pool header out at the
// start of its usable region.
func bootstrap(allocator *Allocator) (*Pool, error) {
	node, err := allocator.alloc(Minalloc - sizeofmemnode)
	if err != nil {
		return nil, err
	}
	node.next = node
	node.ref = &node.next

	pool := &Pool{allocator: allocator, active: node, self: node}
	node.firstavail += sizeofmempool
	pool.selffirstavail = node.firstavail
	return pool, nil
}

// Alloc `insize` bytes from the pool, default-aligned.
func (pool *Pool) Alloc(insize int64) (unsafe.Pointer, error) {
	if pool.self == nil {
		panicerr("pools.Alloc(): pool destroyed")
	}
	size := aligndefault(insize)
	if size < insize {
		return nil, ErrorSizeOverflow
	}
	pool.avgalloc.Add(insize)

	// If the active node has enough bytes left, use it.
	active := pool.active
	if size <= active.freespace() {
		ptr := active.pointerat(active.firstavail)
		active.firstavail += size
		return ptr, nil
	}

	// Else the next node in the ring holds the most free space of the
	// remaining nodes; consult it before going to the allocator.
	node := active.next
	if size <= node.freespace() {
		listremove(node)
	} else {
		var err error
		if node, err = pool.allocator.alloc(size); err != nil {
			return nil, err
		}
	}

	node.freeindex = 0
	ptr := node.pointerat(node.firstavail)
	node.firstavail += size

	listinsert(node, active)
	pool.active = node

	// Reorder the old active so that the ring past the head stays
	// sorted by non-increasing freeindex.
	freeindex := (alignto(active.freespace()+1, Boundarysize) -
		Boundarysize) >> Boundaryindex
	active.freeindex = freeindex

	node = active.next
	if freeindex >= node.freeindex {
		return ptr, nil
	}
	for {
		node = node.next
		if freeindex >= node.freeindex {
			break
		}
	}
	listremove(active)
	listinsert(active, node)
	return ptr, nil
}

// Calloc like Alloc, with the returned span zeroed.
func (pool *Pool) Calloc(insize int64) (unsafe.Pointer, error) {
	ptr, err := pool.Alloc(insize)
	if err != nil {
		return nil, err
	}
	lib.Memzero(ptr, int(insize))
	return ptr, nil
}

// Clear destroy the subpools, reset the self node and give every
// other node back to the allocator. The pool is ready for reuse.
func (pool *Pool) Clear() {
	if pool.self == nil {
		panicerr("pools.Clear(): pool destroyed")
	}
	// The subpools detach themselves from this pool, so this loop is
	// safe and easy.
	for pool.child != nil {
		pool.child.Destroy()
	}

	active := pool.self
	pool.active = active
	active.firstavail = pool.selffirstavail

	if active.next == active {
		return
	}
	*active.ref = nil
	pool.allocator.free(active.next)
	active.next = active
	active.ref = &active.next
}

// Destroy the pool: subpools first, then unlink from the parent's
// child list and hand every node, the self node included, back to the
// allocator. An owned allocator is destroyed last.
func (pool *Pool) Destroy() {
	if pool.self == nil {
		panicerr("pools.Destroy(): pool destroyed")
	}
	for pool.child != nil {
		pool.child.Destroy()
	}

	// Remove the pool from the parent's child list.
	if pool.parent != nil {
		mu := pool.parent.allocator.mu
		if mu != nil {
			mu.Lock()
		}
		if *pool.ref = pool.sibling; pool.sibling != nil {
			pool.sibling.ref = pool.ref
		}
		if mu != nil {
			mu.Unlock()
		}
	}

	// Save a copy of the allocator reference, the pool's own fields
	// are about to be recycled.
	allocator := pool.allocator
	active := pool.self
	*active.ref = nil

	if allocator.owner == pool {
		// The mutex may live in memory reachable from this pool, make
		// sure the allocator no longer holds it.
		allocator.mu = nil
	}

	allocator.free(active)
	pool.self, pool.active, pool.allocator = nil, nil, nil
	pool.parent, pool.sibling, pool.ref = nil, nil, nil

	if allocator.owner == pool {
		allocator.Destroy()
	}
}
