package pools

import "fmt"
import "sync/atomic"

import humanize "github.com/dustin/go-humanize"

// Info return the number of cached nodes in the freelists and the
// bytes they hold.
func (allocator *Allocator) Info() (cached, cachedbytes int64) {
	if allocator.mu != nil {
		allocator.mu.Lock()
		defer allocator.mu.Unlock()
	}
	for index := 0; index < Maxindex; index++ {
		for node := allocator.free[index]; node != nil; node = node.next {
			cached++
			cachedbytes += node.endp
		}
	}
	return cached, cachedbytes
}

// Statistics of this allocator's caching behaviour.
func (allocator *Allocator) Statistics() map[string]interface{} {
	cached, cachedbytes := allocator.Info()
	return map[string]interface{}{
		"cached":           cached,
		"cachedbytes":      cachedbytes,
		"maxfreeindex":     allocator.maxfreeindex,
		"currentfreeindex": allocator.currentfreeindex,
		"obtains":          atomic.LoadInt64(&allocator.nobtains),
		"releases":         atomic.LoadInt64(&allocator.nreleases),
		"reuses":           atomic.LoadInt64(&allocator.nreuses),
	}
}

// Prettystats one-line human readable rendition of Statistics.
func (allocator *Allocator) Prettystats() string {
	cached, cachedbytes := allocator.Info()
	fmsg := "cached %v nodes (%v), obtains %v, reuses %v, releases %v"
	return fmt.Sprintf(
		fmsg, cached, humanize.Ibytes(uint64(cachedbytes)),
		atomic.LoadInt64(&allocator.nobtains),
		atomic.LoadInt64(&allocator.nreuses),
		atomic.LoadInt64(&allocator.nreleases))
}

func (allocator *Allocator) logprefix() string {
	return fmt.Sprintf("allocator %p", allocator)
}

// Info return the node count of this pool's ring, the usable capacity
// across those nodes and the bytes bumped so far.
func (pool *Pool) Info() (nodes, capacity, used int64) {
	if pool.self == nil {
		panicerr("pools.Info(): pool destroyed")
	}
	node := pool.active
	for {
		nodes++
		capacity += node.endp - sizeofmemnode
		used += node.firstavail - sizeofmemnode
		if node = node.next; node == pool.active {
			break
		}
	}
	return nodes, capacity, used
}

// Allocstats sample statistics over the allocation sizes requested
// from this pool, including requests that failed in the allocator.
func (pool *Pool) Allocstats() (samples, min, max, mean int64) {
	av := &pool.avgalloc
	return av.Samples(), av.Min(), av.Max(), av.Mean()
}
