// Package pools supplies hierarchical bump-arena memory management
// for phase-structured workloads, with a limited scope:
//
//  * A pool is not thread safe, use one pool from one goroutine at a
//    time. Pools sharing an allocator can run concurrently once a
//    mutex is installed on the allocator.
//  * There is no per-object free. Memory is reclaimed in bulk when a
//    pool is cleared or destroyed.
//  * There is no defragmentation or compaction, and no leak tracking.
//
// Allocator is a cache of page-aligned blocks kept in size-class
// freelists with an oversize sink. Blocks freed by pools land back in
// the cache until a configurable retention cap is reached, beyond
// which they return to the page source.
//
// Pool organizes blocks from an allocator into a circular ring of
// bump arenas; the ring keeps the node with the most free space one
// step from the head, so an overflowing allocation rarely needs the
// allocator. Pools form parent/child trees, destroying a pool
// destroys its subtree first.
//
// The package also maintains a process wide root pool, see
// Initialize and Terminate; Create with a nil parent attaches new
// pools to that root.
package pools

// TODO: grow Statistics() with per-slot freelist occupancy once the
// tools/pools driver learns to render tables.
