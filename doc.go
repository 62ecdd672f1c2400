// Package mempool implement hierarchical memory pools backed by a
// caching block allocator, and necessary tools and libraries.
//
// pools:
//
// The core. A block allocator caches page-aligned blocks in size-class
// freelists and a pool layer organizes those blocks into parent/child
// trees of bump arenas. Allocation is O(1), and an entire tree of
// allocations is reclaimed in a single clear or destroy call.
//
// lib:
//
// Convinience functions that can be used by other packages. Package
// shall not import packages other than golang's standard packages.
//
// tools/pools:
//
// Command line driver to exercise pool trees with synthetic workloads
// and report allocator statistics.
package mempool
