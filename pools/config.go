package pools

import s "github.com/bnclabs/gosettings"
import "github.com/cloudfoundry/gosigar"

// Boundaryindex shift width of the page boundary, every block managed
// by an allocator is a multiple of (1 << Boundaryindex) bytes.
const Boundaryindex = 12

// Boundarysize page granularity used throughout sizing and indexing.
const Boundarysize = int64(1) << Boundaryindex

// Minalloc smallest block obtained from the page source.
const Minalloc = 2 * Boundarysize

// Maxindex number of size-class freelists in an allocator. Slot 0 is
// the oversize sink, slots 1..Maxindex-1 cache blocks of exactly
// (slot+1) * Boundarysize bytes.
const Maxindex = 20

// Alignment all pointers handed out by a pool are aligned to this.
const Alignment = int64(8)

// Maxfreeunlimited disables the retention cap on an allocator.
const Maxfreeunlimited = int64(0)

// Maxblocksize largest single block obtainable from a page source.
const Maxblocksize = int64(1024 * 1024 * 1024 * 1024)

// Defaultsettings for an allocator.
//
// "pagesource" (string, default: "heap")
//		Where page blocks come from, "heap" allocates from the go
//		runtime, "mmap" maps anonymous pages from the OS.
//
// "maxfree" (int64, default: 0)
//		Retention cap in bytes. Cached blocks beyond this cap are
//		returned to the page source. 0 means never give back.
//
// "threadsafe" (bool, default: false)
//		Install a mutex on the allocator so that several pools can
//		share it across goroutines. Individual pools remain single
//		threaded.
func Defaultsettings() s.Settings {
	return s.Settings{
		"pagesource": "heap",
		"maxfree":    Maxfreeunlimited,
		"threadsafe": false,
	}
}

// Globalsettings used by Initialize() for the process wide root pool
// and its allocator. Same keys as Defaultsettings.
func Globalsettings() s.Settings {
	return s.Settings{
		"pagesource": "heap",
		"maxfree":    100 * Boundarysize,
		"threadsafe": true,
	}
}

// Recommendedmaxfree suggest a retention cap based on free system
// memory, at least 100 boundary units.
func Recommendedmaxfree() int64 {
	mem := sigar.Mem{}
	mem.Get()
	maxfree := alignto(int64(mem.Free)/100, Boundarysize)
	if floor := 100 * Boundarysize; maxfree < floor {
		maxfree = floor
	}
	return maxfree
}

// alignto is only to be used to align on a power of 2 boundary.
func alignto(size, boundary int64) int64 {
	return (size + (boundary - 1)) &^ (boundary - 1)
}

func aligndefault(size int64) int64 {
	return alignto(size, Alignment)
}
