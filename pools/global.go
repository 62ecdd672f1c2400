package pools

import "sync"

import s "github.com/bnclabs/gosettings"

// Process-wide root pool and its allocator. Guarded by initmu; the
// root is the implicit parent when Create is called with none.
var initmu sync.Mutex
var poolsinitialized bool
var gpool *Pool
var gallocator *Allocator

// Initialize the global root pool and its allocator. Idempotent once
// successful. Supply nil settings for Globalsettings(): heap page
// source, retention cap of 100 boundary units and a mutex installed
// on the allocator. On failure the library is left uninitialized.
func Initialize(setts s.Settings) error {
	initmu.Lock()
	defer initmu.Unlock()

	if poolsinitialized {
		return nil
	}
	if setts == nil {
		setts = Globalsettings()
	}
	allocator := NewAllocator(setts)
	pool, err := Create(nil, allocator)
	if err != nil {
		allocator.Destroy()
		return err
	}
	allocator.owner = pool

	gpool, gallocator = pool, allocator
	poolsinitialized = true
	infof("pools initialized, maxfree %v units\n", allocator.maxfreeindex)
	return nil
}

// Terminate destroy the root pool, and with it the global allocator.
// Does nothing unless a successful Initialize came before it; a later
// Initialize starts the library afresh.
func Terminate() {
	initmu.Lock()
	defer initmu.Unlock()

	if !poolsinitialized {
		return
	}
	root := gpool
	gpool, gallocator = nil, nil
	poolsinitialized = false
	root.Destroy()
	infof("pools terminated\n")
}
