package pools

import "math"
import "reflect"
import "sort"
import "testing"
import "unsafe"
import "math/rand"

func asbytes(ptr unsafe.Pointer, ln int64) []byte {
	var block []byte
	sl := (*reflect.SliceHeader)(unsafe.Pointer(&block))
	sl.Data, sl.Len, sl.Cap = uintptr(ptr), int(ln), int(ln)
	return block
}

// verifyring check that the pool's ring is a valid circular list via
// next/ref and that nodes past the head are sorted by non-increasing
// freeindex.
func verifyring(t *testing.T, pool *Pool) {
	t.Helper()

	node, previous, seenself := pool.active, int64(-1), false
	for {
		if *node.ref != node {
			t.Fatalf("ref back-pointer broken at node %p", node)
		}
		if node == pool.self {
			seenself = true
		}
		if node != pool.active {
			if previous >= 0 && node.freeindex > previous {
				t.Fatalf("ring out of order: %v after %v", node.freeindex, previous)
			}
			previous = node.freeindex
		}
		if node = node.next; node == pool.active {
			break
		}
	}
	if !seenself {
		t.Fatalf("self node missing from ring")
	}
	if pool.self.firstavail < pool.selffirstavail {
		t.Fatalf("self cursor behind the header")
	}
}

func TestCreateunmanaged(t *testing.T) {
	pool, err := Createunmanaged(nil)
	if err != nil {
		t.Fatalf("unexpected %v", err)
	}
	allocator := pool.allocator
	if allocator.owner != pool {
		t.Errorf("expected owning pool")
	} else if pool.active != pool.self {
		t.Errorf("expected active == self")
	} else if pool.self.next != pool.self {
		t.Errorf("expected a single node ring")
	} else if pool.selffirstavail != sizeofmemnode+sizeofmempool {
		t.Errorf("unexpected selffirstavail %v", pool.selffirstavail)
	}
	verifyring(t, pool)
	pool.Destroy()
	if pool.self != nil {
		t.Errorf("expected destroyed pool")
	}

	// with a caller supplied allocator, the pool does not own it.
	allocator = NewAllocator(nil)
	pool, err = Createunmanaged(allocator)
	if err != nil {
		t.Fatalf("unexpected %v", err)
	} else if allocator.owner != nil {
		t.Errorf("unexpected owner")
	}
	pool.Destroy()
	if cached, _ := allocator.Info(); cached != 1 {
		t.Errorf("expected the self node cached, got %v", cached)
	}
	allocator.Destroy()
}

func TestPoolalloc(t *testing.T) {
	pool, err := Createunmanaged(nil)
	if err != nil {
		t.Fatalf("unexpected %v", err)
	}

	count, size := 10000, int64(40)
	ptrs := make([]uintptr, 0, count)
	for i := 0; i < count; i++ {
		ptr, err := pool.Alloc(size)
		if err != nil {
			t.Fatalf("alloc %v: %v", i, err)
		} else if uintptr(ptr)%uintptr(Alignment) != 0 {
			t.Fatalf("pointer %v not %v aligned", ptr, Alignment)
		}
		ptrs = append(ptrs, uintptr(ptr))
	}
	verifyring(t, pool)

	// distinct, non-overlapping spans.
	sort.Slice(ptrs, func(i, j int) bool { return ptrs[i] < ptrs[j] })
	for i := 1; i < len(ptrs); i++ {
		if ptrs[i]-ptrs[i-1] < uintptr(size) {
			t.Fatalf("overlapping spans at %v", i)
		}
	}

	if samples, min, max, mean := pool.Allocstats(); samples != int64(count) {
		t.Errorf("expected %v samples, got %v", count, samples)
	} else if min != size || max != size || mean != size {
		t.Errorf("unexpected alloc stats %v %v %v", min, max, mean)
	}

	pool.Clear()
	if pool.active != pool.self {
		t.Errorf("expected active == self")
	} else if pool.child != nil {
		t.Errorf("expected no children")
	} else if pool.self.firstavail != pool.selffirstavail {
		t.Errorf("expected a fresh cursor")
	} else if pool.self.next != pool.self {
		t.Errorf("expected a single node ring")
	}
	verifyring(t, pool)

	// the cleared pool serves again.
	if _, err := pool.Alloc(size); err != nil {
		t.Fatalf("unexpected %v", err)
	}
	pool.Destroy()
}

func TestPooloversize(t *testing.T) {
	allocator := NewAllocator(nil)
	src := mocksource(allocator)

	pool, err := Createunmanaged(allocator)
	if err != nil {
		t.Fatalf("unexpected %v", err)
	}
	ptr, err := pool.Alloc(100 * 1000)
	if err != nil {
		t.Fatalf("unexpected %v", err)
	} else if uintptr(ptr)%uintptr(Alignment) != 0 {
		t.Errorf("pointer not aligned")
	}
	verifyring(t, pool)
	pool.Destroy()

	// a new pool gets the oversize node from the sink, not the source.
	obtains := src.obtains
	pool, err = Createunmanaged(allocator)
	if err != nil {
		t.Fatalf("unexpected %v", err)
	}
	if _, err = pool.Alloc(100 * 1000); err != nil {
		t.Fatalf("unexpected %v", err)
	}
	if src.obtains != obtains {
		t.Errorf("expected reuse, got %v extra obtains", src.obtains-obtains)
	}
	pool.Destroy()
	allocator.Destroy()
}

func TestPooltree(t *testing.T) {
	root, err := Createunmanaged(nil)
	if err != nil {
		t.Fatalf("unexpected %v", err)
	}
	poolA, _ := Create(root, nil)
	poolB, _ := Create(poolA, nil)
	poolC, _ := Create(poolA, nil)

	if root.child != poolA {
		t.Errorf("expected A at the head of root's children")
	} else if poolA.child != poolC {
		t.Errorf("expected C at the head of A's children")
	} else if poolC.sibling != poolB {
		t.Errorf("expected B after C")
	} else if poolA.allocator != root.allocator {
		t.Errorf("expected the inherited allocator")
	}

	// destroying A cascades through B and C and unlinks from root.
	poolA.Destroy()
	if poolA.self != nil || poolB.self != nil || poolC.self != nil {
		t.Errorf("expected the whole subtree destroyed")
	} else if root.child != nil {
		t.Errorf("expected A unlinked from root")
	}

	// unlink from the middle of the child list.
	poolX, _ := Create(root, nil)
	poolY, _ := Create(root, nil)
	poolZ, _ := Create(root, nil)
	poolY.Destroy()
	if root.child != poolZ {
		t.Errorf("expected Z at the head")
	} else if poolZ.sibling != poolX {
		t.Errorf("expected X after Z")
	} else if poolX.sibling != nil {
		t.Errorf("expected X at the tail")
	}
	root.Destroy()
}

func TestPoolclear(t *testing.T) {
	allocator := NewAllocator(nil)
	pool, err := Createunmanaged(allocator)
	if err != nil {
		t.Fatalf("unexpected %v", err)
	}
	for i := 0; i < 1000; i++ {
		if _, err := pool.Alloc(512); err != nil {
			t.Fatalf("unexpected %v", err)
		}
	}
	if nodes, _, _ := pool.Info(); nodes < 2 {
		t.Fatalf("expected the ring to grow, got %v nodes", nodes)
	}

	pool.Clear()
	nodes, capacity, used := pool.Info()
	if nodes != 1 {
		t.Errorf("expected 1 node, got %v", nodes)
	} else if capacity != Minalloc-sizeofmemnode {
		t.Errorf("unexpected capacity %v", capacity)
	} else if used != sizeofmempool {
		t.Errorf("unexpected used %v", used)
	}

	// clear is idempotent modulo re-allocation.
	pool.Clear()
	if nodes2, _, used2 := pool.Info(); nodes2 != nodes || used2 != used {
		t.Errorf("second clear changed state: %v %v", nodes2, used2)
	}
	pool.Destroy()
	allocator.Destroy()
}

func TestClearreuse(t *testing.T) {
	allocator := NewAllocator(nil)
	src := mocksource(allocator)
	pool, _ := Createunmanaged(allocator)

	for cycle := 0; cycle < 10; cycle++ {
		for i := 0; i < 1000; i++ {
			if _, err := pool.Alloc(512); err != nil {
				t.Fatalf("unexpected %v", err)
			}
		}
		pool.Clear()
	}
	// after the first cycle the ring rebuilds from the cache.
	if limit := int64(1000*512)/Minalloc + 2 + Maxindex; src.obtains > limit {
		t.Errorf("expected at most %v obtains, got %v", limit, src.obtains)
	}
	pool.Destroy()
	allocator.Destroy()
}

func TestCalloc(t *testing.T) {
	pool, err := Createunmanaged(nil)
	if err != nil {
		t.Fatalf("unexpected %v", err)
	}
	size := int64(4000)
	ptr, err := pool.Alloc(size)
	if err != nil {
		t.Fatalf("unexpected %v", err)
	}
	block := asbytes(ptr, size)
	for i := range block {
		block[i] = 0xAB
	}
	pool.Clear()

	// the recycled span comes back zeroed.
	ptr, err = pool.Calloc(size)
	if err != nil {
		t.Fatalf("unexpected %v", err)
	}
	block = asbytes(ptr, size)
	for i, b := range block {
		if b != 0 {
			t.Fatalf("expected zero at %v, got %x", i, b)
		}
	}
	pool.Destroy()
}

func TestPoolringorder(t *testing.T) {
	pool, err := Createunmanaged(nil)
	if err != nil {
		t.Fatalf("unexpected %v", err)
	}
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		if _, err := pool.Alloc(int64(rnd.Intn(5000) + 1)); err != nil {
			t.Fatalf("unexpected %v", err)
		}
		if i%100 == 0 {
			verifyring(t, pool)
		}
	}
	verifyring(t, pool)
	pool.Clear()
	verifyring(t, pool)
	pool.Destroy()
}

func TestPooloverflow(t *testing.T) {
	pool, err := Createunmanaged(nil)
	if err != nil {
		t.Fatalf("unexpected %v", err)
	}
	if _, err := pool.Alloc(math.MaxInt64 - 3); err != ErrorSizeOverflow {
		t.Errorf("expected %v, got %v", ErrorSizeOverflow, err)
	}
	if _, err := pool.Alloc(Maxblocksize + Boundarysize); err != ErrorOutofMemory {
		t.Errorf("expected %v, got %v", ErrorOutofMemory, err)
	}
	pool.Destroy()
}

func TestPooldestroyed(t *testing.T) {
	pool, _ := Createunmanaged(nil)
	pool.Destroy()
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		pool.Alloc(10)
	}()
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		pool.Clear()
	}()
}

func BenchmarkPoolalloc(b *testing.B) {
	pool, _ := Createunmanaged(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Alloc(96)
		if i%10000 == 9999 {
			pool.Clear()
		}
	}
	b.StopTimer()
	pool.Destroy()
}

func BenchmarkPoolcalloc(b *testing.B) {
	pool, _ := Createunmanaged(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Calloc(96)
		if i%10000 == 9999 {
			pool.Clear()
		}
	}
	b.StopTimer()
	pool.Destroy()
}

func BenchmarkPoolclear(b *testing.B) {
	pool, _ := Createunmanaged(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Alloc(1024)
		pool.Clear()
	}
	b.StopTimer()
	pool.Destroy()
}
