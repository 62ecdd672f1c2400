package pools

// Pagesource obtains and returns raw page blocks for an allocator.
// Sizes passed to Obtain are already rounded to a Boundarysize
// multiple. Release is best effort, failures are not observable.
type Pagesource interface {
	// Obtain a writable block of exactly `size` bytes.
	Obtain(size int64) ([]byte, error)

	// Release a block obtained earlier from this source.
	Release(block []byte)
}

// heapsource serve page blocks from the go runtime heap.
type heapsource struct{}

func (src *heapsource) Obtain(size int64) ([]byte, error) {
	if size < 0 || size > Maxblocksize {
		return nil, ErrorOutofMemory
	}
	return make([]byte, size), nil
}

func (src *heapsource) Release(block []byte) {
}
