//go:build unix

package pools

import "golang.org/x/sys/unix"

// mmapsource serve page blocks from anonymous private mappings. The
// mapping length travels with the slice, so unmapping always uses the
// true block size.
type mmapsource struct{}

func (src *mmapsource) Obtain(size int64) ([]byte, error) {
	block, err := unix.Mmap(
		-1, 0, int(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, ErrorOutofMemory
	}
	return block, nil
}

func (src *mmapsource) Release(block []byte) {
	unix.Munmap(block)
}

func newpagesource(name string) Pagesource {
	switch name {
	case "mmap":
		return &mmapsource{}
	case "heap":
		return &heapsource{}
	}
	panicerr("unknown pagesource %q", name)
	return nil
}
