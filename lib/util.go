package lib

import "unsafe"
import "reflect"

var zeroblkinit = make([]byte, 1024)

// Memzero fill `ln` bytes of memory at `dst` with zeros. This function
// is useful if memory block is obtained outside golang runtime.
func Memzero(dst unsafe.Pointer, ln int) int {
	var dstnd []byte
	sl := (*reflect.SliceHeader)(unsafe.Pointer(&dstnd))
	sl.Data, sl.Len, sl.Cap = (uintptr)(dst), ln, ln
	return Fillblock(dstnd, zeroblkinit)
}

// Memcpy copy memory block of length `ln` from `src` to `dst`. This
// function is useful if memory block is obtained outside golang runtime.
func Memcpy(dst, src unsafe.Pointer, ln int) int {
	var srcnd, dstnd []byte
	srcsl := (*reflect.SliceHeader)(unsafe.Pointer(&srcnd))
	srcsl.Len, srcsl.Cap = ln, ln
	srcsl.Data = (uintptr)(unsafe.Pointer(src))
	dstsl := (*reflect.SliceHeader)(unsafe.Pointer(&dstnd))
	dstsl.Len, dstsl.Cap = ln, ln
	dstsl.Data = (uintptr)(unsafe.Pointer(dst))
	return copy(dstnd, srcnd)
}

// Fillblock tile `block` with repeated copies of `init`.
func Fillblock(block, init []byte) int {
	for off := 0; off < len(block); {
		off += copy(block[off:], init)
	}
	return len(block)
}
