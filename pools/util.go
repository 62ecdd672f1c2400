package pools

import "fmt"
import "errors"

// ErrorOutofMemory page source could not supply a block.
var ErrorOutofMemory = errors.New("pools.outofmemory")

// ErrorSizeOverflow requested size wraps when padded for header or
// alignment.
var ErrorSizeOverflow = errors.New("pools.sizeoverflow")

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}
