//go:build debug

package pools

import "github.com/bnclabs/mempool/lib"

var poolblkinit = make([]byte, 1024)

func init() {
	for i := 0; i < len(poolblkinit); i++ {
		poolblkinit[i] = 0xff
	}
}

// initnode poison the body of a reused node, stale reads after a
// Clear show up as 0xff.
func initnode(node *memnode) {
	lib.Fillblock(node.block[node.firstavail:node.endp], poolblkinit)
}
