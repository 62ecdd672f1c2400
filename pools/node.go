package pools

import "unsafe"

// memnode a single page block obtained from the page source. Lives
// either in a pool's ring of bump arenas or in a freelist slot of
// exactly one allocator. The ref field points back at the slot that
// points at this node, so unlinking never needs a prev pointer.
type memnode struct {
	next       *memnode
	ref        **memnode
	index      int64 // size class, block spans (index+1)*Boundarysize bytes
	freeindex  int64 // tail-free capacity in boundary units
	firstavail int64 // bump cursor, offset into block
	endp       int64 // end of usable region, == len(block)
	block      []byte
}

// sizeofmemnode bytes reserved at the head of every block for the
// node header, default-aligned. Keeps the sizing arithmetic uniform
// even though the header itself is a go struct.
var sizeofmemnode = aligndefault(int64(unsafe.Sizeof(memnode{})))

func (node *memnode) freespace() int64 {
	return node.endp - node.firstavail
}

func (node *memnode) pointerat(off int64) unsafe.Pointer {
	return unsafe.Pointer(uintptr(unsafe.Pointer(&node.block[0])) + uintptr(off))
}

// listinsert insert `node` before `point` in point's ring.
func listinsert(node, point *memnode) {
	node.ref = point.ref
	*node.ref = node
	node.next = point
	point.ref = &node.next
}

// listremove remove `node` from its ring.
func listremove(node *memnode) {
	*node.ref = node.next
	node.next.ref = node.ref
}
