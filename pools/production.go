//go:build !debug

package pools

// initnode reused nodes keep whatever their previous owner wrote.
func initnode(node *memnode) {
}
