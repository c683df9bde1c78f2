package tree

// Transfer moves the client owned by leaf idx out of t and into dst,
// inserting it at dst's leftmost leaf (or as dst's new root if dst is
// empty). The source tree's leaf is unlinked first so the two trees never
// share a node. Returns the new leaf's index within dst.
func (t *Tree) Transfer(idx int, dst *Tree) int {
	c := t.Node(idx).Client
	t.Unlink(idx)

	if dst.Empty() {
		return dst.Insert(noIndex, c)
	}
	target := dst.LeftmostLeaf()
	return dst.Insert(target, c)
}
