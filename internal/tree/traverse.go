package tree

// PreOrder returns leaf indices in pre-order (node, first subtree, second
// subtree).
func (t *Tree) PreOrder() []int {
	var out []int
	t.preOrder(t.Root, &out)
	return out
}

func (t *Tree) preOrder(i int, out *[]int) {
	if i == noIndex {
		return
	}
	n := t.Node(i)
	if n.Kind == Leaf {
		*out = append(*out, i)
		return
	}
	t.preOrder(n.FirstChild, out)
	t.preOrder(n.SecondChild, out)
}

// InOrder returns leaf indices in in-order (first subtree, node, second
// subtree) -- for a binary partition tree this coincides with left-to-right,
// top-to-bottom visual order, which is what cycle/master/grid rely on.
func (t *Tree) InOrder() []int {
	var out []int
	t.inOrder(t.Root, &out)
	return out
}

func (t *Tree) inOrder(i int, out *[]int) {
	if i == noIndex {
		return
	}
	n := t.Node(i)
	if n.Kind == Leaf {
		*out = append(*out, i)
		return
	}
	t.inOrder(n.FirstChild, out)
	t.inOrder(n.SecondChild, out)
}

// CycleDirection selects a predecessor/successor traversal for Cycle.
type CycleDirection uint8

const (
	CyclePrev CycleDirection = iota
	CycleNext
)

// Cycle returns the leaf index adjacent to from in the in-order sequence,
// wrapping around at the ends. dir selects predecessor (Up/Left) or
// successor (Down/Right). Returns noIndex if the tree has fewer than two
// leaves.
func (t *Tree) Cycle(from int, dir CycleDirection) int {
	order := t.InOrder()
	if len(order) < 2 {
		return noIndex
	}
	pos := -1
	for idx, leaf := range order {
		if leaf == from {
			pos = idx
			break
		}
	}
	if pos == -1 {
		return noIndex
	}
	switch dir {
	case CyclePrev:
		return order[(pos-1+len(order))%len(order)]
	default:
		return order[(pos+1)%len(order)]
	}
}

// FindLeafAtPoint returns the leaf whose tiled rectangle contains (x, y),
// used by drag hit-testing.
func (t *Tree) FindLeafAtPoint(x, y int32) int {
	for _, i := range t.PreOrder() {
		if t.Node(i).Rect.Contains(x, y) {
			return i
		}
	}
	return noIndex
}

// LeftmostLeaf returns the first leaf in in-order sequence, or noIndex for
// an empty tree.
func (t *Tree) LeftmostLeaf() int {
	order := t.InOrder()
	if len(order) == 0 {
		return noIndex
	}
	return order[0]
}

// FocusedLeafCountOK reports whether at most one leaf has IsFocused set.
func (t *Tree) FocusedLeafCountOK() bool {
	count := 0
	for _, i := range t.PreOrder() {
		if t.Node(i).IsFocused {
			count++
		}
	}
	return count <= 1
}

// FocusedLeaf returns the leaf with IsFocused set, or noIndex.
func (t *Tree) FocusedLeaf() int {
	for _, i := range t.PreOrder() {
		if t.Node(i).IsFocused {
			return i
		}
	}
	return noIndex
}

// MasterLeaf returns the first leaf in pre-order with IsMaster set, falling
// back to the leftmost leaf if none is marked -- the MASTER layout rule.
func (t *Tree) MasterLeaf() int {
	for _, i := range t.PreOrder() {
		if t.Node(i).IsMaster {
			return i
		}
	}
	return t.LeftmostLeaf()
}
