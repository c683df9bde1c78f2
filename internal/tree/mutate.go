package tree

import (
	"github.com/patrislav/bspgo/internal/client"
	"github.com/patrislav/bspgo/internal/geometry"
)

// Insert splits the leaf at targetIdx, placing newClient into a freshly
// created sibling leaf. Returns the new leaf's index. If the tree is
// empty, targetIdx is ignored and newClient becomes the root leaf.
//
// The split orientation is chosen so the long axis of the target's
// rectangle is halved: vertical split when width > height, horizontal
// otherwise. The target keeps its place as FirstChild; the new
// leaf becomes SecondChild.
func (t *Tree) Insert(targetIdx int, newClient *client.Client) int {
	newLeafIdx := t.newLeaf(newClient)

	if t.Empty() {
		t.Root = newLeafIdx
		return newLeafIdx
	}

	target := t.Node(targetIdx)
	oldRect := target.Rect
	oldParent := target.Parent

	split := SplitVertical
	if !oldRect.Wide() {
		split = SplitHorizontal
	}

	parentIdx := t.newInternal(targetIdx, newLeafIdx)
	p := t.Node(parentIdx)
	p.Rect = oldRect
	p.Split = split
	p.Parent = oldParent

	if oldParent == noIndex {
		t.Root = parentIdx
	} else {
		gp := t.Node(oldParent)
		if gp.FirstChild == targetIdx {
			gp.FirstChild = parentIdx
		} else {
			gp.SecondChild = parentIdx
		}
	}

	t.Resize(parentIdx)
	return newLeafIdx
}

// Unlink removes the leaf at idx from the tree. It returns false when the
// removed leaf was the tree's sole remaining node (the tree is now empty
// and the caller must not dereference idx again), true otherwise.
func (t *Tree) Unlink(idx int) bool {
	n := t.Node(idx)
	parentIdx := n.Parent

	if parentIdx == noIndex {
		t.release(idx)
		t.Root = noIndex
		return false
	}

	parent := t.Node(parentIdx)
	siblingIdx := parent.FirstChild
	if siblingIdx == idx {
		siblingIdx = parent.SecondChild
	}
	sibling := t.Node(siblingIdx)

	grandparentIdx := parent.Parent
	sibling.Parent = grandparentIdx
	sibling.Rect = parent.Rect

	if grandparentIdx == noIndex {
		t.Root = siblingIdx
	} else {
		gp := t.Node(grandparentIdx)
		if gp.FirstChild == parentIdx {
			gp.FirstChild = siblingIdx
		} else {
			gp.SecondChild = siblingIdx
		}
	}

	t.release(idx)
	t.release(parentIdx)

	if sibling.Kind == Internal {
		t.Resize(siblingIdx)
	}
	return true
}

// Resize recomputes the rectangles of i's subtree from i's own rectangle,
// splitting along i's recorded orientation and ratio. A Gap-wide gutter is
// reserved between the two children so sibling rectangles stay disjoint by
// exactly t.Gap pixels; border
// inset is applied later, only at render time, so Resize stays a pure,
// idempotent partition computation.
func (t *Tree) Resize(i int) {
	n := t.Node(i)
	if n.Kind == Leaf {
		return
	}
	var first, second geometry.Rect
	switch n.Split {
	case SplitVertical:
		first, second = n.Rect.SplitVerticalGap(n.Ratio, t.Gap)
	default:
		first, second = n.Rect.SplitHorizontalGap(n.Ratio, t.Gap)
	}
	t.Node(n.FirstChild).Rect = first
	t.Node(n.SecondChild).Rect = second
	t.Resize(n.FirstChild)
	t.Resize(n.SecondChild)
}

// SetRootRect assigns the usable rectangle to a non-empty tree's root and
// propagates it.
func (t *Tree) SetRootRect(r geometry.Rect) {
	if t.Empty() {
		return
	}
	t.Node(t.Root).Rect = r
	t.Resize(t.Root)
}

// Swap exchanges the clients owned by leaves a and b, leaving both nodes
// (and therefore their rectangles) in place.
func (t *Tree) Swap(a, b int) {
	if a == b {
		return
	}
	na, nb := t.Node(a), t.Node(b)
	na.Client, nb.Client = nb.Client, na.Client
}

// Flip exchanges an internal node's two children and recomputes rectangles.
// Flip(Flip(n)) is the identity because the child pointers return to their
// original slots and Resize is purely a function of Rect/Split/Ratio.
func (t *Tree) Flip(i int) {
	n := t.Node(i)
	if n.Kind != Internal {
		return
	}
	n.FirstChild, n.SecondChild = n.SecondChild, n.FirstChild
	t.Resize(i)
}

// UpdateFocus clears IsFocused on every leaf and sets it on leafIdx.
func (t *Tree) UpdateFocus(leafIdx int) {
	for _, i := range t.PreOrder() {
		t.Node(i).IsFocused = (i == leafIdx)
	}
}

// Clone performs a full structural copy of the tree: new internal/leaf
// nodes, but Client pointers are shared (non-owning) with the source tree.
// Every node keeps its index, so an index into the source tree names the
// same node in the clone. Used by the drag preview so discarding
// the clone never frees a live client.
func (t *Tree) Clone() *Tree {
	c := &Tree{Root: noIndex, Gap: t.Gap}
	if t.Empty() {
		return c
	}
	c.nodes = make([]Node, len(t.nodes))
	c.free = append([]int(nil), t.free...)
	c.Root = t.cloneSubtree(t.Root, c, noIndex)
	return c
}

func (t *Tree) cloneSubtree(i int, into *Tree, parent int) int {
	src := t.Node(i)
	ni := i
	dst := into.Node(ni)
	dst.Kind = src.Kind
	dst.Split = src.Split
	dst.Ratio = src.Ratio
	dst.Rect = src.Rect
	dst.FloatingRect = src.FloatingRect
	dst.Client = src.Client
	dst.IsFocused = src.IsFocused
	dst.IsMaster = src.IsMaster
	dst.Parent = parent
	if src.Kind == Internal {
		dst.FirstChild = t.cloneSubtree(src.FirstChild, into, ni)
		dst.SecondChild = t.cloneSubtree(src.SecondChild, into, ni)
	}
	return ni
}
