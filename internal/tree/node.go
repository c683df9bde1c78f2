// Package tree implements the per-desktop binary partition tree: a full
// binary tree whose leaves own clients and whose internal nodes are pure
// screen-space partitions. Nodes live in an arena (a per-tree slice) and
// reference each other by index rather than by pointer, per the source's
// "ROOT" marker being redundant: a tree with a single leaf has that leaf
// as its root, and an empty tree has no nodes at all.
package tree

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/patrislav/bspgo/internal/client"
	"github.com/patrislav/bspgo/internal/geometry"
)

// Kind distinguishes a leaf (owns a client) from an internal node (owns
// exactly two children and no client).
type Kind uint8

const (
	Leaf Kind = iota
	Internal
)

// Split is the orientation an internal node divides its rectangle along.
type Split uint8

const (
	SplitVertical Split = iota
	SplitHorizontal
)

// InvalidIndex is returned by lookups that find nothing; it also marks an
// absent parent/child link in the arena.
const InvalidIndex = -1

const noIndex = InvalidIndex

// Node is a vertex of a desktop's partition tree.
type Node struct {
	Parent, FirstChild, SecondChild int
	Kind                            Kind
	Split                           Split
	Ratio                           float64 // child split ratio, preserved across resizes
	Rect                            geometry.Rect
	FloatingRect                    geometry.Rect
	Client                          *client.Client
	IsFocused                       bool
	IsMaster                       bool
	freed                           bool
}

// Tree is an arena of nodes for a single desktop. Index 0, when present,
// need not be the root: Root tracks the current root index explicitly so
// that unlinking can replace it without a full re-index.
type Tree struct {
	nodes []Node
	free  []int
	Root  int

	// Gap is the pixel gutter reserved between sibling partitions on every
	// split; it is baked into child rectangles at split/resize time so
	// that a leaf's Rect is already final modulo border inset.
	Gap uint32

	// MasterRatio is the fraction of usable width the MASTER layout's
	// master leaf occupies. Zero (the tree's zero value) means "use the
	// package default MasterRatio" -- applyMaster treats it that way so a
	// tree built without going through a config-aware constructor still
	// lays out sensibly.
	MasterRatio float64
}

// New returns an empty tree with the given inter-sibling gap.
func New(gap uint32) *Tree {
	return &Tree{Root: noIndex, Gap: gap}
}

// Empty reports whether the tree holds any nodes.
func (t *Tree) Empty() bool {
	return t.Root == noIndex
}

// Node returns a pointer to the node at i. The arena never reallocates a
// backing array element's address across a Tree's lifetime from the
// caller's point of view: callers only ever hold indices, not raw
// pointers, which is what keeps this safe across append-triggered growth.
func (t *Tree) Node(i int) *Node {
	if i == noIndex {
		return nil
	}
	return &t.nodes[i]
}

// alloc reserves a node slot, reusing a freed one if available.
func (t *Tree) alloc() int {
	if n := len(t.free); n > 0 {
		i := t.free[n-1]
		t.free = t.free[:n-1]
		t.nodes[i] = Node{Parent: noIndex, FirstChild: noIndex, SecondChild: noIndex}
		return i
	}
	t.nodes = append(t.nodes, Node{Parent: noIndex, FirstChild: noIndex, SecondChild: noIndex})
	return len(t.nodes) - 1
}

// release returns a node slot to the free-list.
func (t *Tree) release(i int) {
	t.nodes[i] = Node{freed: true}
	t.free = append(t.free, i)
}

// newLeaf allocates a leaf node wrapping c.
func (t *Tree) newLeaf(c *client.Client) int {
	i := t.alloc()
	n := t.Node(i)
	n.Kind = Leaf
	n.Client = c
	return i
}

// newInternal allocates an internal node with the given children.
func (t *Tree) newInternal(first, second int) int {
	i := t.alloc()
	n := t.Node(i)
	n.Kind = Internal
	n.Ratio = 0.5
	n.FirstChild = first
	n.SecondChild = second
	t.Node(first).Parent = i
	t.Node(second).Parent = i
	return i
}

// FindByWindow returns the leaf index owning win, or noIndex.
func (t *Tree) FindByWindow(win xproto.Window) int {
	return t.findByWindow(t.Root, win)
}

func (t *Tree) findByWindow(i int, win xproto.Window) int {
	if i == noIndex {
		return noIndex
	}
	n := t.Node(i)
	if n.Kind == Leaf {
		if n.Client != nil && n.Client.Window == win {
			return i
		}
		return noIndex
	}
	if r := t.findByWindow(n.FirstChild, win); r != noIndex {
		return r
	}
	return t.findByWindow(n.SecondChild, win)
}

// Sibling returns the index of i's sibling under its parent, or noIndex if
// i is the root.
func (t *Tree) Sibling(i int) int {
	n := t.Node(i)
	if n.Parent == noIndex {
		return noIndex
	}
	p := t.Node(n.Parent)
	if p.FirstChild == i {
		return p.SecondChild
	}
	return p.FirstChild
}

// LeafCount returns the number of leaves in the tree.
func (t *Tree) LeafCount() int {
	if t.Empty() {
		return 0
	}
	return t.countLeaves(t.Root)
}

func (t *Tree) countLeaves(i int) int {
	n := t.Node(i)
	if n.Kind == Leaf {
		return 1
	}
	return t.countLeaves(n.FirstChild) + t.countLeaves(n.SecondChild)
}
