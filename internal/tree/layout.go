package tree

import (
	"math"

	"github.com/patrislav/bspgo/internal/geometry"
)

// Layout selects how a desktop's leaves are assigned rectangles.
type Layout uint8

const (
	LayoutDefault Layout = iota
	LayoutMaster
	LayoutStack
	LayoutGrid
)

func (l Layout) String() string {
	switch l {
	case LayoutMaster:
		return "master"
	case LayoutStack:
		return "stack"
	case LayoutGrid:
		return "grid"
	default:
		return "default"
	}
}

// MasterRatio is the default fraction of usable width the MASTER layout's
// master leaf occupies, used when a tree's own MasterRatio field is unset.
const MasterRatio = 0.7

// Apply assigns leaf rectangles under the given layout. root is the
// desktop's usable rectangle (monitor rectangle minus the bar, per
// §4.2); Apply first insets it by the tree's gap on every side -- "the
// usable rectangle is the monitor rectangle ... minus window_gap on all
// sides" (§4.1) applies uniformly across layouts, not just DEFAULT, since
// §3 states siblings and the tree-to-edge spacing are both gap-separated
// regardless of layout policy.
// For LayoutDefault this simply drives the tree's own split/ratio
// recursion; the other three layouts recompute leaf rectangles directly
// from the in-order leaf sequence, ignoring stored per-node split
// orientation: MASTER/STACK/GRID are alternate rectangle-assignment
// policies over the same tree shape, not alternate tree shapes.
func (t *Tree) Apply(layout Layout, root geometry.Rect) {
	if t.Empty() {
		return
	}
	usable := root.Shrink(t.Gap)
	switch layout {
	case LayoutMaster:
		t.applyMaster(usable)
	case LayoutStack:
		t.applyStack(usable)
	case LayoutGrid:
		t.applyGrid(usable)
	default:
		t.SetRootRect(usable)
	}
}

func (t *Tree) applyMaster(root geometry.Rect) {
	order := t.InOrder()
	if len(order) == 1 {
		t.Node(order[0]).Rect = root
		return
	}
	masterIdx := t.MasterLeaf()
	ratio := t.MasterRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = MasterRatio
	}
	masterRect, restRect := root.SplitVerticalGap(ratio, t.Gap)
	t.Node(masterIdx).Rect = masterRect

	var rest []int
	for _, i := range order {
		if i != masterIdx {
			rest = append(rest, i)
		}
	}
	t.stackRows(rest, restRect)
}

// stackRows lays leaves out as equal-height horizontal rows within r,
// separated by the tree's gap -- the "tiled recursively" rule of the MASTER
// description, generalized from the two-leaf case (top-over-bottom) to n
// leaves.
func (t *Tree) stackRows(leaves []int, r geometry.Rect) {
	n := len(leaves)
	if n == 0 {
		return
	}
	if n == 1 {
		t.Node(leaves[0]).Rect = r
		return
	}
	totalGap := t.Gap * uint32(n-1)
	var avail uint32
	if r.Height > totalGap {
		avail = r.Height - totalGap
	}
	rowH := avail / uint32(n)
	y := r.Y
	for idx, leaf := range leaves {
		h := rowH
		if idx == n-1 {
			// last row absorbs the rounding remainder so the rows exactly
			// tile r's height.
			h = uint32(r.Y+int32(r.Height)) - uint32(y)
		}
		t.Node(leaf).Rect = geometry.Rect{X: r.X, Y: y, Width: r.Width, Height: h}
		y += int32(h) + int32(t.Gap)
	}
}

func (t *Tree) applyStack(root geometry.Rect) {
	for _, i := range t.PreOrder() {
		t.Node(i).Rect = root
	}
}

func (t *Tree) applyGrid(root geometry.Rect) {
	order := t.InOrder()
	n := len(order)
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := int(math.Ceil(float64(n) / float64(cols)))

	colGap := t.Gap * uint32(cols-1)
	var colAvail uint32
	if root.Width > colGap {
		colAvail = root.Width - colGap
	}
	colW := colAvail / uint32(cols)

	rowGap := t.Gap * uint32(rows-1)
	var rowAvail uint32
	if root.Height > rowGap {
		rowAvail = root.Height - rowGap
	}
	rowH := rowAvail / uint32(rows)

	for idx, leaf := range order {
		col := idx % cols
		row := idx / cols
		x := root.X + int32(col)*(int32(colW)+int32(t.Gap))
		y := root.Y + int32(row)*(int32(rowH)+int32(t.Gap))
		w := colW
		if col == cols-1 {
			w = uint32(root.X+int32(root.Width)) - uint32(x)
		}
		h := rowH
		// last row may have fewer cells; height still uses rowH uniformly
		t.Node(leaf).Rect = geometry.Rect{X: x, Y: y, Width: w, Height: h}
	}
}
