package tree

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/patrislav/bspgo/internal/client"
	"github.com/patrislav/bspgo/internal/geometry"
)

func newClient(win xproto.Window) *client.Client {
	return client.New(win, client.TypeNormal, 2)
}

func TestInsertEmptyTreeBecomesRoot(t *testing.T) {
	tr := New(10)
	idx := tr.Insert(InvalidIndex, newClient(1))
	if tr.Root != idx {
		t.Fatalf("expected root %d, got %d", idx, tr.Root)
	}
	if tr.LeafCount() != 1 {
		t.Fatalf("expected 1 leaf, got %d", tr.LeafCount())
	}
}

func TestInsertSplitsLongAxis(t *testing.T) {
	tr := New(0)
	first := tr.Insert(InvalidIndex, newClient(1))
	tr.Node(first).Rect = geometry.New(0, 0, 1920, 1080)

	second := tr.Insert(first, newClient(2))
	root := tr.Node(tr.Root)
	if root.Kind != Internal {
		t.Fatalf("expected internal root after second insert")
	}
	if root.Split != SplitVertical {
		t.Fatalf("expected vertical split for a wide rectangle, got %v", root.Split)
	}
	if root.FirstChild != first || root.SecondChild != second {
		t.Fatalf("expected original leaf as first child, new leaf as second")
	}
}

func TestUnlinkInsertIsIdentity(t *testing.T) {
	tr := New(10)
	tr.Node(InvalidIndex) // no-op, exercises nil-safety
	a := tr.Insert(InvalidIndex, newClient(1))
	tr.Node(a).Rect = geometry.New(0, 0, 1920, 1080)
	b := tr.Insert(a, newClient(2))

	if ok := tr.Unlink(b); !ok {
		t.Fatalf("unlink of non-root leaf should report tree still valid")
	}
	if tr.LeafCount() != 1 {
		t.Fatalf("expected tree to return to one leaf after unlink(insert(T, L)), got %d", tr.LeafCount())
	}
	if tr.Root != a {
		t.Fatalf("expected original leaf to become root again, got %d", tr.Root)
	}
}

func TestUnlinkLastLeafEmptiesTree(t *testing.T) {
	tr := New(10)
	a := tr.Insert(InvalidIndex, newClient(1))
	if ok := tr.Unlink(a); ok {
		t.Fatalf("unlinking the sole leaf should report the tree is now empty")
	}
	if !tr.Empty() {
		t.Fatalf("expected empty tree")
	}
}

func TestFlipFlipIsIdentity(t *testing.T) {
	tr := New(10)
	a := tr.Insert(InvalidIndex, newClient(1))
	tr.Node(a).Rect = geometry.New(0, 0, 1920, 1080)
	b := tr.Insert(a, newClient(2))

	root := tr.Node(tr.Root)
	origFirst, origSecond := root.FirstChild, root.SecondChild

	tr.Flip(tr.Root)
	tr.Flip(tr.Root)

	if root.FirstChild != origFirst || root.SecondChild != origSecond {
		t.Fatalf("flip(flip(n)) should restore the original child order")
	}
	_ = b
}

func TestSwapTwiceIsIdentity(t *testing.T) {
	tr := New(10)
	a := tr.Insert(InvalidIndex, newClient(1))
	tr.Node(a).Rect = geometry.New(0, 0, 1920, 1080)
	b := tr.Insert(a, newClient(2))

	origA, origB := tr.Node(a).Client, tr.Node(b).Client
	tr.Swap(a, b)
	tr.Swap(a, b)

	if tr.Node(a).Client != origA || tr.Node(b).Client != origB {
		t.Fatalf("swap(a,b); swap(a,b) should be the identity")
	}
}

func TestTransferMovesLeafBetweenTrees(t *testing.T) {
	src := New(10)
	dst := New(10)
	a := src.Insert(InvalidIndex, newClient(1))
	src.Node(a).Rect = geometry.New(0, 0, 1920, 1080)

	newIdx := src.Transfer(a, dst)
	if !src.Empty() {
		t.Fatalf("expected source tree empty after transferring its only leaf")
	}
	if dst.LeafCount() != 1 {
		t.Fatalf("expected destination tree to hold the transferred leaf")
	}
	if dst.Node(newIdx).Client.Window != 1 {
		t.Fatalf("expected transferred client to keep its identity")
	}
}

func TestCloneIsStructurallyIndependent(t *testing.T) {
	tr := New(10)
	a := tr.Insert(InvalidIndex, newClient(1))
	tr.Node(a).Rect = geometry.New(0, 0, 1920, 1080)
	b := tr.Insert(a, newClient(2))

	clone := tr.Clone()
	clone.Flip(clone.Root)

	root := tr.Node(tr.Root)
	if root.FirstChild != a || root.SecondChild != b {
		t.Fatalf("mutating the clone must not affect the source tree")
	}
	cloneRoot := clone.Node(clone.Root)
	if cloneRoot.FirstChild == a && cloneRoot.SecondChild == b {
		t.Fatalf("expected the clone's children to be flipped relative to the source")
	}
	// Client pointers are shared (non-owning), per §4.5.
	if clone.Node(cloneRoot.FirstChild).Client != tr.Node(b).Client {
		t.Fatalf("clone should share client pointers with the source tree")
	}
}

func TestCycleWrapsAround(t *testing.T) {
	tr := New(10)
	a := tr.Insert(InvalidIndex, newClient(1))
	tr.Node(a).Rect = geometry.New(0, 0, 1920, 1080)
	b := tr.Insert(a, newClient(2))

	if got := tr.Cycle(b, CycleNext); got != a {
		t.Fatalf("cycling forward past the last leaf should wrap to the first, got %d want %d", got, a)
	}
	if got := tr.Cycle(a, CyclePrev); got != b {
		t.Fatalf("cycling backward past the first leaf should wrap to the last, got %d want %d", got, b)
	}
}

func TestApplyDefaultInsetsByGap(t *testing.T) {
	tr := New(10)
	a := tr.Insert(InvalidIndex, newClient(1))
	_ = a
	tr.Apply(LayoutDefault, geometry.New(0, 0, 1920, 1080))

	got := tr.Node(tr.Root).Rect
	want := geometry.New(10, 10, 1900, 1060)
	if got != want {
		t.Fatalf("expected a lone leaf to be inset by the gap on every side, got %+v want %+v", got, want)
	}
}

func TestApplyKeepsSiblingsDisjointAndGapped(t *testing.T) {
	tr := New(10)
	a := tr.Insert(InvalidIndex, newClient(1))
	tr.Node(a).Rect = geometry.New(0, 0, 1920, 1080)
	_ = tr.Insert(a, newClient(2))
	tr.Apply(LayoutDefault, geometry.New(0, 0, 1920, 1080))

	order := tr.InOrder()
	if len(order) != 2 {
		t.Fatalf("expected 2 leaves, got %d", len(order))
	}
	first, second := tr.Node(order[0]).Rect, tr.Node(order[1]).Rect
	if geometry.IntersectArea(first, second) != 0 {
		t.Fatalf("sibling rectangles must be disjoint: %+v vs %+v", first, second)
	}
	gap := second.X - (first.X + int32(first.Width))
	if gap != 10 {
		t.Fatalf("expected a 10px gutter between siblings, got %d", gap)
	}
}

func TestFocusedLeafCountOKAfterUpdateFocus(t *testing.T) {
	tr := New(10)
	a := tr.Insert(InvalidIndex, newClient(1))
	tr.Node(a).Rect = geometry.New(0, 0, 1920, 1080)
	b := tr.Insert(a, newClient(2))

	tr.UpdateFocus(a)
	tr.UpdateFocus(b)

	if !tr.FocusedLeafCountOK() {
		t.Fatalf("expected at most one focused leaf")
	}
	if !tr.Node(b).IsFocused || tr.Node(a).IsFocused {
		t.Fatalf("expected focus to have moved from a to b")
	}
}

func TestMasterLeafFallsBackToLeftmost(t *testing.T) {
	tr := New(10)
	a := tr.Insert(InvalidIndex, newClient(1))
	tr.Node(a).Rect = geometry.New(0, 0, 1920, 1080)
	_ = tr.Insert(a, newClient(2))

	if got := tr.MasterLeaf(); got != a {
		t.Fatalf("with no IsMaster leaf, expected the leftmost leaf %d, got %d", a, got)
	}
}

func TestApplyMasterGivesMasterSeventyPercent(t *testing.T) {
	tr := New(0)
	a := tr.Insert(InvalidIndex, newClient(1))
	tr.Node(a).Rect = geometry.New(0, 0, 1000, 1000)
	b := tr.Insert(a, newClient(2))
	c := tr.Insert(b, newClient(3))

	tr.Node(a).IsMaster = true
	tr.Apply(LayoutMaster, geometry.New(0, 0, 1000, 1000))

	master := tr.Node(a).Rect
	if master.Width != uint32(float64(1000)*MasterRatio) {
		t.Fatalf("expected master leaf to hold %.0f%% of width, got %d", MasterRatio*100, master.Width)
	}
	if tr.Node(b).Rect.Width != tr.Node(c).Rect.Width {
		t.Fatalf("expected remaining leaves to share the full width of the right column")
	}
}

func TestApplyGridSquareCount(t *testing.T) {
	tr := New(0)
	a := tr.Insert(InvalidIndex, newClient(1))
	tr.Node(a).Rect = geometry.New(0, 0, 1000, 1000)
	b := tr.Insert(a, newClient(2))
	c := tr.Insert(b, newClient(3))
	_ = tr.Insert(c, newClient(4))

	tr.Apply(LayoutGrid, geometry.New(0, 0, 1000, 1000))

	order := tr.InOrder()
	if len(order) != 4 {
		t.Fatalf("expected 4 leaves, got %d", len(order))
	}
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			if geometry.IntersectArea(tr.Node(order[i]).Rect, tr.Node(order[j]).Rect) != 0 {
				t.Fatalf("grid cells %d and %d overlap", i, j)
			}
		}
	}
}

func TestApplyStackAllLeavesShareFullRect(t *testing.T) {
	tr := New(0)
	a := tr.Insert(InvalidIndex, newClient(1))
	tr.Node(a).Rect = geometry.New(0, 0, 1000, 1000)
	b := tr.Insert(a, newClient(2))

	usable := geometry.New(0, 0, 1000, 1000)
	tr.Apply(LayoutStack, usable)

	if tr.Node(a).Rect != usable || tr.Node(b).Rect != usable {
		t.Fatalf("STACK layout should give every leaf the full usable rectangle")
	}
}
