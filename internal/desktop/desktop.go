// Package desktop models a single virtual workspace: one partition tree,
// one active layout, and the bookkeeping (leaf count, stack top window,
// focus flag) the core needs to keep the tree and the X server consistent.
package desktop

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/patrislav/bspgo/internal/client"
	"github.com/patrislav/bspgo/internal/geometry"
	"github.com/patrislav/bspgo/internal/invariant"
	"github.com/patrislav/bspgo/internal/tree"
)

// Desktop is one virtual workspace belonging to a monitor.
type Desktop struct {
	ID      uint8
	Name    string
	Tree    *tree.Tree
	Layout  tree.Layout
	NCount  int
	// TopWindow is the window shown on top under LayoutStack; meaningless
	// otherwise.
	TopWindow xproto.Window
	IsFocused bool
}

// New creates an empty desktop numbered id, with gap and masterRatio
// carried onto its tree so MASTER-layout leaves split at the configured
// ratio from the moment the desktop exists.
func New(id uint8, gap uint32, masterRatio float64) *Desktop {
	t := tree.New(gap)
	t.MasterRatio = masterRatio
	return &Desktop{
		ID:     id,
		Name:   fmt.Sprintf("%d", id),
		Tree:   t,
		Layout: tree.LayoutDefault,
	}
}

// Insert places newClient into the desktop's tree, splitting targetIdx (or
// becoming the root if the tree is empty), and returns the new leaf index.
func (d *Desktop) Insert(targetIdx int, c *client.Client) int {
	idx := d.Tree.Insert(targetIdx, c)
	d.NCount++
	d.checkInvariants()
	return idx
}

// Unlink removes the leaf at idx. It clears TopWindow if that window was
// the removed leaf's client, regardless of whether STACK is the desktop's
// active layout.
func (d *Desktop) Unlink(idx int) {
	n := d.Tree.Node(idx)
	removedWin := xproto.Window(0)
	if n.Client != nil {
		removedWin = n.Client.Window
	}
	d.Tree.Unlink(idx)
	d.NCount--
	if d.TopWindow == removedWin {
		d.TopWindow = 0
	}
	d.checkInvariants()
}

// TransferClient moves the leaf at idx out of d and into dest's tree,
// keeping both desktops' NCount bookkeeping and invariants consistent. Used
// by monitor reconciliation after an output disconnects or a config reload
// shrinks the desktop count (§9); the transfer/send-to-desktop commands
// unlink and insert directly instead.
func (d *Desktop) TransferClient(idx int, dest *Desktop) int {
	removedWin := xproto.Window(0)
	if n := d.Tree.Node(idx); n != nil && n.Client != nil {
		removedWin = n.Client.Window
	}
	newIdx := d.Tree.Transfer(idx, dest.Tree)
	d.NCount--
	dest.NCount++
	if d.TopWindow == removedWin {
		d.TopWindow = 0
	}
	d.checkInvariants()
	dest.checkInvariants()
	return newIdx
}

// ApplyLayout recomputes every leaf's rectangle for the desktop's current
// layout within usable.
func (d *Desktop) ApplyLayout(usable geometry.Rect) {
	d.Tree.Apply(d.Layout, usable)
	if d.Layout == tree.LayoutStack && d.TopWindow == 0 {
		if top := d.Tree.LeftmostLeaf(); top != tree.InvalidIndex {
			if c := d.Tree.Node(top).Client; c != nil {
				d.TopWindow = c.Window
			}
		}
	}
}

// SetLayout changes the active layout and clears MASTER/STACK state that
// doesn't apply to the new layout.
func (d *Desktop) SetLayout(l tree.Layout) {
	d.Layout = l
	if l != tree.LayoutStack {
		d.TopWindow = 0
	}
	if l != tree.LayoutMaster {
		for _, i := range d.Tree.PreOrder() {
			d.Tree.Node(i).IsMaster = false
		}
	}
}

// CycleStackTop moves TopWindow to the predecessor/successor leaf in
// in-order sequence.
func (d *Desktop) CycleStackTop(dir tree.CycleDirection) {
	if d.Tree.Empty() {
		return
	}
	cur := d.Tree.FindByWindow(d.TopWindow)
	if cur == tree.InvalidIndex {
		cur = d.Tree.LeftmostLeaf()
	}
	next := d.Tree.Cycle(cur, dir)
	if next == tree.InvalidIndex {
		return
	}
	d.TopWindow = d.Tree.Node(next).Client.Window
}

func (d *Desktop) checkInvariants() {
	invariant.Check(d.NCount == d.Tree.LeafCount(),
		"desktop leaf count diverged from tree", map[string]interface{}{
			"desktop": d.ID, "ncount": d.NCount, "tree_leaves": d.Tree.LeafCount(),
		})
	invariant.Check(d.Tree.FocusedLeafCountOK(),
		"more than one focused leaf on desktop", map[string]interface{}{"desktop": d.ID})
}
