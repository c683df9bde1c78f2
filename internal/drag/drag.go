// Package drag implements the interactive move/resize subsystem of §4.5: a
// pointer (or keyboard) grab drives a speculative layout computed against a
// cloned tree, rendered live, and only committed to the real desktop tree on
// a successful end. github.com/BurntSushi/xgbutil/mousebind supplies the
// pointer-grab primitives; the state machine itself is hand-rolled since the
// manager's event loop is a single manual switch over xproto events rather
// than mousebind's callback/xevent.Main machinery (§5 "single-threaded and
// cooperative").
package drag

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xcursor"

	"github.com/patrislav/bspgo/internal/desktop"
	"github.com/patrislav/bspgo/internal/geometry"
	"github.com/patrislav/bspgo/internal/render"
	"github.com/patrislav/bspgo/internal/tree"
)

// Mode selects what pointer motion does to the dragged client.
type Mode uint8

const (
	ModeMove Mode = iota
	ModeResize
)

// State is the live drag in progress, or the zero value when idle.
type State struct {
	Active bool
	Mode   Mode

	desktop  *desktop.Desktop
	leaf     int // current leaf index in preview occupied by the dragged client
	origLeaf int // leaf index in the real tree the drag started from
	win      xproto.Window

	startRootX, startRootY int16
	origRect               geometry.Rect

	// preview is a clone of desktop.Tree that Move mutates speculatively for
	// live rendering; it is always discarded, never written back, since its
	// shared Client pointers are non-owning.
	preview *tree.Tree
}

// Begin grabs the pointer and starts a drag of the leaf at idx within d,
// whose client window is win. rootX/rootY are the pointer's position at
// grab time.
func Begin(xu *xgbutil.XUtil, d *desktop.Desktop, idx int, win xproto.Window, mode Mode, rootX, rootY int16) (*State, error) {
	cursor, err := xcursor.CreateCursor(xu, xcursor.Fleur)
	if err != nil {
		return nil, err
	}
	ok, err := mousebind.GrabPointer(xu, xu.Dummy(), xu.RootWin(), cursor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	s := &State{
		Active:     true,
		Mode:       mode,
		desktop:    d,
		leaf:       idx,
		origLeaf:   idx,
		win:        win,
		startRootX: rootX,
		startRootY: rootY,
		origRect:   d.Tree.Node(idx).Rect,
		preview:    d.Tree.Clone(),
	}
	return s, nil
}

// Move updates the speculative layout for the current pointer position and
// renders every window except the dragged one from the preview tree, which
// follows the pointer directly. In resize mode only the dragged window is
// resized; the preview tree and the other windows are left as they are.
func Move(c *xproto.Conn, s *State, rootX, rootY int16) error {
	if s == nil || !s.Active {
		return nil
	}
	dx := int32(rootX - s.startRootX)
	dy := int32(rootY - s.startRootY)

	switch s.Mode {
	case ModeResize:
		n := s.preview.Node(s.leaf)
		w := clampDim(s.origRect.Width, dx)
		h := clampDim(s.origRect.Height, dy)
		if err := render.Move(c, s.win, n.Rect.X, n.Rect.Y, w, h); err != nil {
			return err
		}
		return nil
	default:
		x := s.origRect.X + dx
		y := s.origRect.Y + dy
		if err := render.Move(c, s.win, x, y, s.origRect.Width, s.origRect.Height); err != nil {
			return err
		}

		if target := s.preview.FindLeafAtPoint(int32(rootX), int32(rootY)); target != tree.InvalidIndex && target != s.leaf {
			s.preview = s.desktop.Tree.Clone()
			s.preview.Swap(s.origLeaf, target)
			s.leaf = target
		}
		return render.Desktop(c, &desktop.Desktop{Tree: s.preview}, render.BorderColors{}, s.win)
	}
}

func clampDim(orig uint32, delta int32) uint32 {
	v := int32(orig) + delta
	if v < 32 {
		return 32
	}
	return uint32(v)
}

// End commits the drag to the real tree and ungrabs the pointer (§4.5's
// drag_end). A move drag that crossed into another leaf is committed as one
// swap between the drag's starting leaf and wherever it ended up; Move
// builds each preview as that same single swap on a fresh clone of the real
// tree, so the committed layout is the one last previewed. A resize drag
// commits nothing to the tree: the caller's re-render returns the window to
// its tree rectangle.
func End(xu *xgbutil.XUtil, s *State) {
	if s == nil || !s.Active {
		return
	}
	if s.Mode == ModeMove && s.leaf != s.origLeaf {
		s.desktop.Tree.Swap(s.origLeaf, s.leaf)
		s.desktop.Tree.UpdateFocus(s.leaf)
	}
	mousebind.UngrabPointer(xu)
	s.Active = false
}

// Cancel discards the preview without touching the real tree, restoring the
// dragged window (and everything else) to the last committed layout via a
// normal re-render by the caller.
func Cancel(xu *xgbutil.XUtil, s *State) {
	if s == nil || !s.Active {
		return
	}
	mousebind.UngrabPointer(xu)
	s.Active = false
}
