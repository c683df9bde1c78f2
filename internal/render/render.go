// Package render pushes a desktop's computed leaf rectangles out to the X
// server: one ConfigureWindow per visible client, directly on the client's
// own window (no reparenting frame, per §1's "no decoration beyond border
// color and width"), grounded on the teacher's renderFrame but flattened to
// a single window per leaf instead of a frame-plus-client pair.
package render

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/patrislav/bspgo/internal/client"
	"github.com/patrislav/bspgo/internal/desktop"
	"github.com/patrislav/bspgo/internal/tree"
)

// BorderColors holds the two border pixel values a desktop renders with.
type BorderColors struct {
	Active uint32
	Normal uint32
}

// Desktop configures every tiled leaf in d to its computed rectangle and
// border. Floating and fullscreen clients are skipped, and so is the window
// named by except, which gets neither a geometry nor a border-color update
// (used while dragging, when the dragged window's geometry is driven by
// pointer motion instead of the tree, §4.5).
func Desktop(c *xproto.Conn, d *desktop.Desktop, colors BorderColors, except xproto.Window) error {
	var firstErr error
	for _, i := range d.Tree.PreOrder() {
		n := d.Tree.Node(i)
		if n.Kind != tree.Leaf || n.Client == nil {
			continue
		}
		if n.Client.State == client.Floating || n.Client.State == client.Fullscreen {
			continue
		}
		if except != 0 && n.Client.Window == except {
			continue
		}
		if err := Leaf(c, n, colors); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("render leaf %d: %w", i, err)
		}
	}
	return firstErr
}

// Leaf configures a single leaf's client window to its node rectangle,
// inset by its border width, and sets the border color for its focus state.
func Leaf(c *xproto.Conn, n *tree.Node, colors BorderColors) error {
	cl := n.Client
	border := cl.BorderWidth
	w := n.Rect.Width
	h := n.Rect.Height
	if w > 2*border {
		w -= 2 * border
	}
	if h > 2*border {
		h -= 2 * border
	}

	mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY |
		xproto.ConfigWindowWidth | xproto.ConfigWindowHeight | xproto.ConfigWindowBorderWidth)
	values := []uint32{
		uint32(n.Rect.X),
		uint32(n.Rect.Y),
		w,
		h,
		border,
	}
	if err := xproto.ConfigureWindowChecked(c, cl.Window, mask, values).Check(); err != nil {
		return err
	}
	return setBorderColor(c, cl.Window, colors, n.IsFocused)
}

// setBorderColor changes the client window's border pixel, grounded on the
// spec's §3 active_border_color/normal_border_color config fields.
func setBorderColor(c *xproto.Conn, win xproto.Window, colors BorderColors, focused bool) error {
	color := colors.Normal
	if focused {
		color = colors.Active
	}
	return xproto.ChangeWindowAttributesChecked(c, win, xproto.CwBorderPixel, []uint32{color}).Check()
}

// Unfocus repaints win's border as unfocused, independent of any tree
// node's IsFocused flag. Used by LeaveNotify under focus-follows-pointer
// (§4.3), where the pointer leaving a window should visually unfocus it
// immediately rather than waiting for the EnterNotify on whatever it enters
// next.
func Unfocus(c *xproto.Conn, win xproto.Window, colors BorderColors) error {
	return setBorderColor(c, win, colors, false)
}

// Move configures win directly to rect without consulting the tree, used by
// the drag subsystem's live preview.
func Move(c *xproto.Conn, win xproto.Window, x, y int32, w, h uint32) error {
	mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY |
		xproto.ConfigWindowWidth | xproto.ConfigWindowHeight)
	values := []uint32{uint32(x), uint32(y), w, h}
	return xproto.ConfigureWindowChecked(c, win, mask, values).Check()
}
