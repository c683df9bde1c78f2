// Package geometry defines the rectangle primitives shared by the tree,
// monitor and drag packages.
package geometry

import "github.com/BurntSushi/xgbutil/xrect"

// Rect is a screen-space rectangle. X and Y are signed so that a rectangle
// can describe a monitor placed to the left of or above the virtual origin;
// Width and Height are unsigned since X11 rejects negative extents.
type Rect struct {
	X, Y          int32
	Width, Height uint32
}

// New builds a Rect from its four components.
func New(x, y int32, w, h uint32) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

// Shrink insets the rectangle by n pixels on every side. If the result would
// have negative extent on an axis, that axis collapses to zero instead of
// wrapping (X11's uint16 width/height would otherwise underflow).
func (r Rect) Shrink(n uint32) Rect {
	out := r
	out.X += int32(n)
	out.Y += int32(n)
	if r.Width > 2*n {
		out.Width = r.Width - 2*n
	} else {
		out.Width = 0
	}
	if r.Height > 2*n {
		out.Height = r.Height - 2*n
	} else {
		out.Height = 0
	}
	return out
}

// Contains reports whether the point (x, y) falls within the rectangle.
func (r Rect) Contains(x, y int32) bool {
	return x >= r.X && x < r.X+int32(r.Width) &&
		y >= r.Y && y < r.Y+int32(r.Height)
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (x, y int32) {
	return r.X + int32(r.Width)/2, r.Y + int32(r.Height)/2
}

// SplitVertical divides the rectangle into a left and right part along the
// vertical axis, at the given ratio (0, 1) of the total width.
func (r Rect) SplitVertical(ratio float64) (first, second Rect) {
	fw := uint32(float64(r.Width) * ratio)
	first = Rect{X: r.X, Y: r.Y, Width: fw, Height: r.Height}
	second = Rect{X: r.X + int32(fw), Y: r.Y, Width: r.Width - fw, Height: r.Height}
	return first, second
}

// SplitHorizontal divides the rectangle into a top and bottom part along the
// horizontal axis, at the given ratio (0, 1) of the total height.
func (r Rect) SplitHorizontal(ratio float64) (first, second Rect) {
	fh := uint32(float64(r.Height) * ratio)
	first = Rect{X: r.X, Y: r.Y, Width: r.Width, Height: fh}
	second = Rect{X: r.X, Y: r.Y + int32(fh), Width: r.Width, Height: r.Height - fh}
	return first, second
}

// SplitVerticalGap is SplitVertical but reserves a gap-pixel gutter between
// the two halves, so the children no longer touch.
func (r Rect) SplitVerticalGap(ratio float64, gap uint32) (first, second Rect) {
	avail := r.Width
	if avail > gap {
		avail -= gap
	} else {
		avail = 0
	}
	fw := uint32(float64(avail) * ratio)
	first = Rect{X: r.X, Y: r.Y, Width: fw, Height: r.Height}
	second = Rect{X: r.X + int32(fw) + int32(gap), Y: r.Y, Width: avail - fw, Height: r.Height}
	return first, second
}

// SplitHorizontalGap is SplitHorizontal but reserves a gap-pixel gutter
// between the two halves.
func (r Rect) SplitHorizontalGap(ratio float64, gap uint32) (first, second Rect) {
	avail := r.Height
	if avail > gap {
		avail -= gap
	} else {
		avail = 0
	}
	fh := uint32(float64(avail) * ratio)
	first = Rect{X: r.X, Y: r.Y, Width: r.Width, Height: fh}
	second = Rect{X: r.X, Y: r.Y + int32(fh) + int32(gap), Width: r.Width, Height: avail - fh}
	return first, second
}

// Wide reports whether the rectangle's width exceeds its height, which
// decides the split orientation used by the tree engine's insertion rule.
func (r Rect) Wide() bool {
	return r.Width > r.Height
}

// xrectValue adapts a Rect to xgbutil/xrect.Rect so the tree engine can
// reuse its intersection-area helper for overlap sanity checks in tests.
type xrectValue struct{ r Rect }

func (v xrectValue) X() int16      { return int16(v.r.X) }
func (v xrectValue) Y() int16      { return int16(v.r.Y) }
func (v xrectValue) Width() uint16 { return uint16(v.r.Width) }
func (v xrectValue) Height() uint16 {
	return uint16(v.r.Height)
}

// IntersectArea returns the overlapping area of two rectangles, delegating
// the arithmetic to xgbutil/xrect so geometry invariants are checked the
// same way the rest of the corpus checks them.
func IntersectArea(a, b Rect) int {
	return xrect.IntersectArea(xrectValue{a}, xrectValue{b})
}
