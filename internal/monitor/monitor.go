// Package monitor models a physical output: its virtual-screen rectangle,
// its fixed-size array of desktops, and primary/focus bookkeeping (§3,
// §4.2).
package monitor

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/patrislav/bspgo/internal/desktop"
	"github.com/patrislav/bspgo/internal/geometry"
	"github.com/patrislav/bspgo/internal/tree"
)

// Monitor is one physical output and the desktops bound to it.
type Monitor struct {
	// RandrOutput is a RANDR output identifier slot. Discover leaves it 0
	// for every monitor, since Xinerama does not report a per-output
	// identifier.
	RandrOutput uint32
	Name        string
	Rect        geometry.Rect
	Desktops    []*desktop.Desktop
	ActiveIdx   int
	IsPrimary   bool
	IsFocused   bool

	// BarWindow is the dock window reserving barRect, or 0 if hasBar is
	// false. Tracked so the reducer can recognize the window again on
	// UnmapNotify/DestroyNotify without having inserted it into any
	// desktop's tree.
	BarWindow xproto.Window

	// barRect is the dock window's rectangle, set only on the primary
	// monitor; zero value means no bar.
	barRect geometry.Rect
	hasBar  bool
}

// New creates a monitor with n virtual desktops (numbered from 1) covering
// rect, with desktop 1 initially active.
func New(name string, rect geometry.Rect, n int, gap uint32, masterRatio float64) *Monitor {
	m := &Monitor{Name: name, Rect: rect}
	for i := 1; i <= n; i++ {
		m.Desktops = append(m.Desktops, desktop.New(uint8(i), gap, masterRatio))
	}
	if len(m.Desktops) > 0 {
		m.Desktops[0].IsFocused = true
	}
	return m
}

// Active returns the monitor's currently selected desktop.
func (m *Monitor) Active() *desktop.Desktop {
	if m.ActiveIdx < 0 || m.ActiveIdx >= len(m.Desktops) {
		return nil
	}
	return m.Desktops[m.ActiveIdx]
}

// SwitchTo makes the desktop with the given id active, clearing IsFocused
// on the previous one.
func (m *Monitor) SwitchTo(id uint8) bool {
	for i, d := range m.Desktops {
		if d.ID == id {
			if cur := m.Active(); cur != nil {
				cur.IsFocused = false
			}
			m.ActiveIdx = i
			d.IsFocused = true
			return true
		}
	}
	return false
}

// SetBar records win as the dock occupying rectangle r, subtracting it from
// every desktop's usable area on subsequent layout applications (§4.2).
func (m *Monitor) SetBar(win xproto.Window, r geometry.Rect) {
	m.BarWindow = win
	m.barRect = r
	m.hasBar = true
}

// ClearBar removes the dock window, restoring the monitor's full rectangle
// as the usable area.
func (m *Monitor) ClearBar() {
	m.hasBar = false
	m.barRect = geometry.Rect{}
	m.BarWindow = 0
}

// HasBar reports whether win is this monitor's currently registered dock
// window, so the reducer can route its UnmapNotify/DestroyNotify to
// ClearBar instead of the ordinary tree-leaf unmanage path.
func (m *Monitor) HasBar(win xproto.Window) bool {
	return m.hasBar && m.BarWindow == win
}

// UsableRect returns the monitor rectangle minus the bar's height, if any.
// Only docks anchored at the top are modeled, matching the bar described
// in §3/§4.2 ("a single dock window").
func (m *Monitor) UsableRect() geometry.Rect {
	if !m.hasBar {
		return m.Rect
	}
	return geometry.Rect{
		X:      m.Rect.X,
		Y:      m.Rect.Y + int32(m.barRect.Height),
		Width:  m.Rect.Width,
		Height: m.Rect.Height - m.barRect.Height,
	}
}

// RelayoutActive re-applies the active desktop's layout against the
// current usable rectangle.
func (m *Monitor) RelayoutActive() {
	if d := m.Active(); d != nil {
		d.ApplyLayout(m.UsableRect())
	}
}

// DesktopByID returns the desktop with the given id, or nil.
func (m *Monitor) DesktopByID(id uint8) *desktop.Desktop {
	for _, d := range m.Desktops {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// FindWindow searches every desktop's tree for win, returning the owning
// desktop and leaf index, or (nil, tree.InvalidIndex).
func (m *Monitor) FindWindow(win xproto.Window) (*desktop.Desktop, int) {
	for _, d := range m.Desktops {
		if idx := d.Tree.FindByWindow(win); idx != tree.InvalidIndex {
			return d, idx
		}
	}
	return nil, tree.InvalidIndex
}
