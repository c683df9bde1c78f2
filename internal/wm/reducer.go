// Event handlers: one method per event type the manager handles (selected
// on the root window in becomeWM, on each managed window in manageWindow,
// through the drag pointer grab, and through SelectRandr), grounded on the
// teacher's wm.Run switch but rewritten
// against this project's client/desktop/tree model instead of the
// teacher's frame-reparenting one.
package wm

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/patrislav/bspgo/internal/client"
	"github.com/patrislav/bspgo/internal/drag"
	"github.com/patrislav/bspgo/internal/ewmh"
	"github.com/patrislav/bspgo/internal/geometry"
	"github.com/patrislav/bspgo/internal/keys"
	"github.com/patrislav/bspgo/internal/logger"
	"github.com/patrislav/bspgo/internal/monitor"
	"github.com/patrislav/bspgo/internal/render"
	"github.com/patrislav/bspgo/internal/tree"
)

// dispatch routes a single xgb.Event to its handler.
func (m *Manager) dispatch(xev xgb.Event) {
	switch ev := xev.(type) {
	case xproto.KeyPressEvent:
		m.onKeyPress(ev)
	case xproto.ButtonPressEvent:
		m.onButtonPress(ev)
	case xproto.MotionNotifyEvent:
		m.onMotionNotify(ev)
	case xproto.ButtonReleaseEvent:
		m.onButtonRelease(ev)
	case xproto.EnterNotifyEvent:
		m.onEnterNotify(ev)
	case xproto.LeaveNotifyEvent:
		m.onLeaveNotify(ev)
	case xproto.ConfigureRequestEvent:
		m.onConfigureRequest(ev)
	case xproto.MapRequestEvent:
		m.onMapRequest(ev)
	case xproto.UnmapNotifyEvent:
		m.onUnmapNotify(ev)
	case xproto.DestroyNotifyEvent:
		m.onDestroyNotify(ev)
	case xproto.ClientMessageEvent:
		m.onClientMessage(ev)
	case xproto.MappingNotifyEvent:
		m.onMappingNotify(ev)
	case randr.ScreenChangeNotifyEvent:
		m.onScreenChange(ev)
	}
}

// onMapRequest manages a newly mapped top-level window: classifies it,
// applies any matching rule, inserts it into the focused desktop's tree (or
// marks it floating), grabs its bindings, and maps it if its desktop is
// shown, focusing it as manageWindow's focus rule decides.
func (m *Manager) onMapRequest(ev xproto.MapRequestEvent) {
	if attr, err := xproto.GetWindowAttributes(m.Conn.C(), ev.Window).Reply(); err == nil && attr.OverrideRedirect {
		return
	}
	m.manageWindow(ev.Window)
}

func (m *Manager) manageWindow(win xproto.Window) {
	for _, mon := range m.Monitors {
		if _, idx := mon.FindWindow(win); idx != tree.InvalidIndex {
			return
		}
	}

	typ, state := ewmh.Classify(m.Conn.XU, win)
	if typ == client.TypeDock {
		m.manageDock(win)
		return
	}
	cl := client.New(win, typ, m.Config.BorderWidth)
	cl.State = state
	cl.SupportsDelete = ewmh.SupportsDelete(m.Conn.XU, win)

	class := ""
	if wc, err := icccm.WmClassGet(m.Conn.XU, win); err == nil {
		class = wc.Class
	}
	cl.Class = class

	mon := m.FocusedMon()
	if mon == nil {
		return
	}
	d := mon.Active()
	for _, r := range m.Config.Rules {
		if r.Class != "" && r.Class != class {
			continue
		}
		if r.ForceState {
			cl.State = r.State
		}
		if r.ForceDesktop {
			if target := mon.DesktopByID(r.Desktop); target != nil {
				d = target
			}
		}
	}
	if d == nil {
		return
	}

	wasEmpty := d.Tree.Empty()
	target := d.Tree.FocusedLeaf()
	if target == tree.InvalidIndex {
		target = d.Tree.LeftmostLeaf()
	}
	idx := d.Insert(target, cl)

	if cl.State == client.Floating {
		d.Tree.Node(idx).FloatingRect = floatingRect(m.Conn.XU, win, mon.UsableRect())
	}

	mousebind.Grab(m.Conn.XU, win, xproto.ModMask4, 1, false)
	mousebind.Grab(m.Conn.XU, win, xproto.ModMask4, 3, false)
	// EnterNotify/LeaveNotify for focus-follows-pointer are only delivered
	// for windows that select them; the root window's mask does not.
	xproto.ChangeWindowAttributes(m.Conn.C(), win, xproto.CwEventMask,
		[]uint32{xproto.EventMaskEnterWindow | xproto.EventMaskLeaveWindow})

	// A desktop that was empty always focuses its new window, since
	// nothing else to hold input focus; otherwise focus-follows-spawn
	// decides whether this window steals focus from the current one.
	grabFocus := wasEmpty || m.Config.FocusFollowSpawn

	visible := d == mon.Active()
	if visible {
		if grabFocus {
			d.Tree.UpdateFocus(idx)
			m.activeWin = win
			m.setFocus(win)
		}
		xproto.MapWindow(m.Conn.C(), win)
		mon.RelayoutActive()
		m.renderDesktop(d)
	} else {
		if wasEmpty {
			d.Tree.UpdateFocus(idx)
		}
		// A rule sent this window to a desktop that isn't currently shown
		// on its monitor; lay it out for when that desktop becomes active,
		// but never map it.
		d.ApplyLayout(mon.UsableRect())
	}
	m.publishState()
}

// manageDock reserves win as the primary monitor's bar instead of inserting
// it as a tree leaf, matching the teacher's dedicated dock branch
// (manager.go: `case container.WinTypeDock: m.outputs[0].AddDock(frame)`)
// rather than floating it like every other always-floating type.
func (m *Manager) manageDock(win xproto.Window) {
	primary := m.primaryMonitor()
	if primary == nil {
		return
	}
	primary.SetBar(win, barRect(m.Conn.XU, win, primary.Rect))
	xproto.MapWindow(m.Conn.C(), win)
	primary.RelayoutActive()
	m.renderDesktop(primary.Active())
}

// primaryMonitor returns the monitor marked primary by monitor.Discover, or
// the first monitor if none is marked (shouldn't happen in practice, since
// Discover always marks exactly one).
func (m *Manager) primaryMonitor() *monitor.Monitor {
	for _, mon := range m.Monitors {
		if mon.IsPrimary {
			return mon
		}
	}
	if len(m.Monitors) > 0 {
		return m.Monitors[0]
	}
	return nil
}

// barRect anchors a dock window across the top of mon's full rectangle,
// sized to the dock's own requested height, falling back to a conservative
// default if the geometry query fails.
func barRect(xu *xgbutil.XUtil, win xproto.Window, mon geometry.Rect) geometry.Rect {
	height := uint32(24)
	if g, err := xwindow.RawGeometry(xu, xproto.Drawable(win)); err == nil && g.Height() > 0 {
		height = uint32(g.Height())
	}
	return geometry.New(mon.X, mon.Y, mon.Width, height)
}

// floatingRect seeds a newly floated window's preserved-across-toggles
// rectangle from its own requested geometry (ICCCM size hints having
// already been consulted by ewmh.Classify), centered within usable,
// instead of inheriting whatever tiled rectangle the tree happened to
// assign it. Falls back to a rectangle centered in usable at a third its
// size if the window's geometry can't be queried (already-destroyed
// window, unusual client).
func floatingRect(xu *xgbutil.XUtil, win xproto.Window, usable geometry.Rect) geometry.Rect {
	w, h := usable.Width/3, usable.Height/3
	if g, err := xwindow.RawGeometry(xu, xproto.Drawable(win)); err == nil && g.Width() > 0 && g.Height() > 0 {
		w, h = uint32(g.Width()), uint32(g.Height())
	}
	cx, cy := usable.Center()
	return geometry.New(cx-int32(w)/2, cy-int32(h)/2, w, h)
}

// onUnmapNotify unmanages a window that was unmapped (voluntarily, by its
// own client) unless the manager itself issued the unmap (a desktop-switch
// hide or a transfer), as recorded in suppressUnmap.
func (m *Manager) onUnmapNotify(ev xproto.UnmapNotifyEvent) {
	if m.suppressUnmap[ev.Window] {
		delete(m.suppressUnmap, ev.Window)
		return
	}
	m.unmanageWindow(ev.Window)
}

// onDestroyNotify unmanages a window that was destroyed out from under the
// manager.
func (m *Manager) onDestroyNotify(ev xproto.DestroyNotifyEvent) {
	m.unmanageWindow(ev.Window)
}

func (m *Manager) unmanageWindow(win xproto.Window) {
	delete(m.suppressUnmap, win)
	for _, mon := range m.Monitors {
		if mon.HasBar(win) {
			mon.ClearBar()
			mon.RelayoutActive()
			m.renderDesktop(mon.Active())
			return
		}
	}
	for _, mon := range m.Monitors {
		for _, d := range mon.Desktops {
			idx := d.Tree.FindByWindow(win)
			if idx == tree.InvalidIndex {
				continue
			}
			wasFocused := d.Tree.Node(idx).IsFocused
			d.Unlink(idx)
			if wasFocused {
				if next := d.Tree.LeftmostLeaf(); next != tree.InvalidIndex {
					d.Tree.UpdateFocus(next)
					if c := d.Tree.Node(next).Client; c != nil {
						m.activeWin = c.Window
						m.setFocus(c.Window)
					}
				} else {
					m.activeWin = 0
				}
			}
			mon.RelayoutActive()
			m.renderDesktop(d)
			m.publishState()
			return
		}
	}
}

// onConfigureRequest honors geometry requests from unmanaged or floating
// windows verbatim; tiled windows are re-synthesized at their tree rectangle
// instead, since the tree alone owns their geometry.
func (m *Manager) onConfigureRequest(ev xproto.ConfigureRequestEvent) {
	for _, mon := range m.Monitors {
		if d, idx := mon.FindWindow(ev.Window); idx != tree.InvalidIndex {
			if n := d.Tree.Node(idx); n.Client != nil && n.Client.State == client.Tiled {
				colors := render.BorderColors{Active: m.Config.ActiveBorderColor, Normal: m.Config.NormalBorderColor}
				_ = render.Leaf(m.Conn.C(), n, colors)
				return
			}
			break
		}
	}
	mask := uint16(0)
	values := make([]uint32, 0, 7)
	add := func(m2 uint16, v uint32) {
		mask |= m2
		values = append(values, v)
	}
	if ev.ValueMask&xproto.ConfigWindowX != 0 {
		add(xproto.ConfigWindowX, uint32(ev.X))
	}
	if ev.ValueMask&xproto.ConfigWindowY != 0 {
		add(xproto.ConfigWindowY, uint32(ev.Y))
	}
	if ev.ValueMask&xproto.ConfigWindowWidth != 0 {
		add(xproto.ConfigWindowWidth, uint32(ev.Width))
	}
	if ev.ValueMask&xproto.ConfigWindowHeight != 0 {
		add(xproto.ConfigWindowHeight, uint32(ev.Height))
	}
	if ev.ValueMask&xproto.ConfigWindowBorderWidth != 0 {
		add(xproto.ConfigWindowBorderWidth, uint32(ev.BorderWidth))
	}
	if ev.ValueMask&xproto.ConfigWindowSibling != 0 {
		add(xproto.ConfigWindowSibling, uint32(ev.Sibling))
	}
	if ev.ValueMask&xproto.ConfigWindowStackMode != 0 {
		add(xproto.ConfigWindowStackMode, uint32(ev.StackMode))
	}
	_ = xproto.ConfigureWindowChecked(m.Conn.C(), ev.Window, mask, values).Check()
}

// onClientMessage decodes EWMH requests from pagers/panels: desktop
// switches, fullscreen toggles, and close requests.
func (m *Manager) onClientMessage(ev xproto.ClientMessageEvent) {
	atoms := ewmh.AtomSet{
		CurrentDesktop: m.atoms.netCurrentDesktop,
		WmState:        m.atoms.netWmState,
		CloseWindow:    m.atoms.netCloseWindow,
		Fullscreen:     m.atoms.netWmStateFullscreen,
	}
	cmd, ok := ewmh.Decode(atoms, ev)
	if !ok {
		return
	}
	switch {
	case cmd.SwitchDesktop:
		m.cmdSwitchDesktop(cmd.DesktopIndex + 1)
	case cmd.ToggleFullscreen:
		m.cmdToggleFullscreenWindow(ev.Window)
	case cmd.CloseWindow:
		m.closeWindow(ev.Window)
	}
}

// onEnterNotify implements focus-follows-pointer when enabled.
func (m *Manager) onEnterNotify(ev xproto.EnterNotifyEvent) {
	if !m.Config.FocusFollowPointer {
		return
	}
	if ev.Mode != xproto.NotifyModeNormal {
		return
	}
	for _, mon := range m.Monitors {
		if d, idx := mon.FindWindow(ev.Event); idx != tree.InvalidIndex {
			d.Tree.UpdateFocus(idx)
			m.activeWin = ev.Event
			m.setFocus(ev.Event)
			m.renderDesktop(d)
			_ = m.EWMH.SetActiveWindow(ev.Event)
			return
		}
	}
}

// onLeaveNotify repaints the window the pointer just left as unfocused
// under focus-follows-pointer, without touching the tree's IsFocused flag
// (the matching EnterNotify on whichever window gains the pointer is what
// actually moves focus, per §4.3's event table).
func (m *Manager) onLeaveNotify(ev xproto.LeaveNotifyEvent) {
	if !m.Config.FocusFollowPointer {
		return
	}
	if ev.Mode != xproto.NotifyModeNormal {
		return
	}
	colors := render.BorderColors{Active: m.Config.ActiveBorderColor, Normal: m.Config.NormalBorderColor}
	if err := render.Unfocus(m.Conn.C(), ev.Event, colors); err != nil {
		logger.WithComponent("render").Warn().Err(err).Msg("paint leave-notify unfocused")
	}
}

// onScreenChange re-enumerates outputs after RandR reports a screen
// change (hotplug, resolution change), reconciling the new monitor list
// against the previous one per §9's Open Question: a departing monitor's
// desktops are merged into the primary monitor's desktops of the same id,
// promoting the lowest-id remaining monitor to primary first if the
// primary itself departed.
func (m *Manager) onScreenChange(ev randr.ScreenChangeNotifyEvent) {
	log := logger.WithComponent("wm")

	fresh := monitor.Discover(m.Conn.XU, m.Conn.ScreenRect(), m.Config.VirtualDesktops, m.Config.WindowGap, m.Config.MasterRatio)
	if len(fresh) == len(m.Monitors) {
		// Same output count: assume geometry-only change (resolution,
		// position) and just re-bind rectangles onto the existing desktop
		// state rather than discarding live trees.
		for i, mon := range m.Monitors {
			mon.Rect = fresh[i].Rect
			mon.RandrOutput = fresh[i].RandrOutput
		}
		for _, mon := range m.Monitors {
			mon.RelayoutActive()
			m.renderDesktop(mon.Active())
		}
		m.publishState()
		return
	}

	old := m.Monitors
	m.Monitors = fresh
	// Monitors present before and after keep their desktops and trees.
	for i := 0; i < len(fresh) && i < len(old); i++ {
		fresh[i].Desktops = old[i].Desktops
		fresh[i].ActiveIdx = old[i].ActiveIdx
	}

	if len(fresh) < len(old) {
		primary := fresh[0]
		for _, dep := range old[len(fresh):] {
			for _, d := range dep.Desktops {
				dst := primary.DesktopByID(d.ID)
				if dst == nil {
					dst = primary.Desktops[0]
				}
				for !d.Tree.Empty() {
					leaf := d.Tree.LeftmostLeaf()
					if leaf == tree.InvalidIndex {
						break
					}
					d.TransferClient(leaf, dst)
				}
			}
		}
		log.Info().Int("removed", len(old)-len(fresh)).Msg("monitor disconnected, desktops merged into primary")
	} else {
		log.Info().Int("added", len(fresh)-len(old)).Msg("monitor connected")
	}

	m.FocusedMonitor = 0
	for _, mon := range m.Monitors {
		mon.RelayoutActive()
		m.renderDesktop(mon.Active())
	}
	m.publishState()
}

// onKeyPress matches the event against the resolved binding table and
// dispatches the matching command.
func (m *Manager) onKeyPress(ev xproto.KeyPressEvent) {
	for _, b := range m.Bound {
		if keys.Match(b, ev.State, ev.Detail) {
			m.dispatchCommand(b.Binding.Command, resolveArg(b))
			return
		}
	}
}

// onMappingNotify re-resolves and re-grabs every binding after a keyboard
// mapping change.
func (m *Manager) onMappingNotify(ev xproto.MappingNotifyEvent) {
	bound, errs := keys.Regrab(m.Conn.XU, m.Conn.Root(), m.Config.Bindings, m.Bound)
	for _, e := range errs {
		logger.WithComponent("keys").Warn().Err(e).Msg("failed to re-resolve binding")
	}
	m.Bound = bound
}

// onButtonPress begins an interactive move (button 1) or resize (button 3)
// drag on the window under the pointer.
func (m *Manager) onButtonPress(ev xproto.ButtonPressEvent) {
	mon := m.FocusedMon()
	if mon == nil {
		return
	}
	d, idx := mon.FindWindow(ev.Event)
	if idx == tree.InvalidIndex {
		return
	}
	var mode drag.Mode
	switch ev.Detail {
	case 1:
		mode = drag.ModeMove
	case 3:
		mode = drag.ModeResize
	default:
		return
	}
	d.Tree.UpdateFocus(idx)
	m.activeWin = ev.Event
	m.setFocus(ev.Event)
	st, err := drag.Begin(m.Conn.XU, d, idx, ev.Event, mode, ev.RootX, ev.RootY)
	if err != nil {
		logger.WithComponent("drag").Warn().Err(err).Msg("begin drag")
		return
	}
	m.drag = st
}

// onMotionNotify steps the active drag, if any.
func (m *Manager) onMotionNotify(ev xproto.MotionNotifyEvent) {
	if m.drag == nil || !m.drag.Active {
		return
	}
	if err := drag.Move(m.Conn.C(), m.drag, ev.RootX, ev.RootY); err != nil {
		logger.WithComponent("drag").Warn().Err(err).Msg("move drag")
	}
}

// onButtonRelease commits the active drag, if any.
func (m *Manager) onButtonRelease(ev xproto.ButtonReleaseEvent) {
	if m.drag == nil {
		return
	}
	drag.End(m.Conn.XU, m.drag)
	m.drag = nil
	if mon := m.FocusedMon(); mon != nil {
		mon.RelayoutActive()
		m.renderDesktop(mon.Active())
		m.publishState()
	}
}
