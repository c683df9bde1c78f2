// Command dispatch: the string names bound in config.Binding.Command map to
// the handlers below through dispatchCommand, grounded on the teacher's
// handleKeyPressEvent linear scan but rewritten as a table keyed by command
// name, each handler taking the same argument record.
package wm

import (
	"os/exec"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/patrislav/bspgo/internal/action"
	"github.com/patrislav/bspgo/internal/client"
	"github.com/patrislav/bspgo/internal/desktop"
	"github.com/patrislav/bspgo/internal/drag"
	"github.com/patrislav/bspgo/internal/ewmh"
	"github.com/patrislav/bspgo/internal/logger"
	"github.com/patrislav/bspgo/internal/tree"
)

// dispatchCommand looks up name in the command table and runs it with arg.
// An unrecognized name is logged and otherwise ignored, so one bad binding
// in the config doesn't crash the manager.
func (m *Manager) dispatchCommand(name string, arg action.Arg) {
	switch name {
	case "cycle_focus":
		m.cmdCycleFocus(arg.Direction)
	case "swap":
		m.cmdSwap(arg.Direction)
	case "transfer":
		m.cmdTransfer(arg.Direction)
	case "resize":
		m.cmdResize(arg.Direction, arg.Resize)
	case "flip":
		m.cmdFlip()
	case "set_layout":
		m.cmdSetLayout(arg.Layout)
	case "toggle_floating":
		m.cmdToggleFloating()
	case "toggle_fullscreen":
		m.cmdToggleFullscreen()
	case "switch_desktop":
		m.cmdSwitchDesktop(uint8(arg.DesktopIndex))
	case "send_to_desktop":
		m.cmdSendToDesktop(uint8(arg.DesktopIndex))
	case "cycle_stack_top":
		m.cmdCycleStackTop(arg.Direction)
	case "close_window":
		m.cmdCloseFocused()
	case "drag_start":
		m.cmdDragStart()
	case "drag_cancel":
		m.cmdDragCancel()
	case "run":
		m.cmdRun(arg.Strings)
	case "quit":
		m.cmdQuit()
	default:
		logger.WithComponent("wm").Warn().Str("command", name).Msg("unknown command")
	}
}

// cmdCycleFocus moves focus to the predecessor/successor leaf.
func (m *Manager) cmdCycleFocus(dir action.Direction) {
	d := m.ActiveDesktop()
	if d == nil {
		return
	}
	cur := d.Tree.FocusedLeaf()
	if cur == tree.InvalidIndex {
		return
	}
	next := d.Tree.Cycle(cur, cycleDir(dir))
	if next == tree.InvalidIndex {
		return
	}
	d.Tree.UpdateFocus(next)
	if c := d.Tree.Node(next).Client; c != nil {
		m.activeWin = c.Window
		m.setFocus(c.Window)
	}
	m.renderDesktop(d)
	m.publishState()
}

// cmdSwap exchanges the focused leaf's client with its neighbor in dir
// without moving focus.
func (m *Manager) cmdSwap(dir action.Direction) {
	d := m.ActiveDesktop()
	if d == nil {
		return
	}
	cur := d.Tree.FocusedLeaf()
	if cur == tree.InvalidIndex {
		return
	}
	target := d.Tree.Cycle(cur, cycleDir(dir))
	if target == tree.InvalidIndex {
		return
	}
	d.Tree.Swap(cur, target)
	m.renderDesktop(d)
}

// cmdTransfer moves the focused client out of its current leaf and into the
// leftmost leaf of the desktop reached by dir (treated here as prev/next
// cycling among the monitor's desktops).
func (m *Manager) cmdTransfer(dir action.Direction) {
	mon := m.FocusedMon()
	d := m.ActiveDesktop()
	if mon == nil || d == nil {
		return
	}
	cur := d.Tree.FocusedLeaf()
	if cur == tree.InvalidIndex {
		return
	}
	c := d.Tree.Node(cur).Client
	if c == nil {
		return
	}

	destIdx := mon.ActiveIdx
	switch dir {
	case action.DirLeft, action.DirUp:
		destIdx = (destIdx - 1 + len(mon.Desktops)) % len(mon.Desktops)
	default:
		destIdx = (destIdx + 1) % len(mon.Desktops)
	}
	if destIdx == mon.ActiveIdx || destIdx < 0 || destIdx >= len(mon.Desktops) {
		return
	}
	dest := mon.Desktops[destIdx]

	d.Unlink(cur)
	target := dest.Tree.LeftmostLeaf()
	newIdx := dest.Insert(target, c)
	dest.Tree.UpdateFocus(newIdx)
	m.suppressUnmap[c.Window] = true
	xproto.UnmapWindow(m.Conn.C(), c.Window)

	m.refocusAfterDeparture(d)
	mon.RelayoutActive()
	m.renderDesktop(d)
	m.publishState()
}

// refocusAfterDeparture picks a new focused leaf on d after its previously
// focused client left (transferred or sent to another desktop), mirroring
// unmanageWindow's re-focus-on-removal behavior.
func (m *Manager) refocusAfterDeparture(d *desktop.Desktop) {
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

// cmdResize adjusts the split ratio of the focused leaf's parent towards or
// away from dir.
func (m *Manager) cmdResize(dir action.Direction, mode action.ResizeMode) {
	d := m.ActiveDesktop()
	if d == nil || mode == action.ResizeNone {
		return
	}
	cur := d.Tree.FocusedLeaf()
	if cur == tree.InvalidIndex {
		return
	}
	n := d.Tree.Node(cur)
	parentIdx := n.Parent
	if parentIdx == tree.InvalidIndex {
		return
	}
	parent := d.Tree.Node(parentIdx)

	const step = 0.05
	delta := step
	if mode == action.ResizeShrink {
		delta = -step
	}
	isFirst := parent.FirstChild == cur
	if !isFirst {
		delta = -delta
	}
	switch dir {
	case action.DirLeft, action.DirUp:
		delta = -delta
	}

	ratio := parent.Ratio + delta
	if ratio < 0.1 {
		ratio = 0.1
	}
	if ratio > 0.9 {
		ratio = 0.9
	}
	parent.Ratio = ratio
	d.Tree.Resize(parentIdx)
	m.renderDesktop(d)
}

// cmdFlip swaps the focused leaf's sibling order under its parent.
func (m *Manager) cmdFlip() {
	d := m.ActiveDesktop()
	if d == nil {
		return
	}
	cur := d.Tree.FocusedLeaf()
	if cur == tree.InvalidIndex {
		return
	}
	if parentIdx := d.Tree.Node(cur).Parent; parentIdx != tree.InvalidIndex {
		d.Tree.Flip(parentIdx)
		m.renderDesktop(d)
	}
}

// cmdSetLayout switches the active desktop's layout policy.
func (m *Manager) cmdSetLayout(l tree.Layout) {
	mon := m.FocusedMon()
	d := m.ActiveDesktop()
	if mon == nil || d == nil {
		return
	}
	d.SetLayout(l)
	mon.RelayoutActive()
	m.renderDesktop(d)
}

// cmdToggleFloating toggles the focused client between tiled and floating
// placement. The leaf stays in the tree either way, so its tiled rectangle
// stays reserved; render skips the client while it floats.
func (m *Manager) cmdToggleFloating() {
	d := m.ActiveDesktop()
	if d == nil {
		return
	}
	cur := d.Tree.FocusedLeaf()
	if cur == tree.InvalidIndex {
		return
	}
	n := d.Tree.Node(cur)
	if n.Client == nil {
		return
	}
	if n.Client.State == client.Floating {
		n.Client.State = client.Tiled
	} else if n.Client.State == client.Tiled {
		n.Client.State = client.Floating
		if n.FloatingRect.Empty() {
			n.FloatingRect = n.Rect
		}
	}
	mon := m.FocusedMon()
	if mon != nil {
		mon.RelayoutActive()
	}
	m.renderDesktop(d)
}

// cmdToggleFullscreen toggles fullscreen on the focused client.
func (m *Manager) cmdToggleFullscreen() {
	d := m.ActiveDesktop()
	if d == nil {
		return
	}
	cur := d.Tree.FocusedLeaf()
	if cur == tree.InvalidIndex {
		return
	}
	if c := d.Tree.Node(cur).Client; c != nil {
		m.toggleFullscreenClient(c, d)
	}
}

// cmdToggleFullscreenWindow toggles fullscreen on win specifically, used by
// the _NET_WM_STATE ClientMessage handler which names a window rather than
// relying on focus.
func (m *Manager) cmdToggleFullscreenWindow(win xproto.Window) {
	for _, mon := range m.Monitors {
		if d, idx := mon.FindWindow(win); idx != tree.InvalidIndex {
			if c := d.Tree.Node(idx).Client; c != nil {
				m.toggleFullscreenClient(c, d)
			}
			return
		}
	}
}

func (m *Manager) toggleFullscreenClient(c *client.Client, d *desktop.Desktop) {
	mon := m.FocusedMon()
	if c.State == client.Fullscreen {
		c.State = c.PreFullscreenState
	} else {
		c.PreFullscreenState = c.State
		c.State = client.Fullscreen
		if mon != nil {
			rect := mon.Rect
			if err := xproto.ConfigureWindowChecked(m.Conn.C(), c.Window,
				xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|xproto.ConfigWindowBorderWidth,
				[]uint32{uint32(rect.X), uint32(rect.Y), rect.Width, rect.Height, 0}).Check(); err != nil {
				logger.WithComponent("wm").Warn().Err(err).Msg("fullscreen configure")
			}
		}
	}
	if mon != nil {
		mon.RelayoutActive()
	}
	m.renderDesktop(d)
}

// cmdSwitchDesktop makes desktop id active on the focused monitor: the
// previously active desktop's windows are hidden and the new one's are
// shown, since every desktop on a monitor shares the same screen area
// (§4.2/§4.3).
func (m *Manager) cmdSwitchDesktop(id uint8) {
	mon := m.FocusedMon()
	if mon == nil {
		return
	}
	old := mon.Active()
	if !mon.SwitchTo(id) {
		return
	}
	newD := mon.Active()
	if newD == old {
		return
	}
	m.hideDesktop(old)
	m.showDesktop(newD)
	m.relayoutFocused()

	focusIdx := tree.InvalidIndex
	if m.Config.RestoreLastFocus {
		focusIdx = newD.Tree.FocusedLeaf()
	}
	if focusIdx == tree.InvalidIndex {
		focusIdx = newD.Tree.LeftmostLeaf()
	}
	if focusIdx != tree.InvalidIndex {
		newD.Tree.UpdateFocus(focusIdx)
		if c := newD.Tree.Node(focusIdx).Client; c != nil {
			m.activeWin = c.Window
			m.setFocus(c.Window)
		}
	} else {
		m.activeWin = 0
	}
	m.publishState()
}

// cmdSendToDesktop moves the focused client to desktop id on the same
// monitor.
func (m *Manager) cmdSendToDesktop(id uint8) {
	mon := m.FocusedMon()
	d := m.ActiveDesktop()
	if mon == nil || d == nil {
		return
	}
	dest := mon.DesktopByID(id)
	if dest == nil || dest == d {
		return
	}
	cur := d.Tree.FocusedLeaf()
	if cur == tree.InvalidIndex {
		return
	}
	c := d.Tree.Node(cur).Client
	if c == nil {
		return
	}
	d.Unlink(cur)
	target := dest.Tree.FocusedLeaf()
	if target == tree.InvalidIndex {
		target = dest.Tree.LeftmostLeaf()
	}
	newIdx := dest.Insert(target, c)
	dest.Tree.UpdateFocus(newIdx)
	m.suppressUnmap[c.Window] = true
	xproto.UnmapWindow(m.Conn.C(), c.Window)
	m.refocusAfterDeparture(d)
	mon.RelayoutActive()
	m.renderDesktop(d)
	m.publishState()
}

// cmdCycleStackTop moves the STACK layout's visible window.
func (m *Manager) cmdCycleStackTop(dir action.Direction) {
	d := m.ActiveDesktop()
	if d == nil {
		return
	}
	d.CycleStackTop(cycleDir(dir))
	m.renderDesktop(d)
}

// cmdCloseFocused sends a polite WM_DELETE_WINDOW to the focused client if
// it advertises support, otherwise kills its connection outright.
func (m *Manager) cmdCloseFocused() {
	d := m.ActiveDesktop()
	if d == nil {
		return
	}
	cur := d.Tree.FocusedLeaf()
	if cur == tree.InvalidIndex {
		return
	}
	if c := d.Tree.Node(cur).Client; c != nil {
		m.closeWindow(c.Window)
	}
}

// closeWindow implements the polite-vs-forced close policy shared by
// close_window and the _NET_CLOSE_WINDOW ClientMessage handler.
func (m *Manager) closeWindow(win xproto.Window) {
	if ewmh.SupportsDelete(m.Conn.XU, win) {
		if err := ewmh.SendDelete(m.Conn.XU, win); err != nil {
			logger.WithComponent("wm").Warn().Err(err).Msg("send delete")
		}
		return
	}
	xproto.KillClient(m.Conn.C(), uint32(win))
}

// cmdDragStart begins a keyboard-initiated drag of the focused tiled leaf:
// the pointer is warped to the leaf's center first so drag_start's keyboard
// path (§4.5, grounded on the original zwm's start_keyboard_drag_wrapper)
// is exercised without a prior ButtonPress.
func (m *Manager) cmdDragStart() {
	d := m.ActiveDesktop()
	if d == nil {
		return
	}
	cur := d.Tree.FocusedLeaf()
	if cur == tree.InvalidIndex {
		return
	}
	n := d.Tree.Node(cur)
	if n.Client == nil || n.Client.State != client.Tiled {
		return
	}
	cx := int16(n.Rect.X + int32(n.Rect.Width)/2)
	cy := int16(n.Rect.Y + int32(n.Rect.Height)/2)
	if err := xproto.WarpPointerChecked(m.Conn.C(), 0, m.Conn.Root(), 0, 0, 0, 0, cx, cy).Check(); err != nil {
		logger.WithComponent("drag").Warn().Err(err).Msg("warp pointer for keyboard drag")
		return
	}
	st, err := drag.Begin(m.Conn.XU, d, cur, n.Client.Window, drag.ModeMove, cx, cy)
	if err != nil {
		logger.WithComponent("drag").Warn().Err(err).Msg("begin keyboard drag")
		return
	}
	m.drag = st
}

// cmdDragCancel aborts the active drag, if any, discarding the preview and
// leaving the real tree untouched (§4.5 drag_cancel, §8 Scenario 5:
// "drag-cancel restores pre-drag layout").
func (m *Manager) cmdDragCancel() {
	if m.drag == nil || !m.drag.Active {
		return
	}
	drag.Cancel(m.Conn.XU, m.drag)
	m.drag = nil
	if mon := m.FocusedMon(); mon != nil {
		mon.RelayoutActive()
		m.renderDesktop(mon.Active())
		m.publishState()
	}
}

// cmdRun spawns an external command as a child of the manager, in the
// manager's process group, and reaps it from a background goroutine once it
// exits.
func (m *Manager) cmdRun(argv []string) {
	if len(argv) == 0 {
		return
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		logger.WithComponent("wm").Warn().Err(err).Str("cmd", argv[0]).Msg("spawn failed")
		return
	}
	go func() { _ = cmd.Wait() }()
}

// cmdQuit stops the event loop after the current dispatch returns.
func (m *Manager) cmdQuit() {
	m.quit = true
}

func cycleDir(dir action.Direction) tree.CycleDirection {
	switch dir {
	case action.DirLeft, action.DirUp:
		return tree.CyclePrev
	default:
		return tree.CycleNext
	}
}
