// Package ewmh bridges the core's client/desktop model to the EWMH and
// ICCCM properties other applications and panels read: it publishes
// the manager's state as root-window properties, classifies newly mapped
// windows from their declared type and size hints, and answers
// protocol-level questions (does a window support WM_DELETE_WINDOW,
// is a client message a close/state/desktop-switch request).
//
// It is a thin wrapper over github.com/BurntSushi/xgbutil's ewmh and icccm
// packages rather than a hand-rolled atom cache, following the split the
// teacher's x11 package would have had if it were present in the pack.
package ewmh

import (
	"fmt"
	"os"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	xewmh "github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/patrislav/bspgo/internal/client"
)

const wmName = "bspgo"

// supported lists every _NET_* atom the manager implements, written
// to _NET_SUPPORTED on the root window so pagers and panels know what to
// expect.
var supported = []string{
	"_NET_SUPPORTED",
	"_NET_SUPPORTING_WM_CHECK",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"_NET_WM_STATE",
	"_NET_WM_STATE_FULLSCREEN",
	"_NET_WM_WINDOW_TYPE",
	"_NET_WM_WINDOW_TYPE_DOCK",
	"_NET_WM_WINDOW_TYPE_DIALOG",
	"_NET_WM_WINDOW_TYPE_NORMAL",
	"_NET_NUMBER_OF_DESKTOPS",
	"_NET_DESKTOP_NAMES",
	"_NET_DESKTOP_VIEWPORT",
	"_NET_CURRENT_DESKTOP",
	"_NET_ACTIVE_WINDOW",
	"_NET_CLIENT_LIST",
	"_NET_CLIENT_LIST_STACKING",
	"_NET_CLOSE_WINDOW",
}

// Bridge owns the supporting-WM-check window and exposes the publish/query
// operations used by the reducer and the manager's startup sequence.
type Bridge struct {
	xu       *xgbutil.XUtil
	checkWin xproto.Window
}

// Init claims the EWMH supporting-WM role: creates an unmapped
// supporting-check window, stamps _NET_SUPPORTING_WM_CHECK on both it and
// the root window, publishes _NET_SUPPORTED, and sets the desktop count and
// names.
func Init(xu *xgbutil.XUtil, numDesktops int, desktopNames []string) (*Bridge, error) {
	root := xu.RootWin()
	winID, err := xproto.NewWindowId(xu.Conn())
	if err != nil {
		return nil, fmt.Errorf("allocate supporting-wm-check window: %w", err)
	}
	screen := xu.Screen()
	err = xproto.CreateWindowChecked(xu.Conn(), screen.RootDepth, winID, root,
		-1, -1, 1, 1, 0, xproto.WindowClassInputOnly, screen.RootVisual, 0, nil).Check()
	if err != nil {
		return nil, fmt.Errorf("create supporting-wm-check window: %w", err)
	}

	b := &Bridge{xu: xu, checkWin: winID}

	if err := xewmh.SupportingWmCheckSet(xu, root, winID); err != nil {
		return nil, fmt.Errorf("set root supporting-wm-check: %w", err)
	}
	if err := xewmh.SupportingWmCheckSet(xu, winID, winID); err != nil {
		return nil, fmt.Errorf("set check-window supporting-wm-check: %w", err)
	}
	if err := xewmh.WmNameSet(xu, winID, wmName); err != nil {
		return nil, fmt.Errorf("set supporting-wm-check name: %w", err)
	}
	if err := xewmh.WmPidSet(xu, winID, uint(os.Getpid())); err != nil {
		return nil, fmt.Errorf("set supporting-wm-check pid: %w", err)
	}
	if err := xewmh.SupportedSet(xu, supported); err != nil {
		return nil, fmt.Errorf("set _NET_SUPPORTED: %w", err)
	}
	if err := xewmh.NumberOfDesktopsSet(xu, uint32(numDesktops)); err != nil {
		return nil, fmt.Errorf("set _NET_NUMBER_OF_DESKTOPS: %w", err)
	}
	if err := xewmh.DesktopNamesSet(xu, desktopNames); err != nil {
		return nil, fmt.Errorf("set _NET_DESKTOP_NAMES: %w", err)
	}
	if err := xewmh.DesktopViewportSet(xu, []xewmh.DesktopViewport{{X: 0, Y: 0}}); err != nil {
		return nil, fmt.Errorf("set _NET_DESKTOP_VIEWPORT: %w", err)
	}
	return b, nil
}

// Close destroys the supporting-check window.
func (b *Bridge) Close() {
	xproto.DestroyWindow(b.xu.Conn(), b.checkWin)
}

// SetCurrentDesktop publishes the focused monitor's active desktop index.
func (b *Bridge) SetCurrentDesktop(idx uint32) error {
	return xewmh.CurrentDesktopSet(b.xu, idx)
}

// SetActiveWindow publishes the focused client, or clears it when win is 0.
func (b *Bridge) SetActiveWindow(win xproto.Window) error {
	return xewmh.ActiveWindowSet(b.xu, win)
}

// SetDesktopNames republishes _NET_DESKTOP_NAMES, used after a config
// reload changes the virtual-desktop count (§9).
func (b *Bridge) SetDesktopNames(names []string) error {
	return xewmh.DesktopNamesSet(b.xu, names)
}

// SetNumberOfDesktops republishes _NET_NUMBER_OF_DESKTOPS, used after a
// config reload changes the virtual-desktop count (§9).
func (b *Bridge) SetNumberOfDesktops(n uint32) error {
	return xewmh.NumberOfDesktopsSet(b.xu, n)
}

// SetClientList publishes wins, in the order given, as both _NET_CLIENT_LIST
// and _NET_CLIENT_LIST_STACKING.
func (b *Bridge) SetClientList(wins []xproto.Window) error {
	if err := xewmh.ClientListSet(b.xu, wins); err != nil {
		return err
	}
	return xewmh.ClientListStackingSet(b.xu, wins)
}

// Classify inspects a mapped window's EWMH type and ICCCM size hints and
// decides whether it should be tiled or floated.
// Dialogs, docks, and windows with fixed min==max size hints are floated;
// everything else is tiled.
func Classify(xu *xgbutil.XUtil, win xproto.Window) (client.WindowType, client.State) {
	types, _ := xewmh.WmWindowTypeGet(xu, win)
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_DOCK":
			return client.TypeDock, client.Floating
		case "_NET_WM_WINDOW_TYPE_DIALOG":
			return client.TypeDialog, client.Floating
		}
	}

	if hints, err := icccm.WmNormalHintsGet(xu, win); err == nil {
		if hints.Flags&icccm.SizeHintPMinSize != 0 && hints.Flags&icccm.SizeHintPMaxSize != 0 &&
			hints.MinWidth == hints.MaxWidth && hints.MinHeight == hints.MaxHeight && hints.MinWidth > 0 {
			return client.TypeNormal, client.Floating
		}
	}

	return client.TypeNormal, client.Tiled
}

// SupportsDelete reports whether win's WM_PROTOCOLS advertise
// WM_DELETE_WINDOW, used to decide between a polite ClientMessage and a
// forced XKillClient on _NET_CLOSE_WINDOW.
func SupportsDelete(xu *xgbutil.XUtil, win xproto.Window) bool {
	protocols, err := icccm.WmProtocolsGet(xu, win)
	if err != nil {
		return false
	}
	for _, p := range protocols {
		if p == "WM_DELETE_WINDOW" {
			return true
		}
	}
	return false
}

// SendDelete sends a WM_DELETE_WINDOW client message to win, the polite
// equivalent of _NET_CLOSE_WINDOW / the close-window command.
func SendDelete(xu *xgbutil.XUtil, win xproto.Window) error {
	protocols, err := xprop.Atm(xu, "WM_PROTOCOLS")
	if err != nil {
		return err
	}
	del, err := xprop.Atm(xu, "WM_DELETE_WINDOW")
	if err != nil {
		return err
	}
	data := xproto.ClientMessageDataUnionData32New([]uint32{uint32(del), uint32(xproto.TimeCurrentTime), 0, 0, 0})
	ev := xproto.ClientMessageEvent{Format: 32, Window: win, Type: protocols, Data: data}
	return xproto.SendEventChecked(xu.Conn(), false, win, xproto.EventMaskNoEvent, string(ev.Bytes())).Check()
}

// ClientMessageCommand is the decoded intent of an incoming
// _NET_CURRENT_DESKTOP / _NET_WM_STATE / _NET_CLOSE_WINDOW client message.
type ClientMessageCommand struct {
	SwitchDesktop    bool
	DesktopIndex     uint32
	ToggleFullscreen bool
	CloseWindow      bool
}

// AtomSet caches the atom values compared against each incoming
// ClientMessageEvent's Type field.
type AtomSet struct {
	CurrentDesktop xproto.Atom
	WmState        xproto.Atom
	CloseWindow    xproto.Atom
	Fullscreen     xproto.Atom
}

// Decode classifies an incoming ClientMessageEvent against the known
// EWMH atoms, returning ok=false for messages the manager does not handle.
func Decode(atoms AtomSet, ev xproto.ClientMessageEvent) (ClientMessageCommand, bool) {
	data := ev.Data.Data32
	switch ev.Type {
	case atoms.CurrentDesktop:
		if len(data) < 1 {
			return ClientMessageCommand{}, false
		}
		return ClientMessageCommand{SwitchDesktop: true, DesktopIndex: data[0]}, true
	case atoms.WmState:
		if len(data) < 2 {
			return ClientMessageCommand{}, false
		}
		if data[1] == uint32(atoms.Fullscreen) || (len(data) > 2 && data[2] == uint32(atoms.Fullscreen)) {
			return ClientMessageCommand{ToggleFullscreen: true}, true
		}
		return ClientMessageCommand{}, false
	case atoms.CloseWindow:
		return ClientMessageCommand{CloseWindow: true}, true
	}
	return ClientMessageCommand{}, false
}
