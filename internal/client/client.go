// Package client defines the managed-window record. A Client's identity is
// the X window ID it wraps; it is created when the manager decides to
// manage a newly mapped window and destroyed when that window is
// unmanaged or destroyed.
package client

import (
	"github.com/BurntSushi/xgb/xproto"
)

// WindowType is the EWMH window type a client was created with.
type WindowType uint8

const (
	TypeNormal WindowType = iota
	TypeDialog
	TypeToolbar
	TypeMenu
	TypeSplash
	TypeNotification
	TypeDock
	TypeUtility
)

// State is a client's placement mode within its desktop's tree.
type State uint8

const (
	Tiled State = iota
	Floating
	Fullscreen
)

func (s State) String() string {
	switch s {
	case Tiled:
		return "tiled"
	case Floating:
		return "floating"
	case Fullscreen:
		return "fullscreen"
	default:
		return "unknown"
	}
}

// Client is a managed top-level X11 window.
type Client struct {
	Window      xproto.Window
	Class       string
	Type        WindowType
	BorderWidth uint32
	State       State

	// PreFullscreenState is the state (Tiled or Floating) to restore when a
	// client leaves fullscreen, per the EWMH _NET_WM_STATE toggle in §4.4.
	PreFullscreenState State

	// SupportsDelete records whether WM_DELETE_WINDOW was advertised in
	// WM_PROTOCOLS, consulted by the _NET_CLOSE_WINDOW handler.
	SupportsDelete bool
}

// New creates a client record for a freshly managed window.
func New(win xproto.Window, typ WindowType, borderWidth uint32) *Client {
	return &Client{
		Window:             win,
		Type:               typ,
		BorderWidth:        borderWidth,
		State:              Tiled,
		PreFullscreenState: Tiled,
	}
}
