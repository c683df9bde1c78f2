// Package xconn owns the X11 connection and the handful of connection-wide
// facts (root window, screen rectangle, atom cache) every other package
// needs. It is the transport layer spec.md §1 calls out as "delegated to
// an X11 client library" -- here, github.com/BurntSushi/xgb plus the
// higher-level github.com/BurntSushi/xgbutil for EWMH/ICCCM/key & mouse
// binding.
package xconn

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/patrislav/bspgo/internal/geometry"
)

// Conn wraps the active X11 connection and the screen it manages.
type Conn struct {
	XU     *xgbutil.XUtil
	Screen *xproto.ScreenInfo

	atoms map[string]xproto.Atom
}

// Connect opens a connection to the X server named by the DISPLAY
// environment variable (empty string -> default display), mirroring the
// teacher's two-step CreateConnection/InitConnection split so that atom
// interning and screen discovery happen only once substructure redirect
// has been claimed successfully.
func Connect() (*Conn, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	return &Conn{
		XU:     xu,
		Screen: xu.Screen(),
		atoms:  make(map[string]xproto.Atom),
	}, nil
}

// Close releases the connection.
func (c *Conn) Close() {
	if c.XU != nil {
		c.XU.Conn().Close()
	}
}

// C returns the raw xgb connection for direct xproto requests.
func (c *Conn) C() *xgb.Conn { return c.XU.Conn() }

// Root returns the root window of the managed screen.
func (c *Conn) Root() xproto.Window { return c.XU.RootWin() }

// ScreenRect returns the root window's rectangle in the virtual screen
// coordinate space (used as the single synthetic monitor when neither
// randr nor xinerama is available, §4.2).
func (c *Conn) ScreenRect() geometry.Rect {
	return geometry.New(0, 0, uint32(c.Screen.WidthInPixels), uint32(c.Screen.HeightInPixels))
}

// SelectRandr registers for RandR's ScreenChangeNotify/OutputChange events
// on the root window, so the reducer learns about monitor hotplug (§4.2,
// §4.3's "Randr ScreenChange" event row) instead of only discovering
// outputs once at startup. It is not fatal if the server has no RandR
// extension -- Discover's Xinerama/single-monitor fallback still applies.
func (c *Conn) SelectRandr() error {
	if err := randr.Init(c.XU.Conn()); err != nil {
		return fmt.Errorf("init randr extension: %w", err)
	}
	mask := uint16(randr.NotifyMaskScreenChange | randr.NotifyMaskOutputChange)
	return randr.SelectInputChecked(c.XU.Conn(), c.Root(), mask).Check()
}

// Atom interns and caches an atom by name.
func (c *Conn) Atom(name string) xproto.Atom {
	if a, ok := c.atoms[name]; ok {
		return a
	}
	a, err := xprop.Atm(c.XU, name)
	if err != nil {
		return xproto.AtomNone
	}
	c.atoms[name] = a
	return a
}
