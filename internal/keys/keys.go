// Package keys resolves the textual key bindings of a Config into grabbed
// (modifiers, keycode) pairs on the root window, using
// github.com/BurntSushi/xgbutil/keybind for string parsing and keysym/keycode
// lookups. The manager's own event loop dispatches KeyPress events by
// matching against the Bound table directly; it does not use keybind's
// callback/event-loop machinery, since the reducer already owns a single
// switch over xproto.WaitForEvent (grounded on the teacher's wm.Run loop).
package keys

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"

	"github.com/patrislav/bspgo/internal/config"
)

// Bound is a binding whose modifier mask and keycode have been resolved
// against the current keyboard mapping.
type Bound struct {
	Mods    uint16
	Keycode xproto.Keycode
	Binding config.Binding
}

// Resolve parses every binding's key string against the live keyboard
// mapping, returning one Bound entry per binding. A binding whose string
// fails to parse is dropped with its error collected rather than aborting
// the whole table, so one bad line in the config doesn't disable every other
// binding.
func Resolve(xu *xgbutil.XUtil, bindings []config.Binding) ([]Bound, []error) {
	keybind.Initialize(xu)

	bound := make([]Bound, 0, len(bindings))
	var errs []error
	for _, b := range bindings {
		mods, kc, err := keybind.ParseString(xu, b.KeyString)
		if err != nil {
			errs = append(errs, fmt.Errorf("bind %q: %w", b.KeyString, err))
			continue
		}
		bound = append(bound, Bound{Mods: mods, Keycode: kc, Binding: b})
	}
	return bound, errs
}

// GrabAll issues a passive grab on win for every entry in bound, ignoring
// NumLock/CapsLock/ScrollLock state per keybind.Grab's IgnoreMods expansion.
// It stops and returns the first grab error (typically a duplicate binding
// already held by another client).
func GrabAll(xu *xgbutil.XUtil, win xproto.Window, bound []Bound) error {
	for _, b := range bound {
		if err := keybind.GrabChecked(xu, win, b.Mods, b.Keycode); err != nil {
			return fmt.Errorf("grab %q: %w", b.Binding.KeyString, err)
		}
	}
	return nil
}

// UngrabAll releases every grab in bound. Used before Regrab and on shutdown.
func UngrabAll(xu *xgbutil.XUtil, win xproto.Window, bound []Bound) {
	for _, b := range bound {
		keybind.Ungrab(xu, win, b.Mods, b.Keycode)
	}
}

// Regrab re-resolves and re-grabs every binding against the current keyboard
// mapping, replacing stale keycodes after a MappingNotify (§4.3's grab
// discipline: a layout change can remap a keysym to a different keycode,
// so a key bound by name must be looked up again rather than reusing the
// keycode captured at startup).
func Regrab(xu *xgbutil.XUtil, win xproto.Window, bindings []config.Binding, old []Bound) ([]Bound, []error) {
	UngrabAll(xu, win, old)
	bound, errs := Resolve(xu, bindings)
	if err := GrabAll(xu, win, bound); err != nil {
		errs = append(errs, fmt.Errorf("regrab after mapping change: %w", err))
	}
	return bound, errs
}

// Match reports whether a KeyPress event's (state, detail) pair identifies
// the binding b, after stripping the lock/numlock modifiers every grab was
// duplicated across.
func Match(b Bound, state uint16, detail xproto.Keycode) bool {
	mods, kc := keybind.DeduceKeyInfo(state, detail)
	return mods == b.Mods && kc == b.Keycode
}
