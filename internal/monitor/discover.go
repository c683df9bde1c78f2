package monitor

import (
	"github.com/BurntSushi/xgbutil"

	"github.com/patrislav/bspgo/internal/geometry"
)

// Discover enumerates physical outputs via Xinerama (which RandR and
// TwinView both feed transparently, per xgbutil's own doc comment) and
// returns one Monitor per head, each with n desktops. If the extension is
// unavailable or reports nothing, it falls back to a single synthetic
// monitor covering screenRect -- the "single synthetic monitor" of §4.2.
func Discover(xu *xgbutil.XUtil, screenRect geometry.Rect, n int, gap uint32, masterRatio float64) []*Monitor {
	heads, err := xu.Heads()
	if err != nil || len(heads) == 0 {
		m := New("virtual-1", screenRect, n, gap, masterRatio)
		m.IsPrimary = true
		m.IsFocused = true
		return []*Monitor{m}
	}

	monitors := make([]*Monitor, 0, len(heads))
	for i, h := range heads {
		rect := geometry.New(int32(h.X), int32(h.Y), h.Width, h.Height)
		m := New(monitorName(i), rect, n, gap, masterRatio)
		if i == 0 {
			m.IsPrimary = true
			m.IsFocused = true
		}
		monitors = append(monitors, m)
	}
	return monitors
}

func monitorName(i int) string {
	names := []string{"primary", "secondary", "tertiary"}
	if i < len(names) {
		return names[i]
	}
	return "output"
}
