// Package config holds the manager's configuration record and the
// rule/key-binding tables parsed from it. Loading uses
// github.com/spf13/viper, following bryanchriswhite/FocusStreamer's
// cmd/.../commands/root.go convention of reading a single structured YAML
// file through viper rather than hand-rolling a `key = value` grammar. No
// cobra flags are bound into viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/patrislav/bspgo/internal/action"
	"github.com/patrislav/bspgo/internal/client"
	"github.com/patrislav/bspgo/internal/tree"
)

// Rule is a per-class rule binding a window class to a forced desktop
// and/or state.
type Rule struct {
	Class        string
	ForceState   bool
	State        client.State
	ForceDesktop bool
	Desktop      uint8
}

// Binding maps a key string (e.g. "Mod4-Shift-Return") to a registered
// command name and its argument. The mod/keysym are resolved lazily by the
// keys package, since
// that resolution needs a live X connection and keyboard mapping that this
// package does not hold.
type Binding struct {
	KeyString string
	Command   string
	Arg       action.Arg
}

// Config is the manager's runtime configuration record.
type Config struct {
	BorderWidth        uint32
	WindowGap          uint32
	ActiveBorderColor  uint32
	NormalBorderColor  uint32
	VirtualDesktops    int
	FocusFollowPointer bool
	FocusFollowSpawn   bool
	RestoreLastFocus   bool
	MasterRatio        float64

	Rules    []Rule
	Bindings []Binding
	Exec     []string
}

// Default returns the built-in configuration used when no config file is
// present, matching the type.h defaults of the system this spec was
// distilled from (border width 2, gap 10, catppuccin-ish border colors,
// focus-follows-pointer on).
func Default() Config {
	return Config{
		BorderWidth:        2,
		WindowGap:          10,
		ActiveBorderColor:  0x83a598,
		NormalBorderColor:  0x30302f,
		VirtualDesktops:    5,
		FocusFollowPointer: true,
		FocusFollowSpawn:   false,
		RestoreLastFocus:   true,
		MasterRatio:        0.7,
	}
}

// Path returns the config file path for name, seeded under
// ~/.config/<name>/<name>.yaml.
func Path(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", name, name+".yaml"), nil
}

// rawRule and rawBinding mirror the YAML sub-trees of Rule and Binding.
// Decoding through plain structs first keeps the string->enum conversions
// (direction, resize, state) in one place instead of leaning on
// mapstructure hooks for every enum in the record.
type rawRule struct {
	Class   string `mapstructure:"class"`
	State   string `mapstructure:"state"`
	Desktop uint8  `mapstructure:"desktop"`
}

type rawBinding struct {
	Bind    string `mapstructure:"bind"`
	Command string `mapstructure:"command"`
	Arg     struct {
		Direction    string   `mapstructure:"direction"`
		Layout       string   `mapstructure:"layout"`
		Resize       string   `mapstructure:"resize"`
		DesktopIndex uint8    `mapstructure:"desktop_index"`
		Strings      []string `mapstructure:"strings"`
		State        string   `mapstructure:"state"`
	} `mapstructure:"arg"`
}

func parseDirection(s string) action.Direction {
	switch s {
	case "left":
		return action.DirLeft
	case "right":
		return action.DirRight
	case "up":
		return action.DirUp
	case "down":
		return action.DirDown
	default:
		return action.DirNone
	}
}

func parseResize(s string) action.ResizeMode {
	switch s {
	case "grow":
		return action.ResizeGrow
	case "shrink":
		return action.ResizeShrink
	default:
		return action.ResizeNone
	}
}

func parseLayout(s string) tree.Layout {
	switch s {
	case "master":
		return tree.LayoutMaster
	case "stack":
		return tree.LayoutStack
	case "grid":
		return tree.LayoutGrid
	default:
		return tree.LayoutDefault
	}
}

func parseState(s string) client.State {
	switch s {
	case "floating", "floated":
		return client.Floating
	case "fullscreen":
		return client.Fullscreen
	default:
		return client.Tiled
	}
}

// Load reads the config file at path into a viper instance seeded with
// Default()'s values, so every key is optional and missing keys fall back
// to the built-in defaults. Rules and bindings are decoded from their
// structured sub-trees; the key string in each binding is resolved to a
// modifier mask and keycode by the caller's keys package, since that
// resolution needs a live X connection and keyboard mapping that this
// package does not hold.
func Load(path string) (*viper.Viper, Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	def := Default()
	v.SetDefault("border_width", def.BorderWidth)
	v.SetDefault("window_gap", def.WindowGap)
	v.SetDefault("active_border_color", def.ActiveBorderColor)
	v.SetDefault("normal_border_color", def.NormalBorderColor)
	v.SetDefault("virtual_desktops", def.VirtualDesktops)
	v.SetDefault("focus_follow_pointer", def.FocusFollowPointer)
	v.SetDefault("focus_follow_spawn", def.FocusFollowSpawn)
	v.SetDefault("restore_last_focus", def.RestoreLastFocus)
	v.SetDefault("master_ratio", def.MasterRatio)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return v, def, nil
		}
		return nil, Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := decode(v, def)
	if err != nil {
		return nil, Config{}, err
	}
	return v, cfg, nil
}

// decode reads the currently-loaded values out of v into a Config seeded
// with def, resolving rule and binding sub-trees. Shared by Load (first
// read) and Watch's OnConfigChange callback (every reload thereafter), so
// a reload sees exactly the same field set a cold start would.
func decode(v *viper.Viper, def Config) (Config, error) {
	cfg := def
	cfg.BorderWidth = v.GetUint32("border_width")
	cfg.WindowGap = v.GetUint32("window_gap")
	cfg.ActiveBorderColor = uint32(v.GetUint64("active_border_color"))
	cfg.NormalBorderColor = uint32(v.GetUint64("normal_border_color"))
	cfg.VirtualDesktops = v.GetInt("virtual_desktops")
	if cfg.VirtualDesktops < 1 {
		cfg.VirtualDesktops = 1
	}
	cfg.FocusFollowPointer = v.GetBool("focus_follow_pointer")
	cfg.FocusFollowSpawn = v.GetBool("focus_follow_spawn")
	cfg.RestoreLastFocus = v.GetBool("restore_last_focus")
	if r := v.GetFloat64("master_ratio"); r > 0 && r < 1 {
		cfg.MasterRatio = r
	}
	cfg.Exec = v.GetStringSlice("exec")

	var rawRules []rawRule
	if err := v.UnmarshalKey("rules", &rawRules); err != nil {
		return Config{}, fmt.Errorf("decode rules: %w", err)
	}
	for _, rr := range rawRules {
		r := Rule{Class: rr.Class}
		if rr.State != "" {
			r.ForceState = true
			r.State = parseState(rr.State)
		}
		if rr.Desktop != 0 {
			r.ForceDesktop = true
			r.Desktop = rr.Desktop
		}
		cfg.Rules = append(cfg.Rules, r)
	}

	var rawBindings []rawBinding
	if err := v.UnmarshalKey("bindings", &rawBindings); err != nil {
		return Config{}, fmt.Errorf("decode bindings: %w", err)
	}
	for _, rb := range rawBindings {
		cfg.Bindings = append(cfg.Bindings, Binding{
			KeyString: rb.Bind,
			Command:   rb.Command,
			Arg: action.Arg{
				Direction:    parseDirection(rb.Arg.Direction),
				Layout:       parseLayout(rb.Arg.Layout),
				Resize:       parseResize(rb.Arg.Resize),
				DesktopIndex: rb.Arg.DesktopIndex,
				Strings:      rb.Arg.Strings,
				State:        parseState(rb.Arg.State),
			},
		})
	}

	return cfg, nil
}

// Watch arms viper's fsnotify-backed file watcher and invokes onChange with
// the freshly re-decoded Config every time the file changes on disk,
// implementing §6's configuration-reload path (the reload mechanism itself
// is out of scope per spec.md §1's Non-goals for the parser, but what a
// reload delivers to the core is not). onChange is called from viper's own
// watcher goroutine, not the caller's -- callers that mutate shared state
// must hop back onto their own dispatch loop (see wm.Manager.RequestReload).
func Watch(v *viper.Viper, onChange func(Config)) {
	def := Default()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := decode(v, def)
		if err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// WriteTemplate installs the package's default-configuration template at
// path if no file exists there yet, seeding a usable configuration on first
// run. Template installation itself is an ambient
// concern the teacher corpus does not model for this domain; the
// generated file is intentionally minimal and commented.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(defaultTemplate), 0o644)
}

const defaultTemplate = `# bspgo default configuration
border_width: 2
window_gap: 10
active_border_color: 0x83a598
normal_border_color: 0x30302f
virtual_desktops: 5
focus_follow_pointer: true
focus_follow_spawn: false
restore_last_focus: true
master_ratio: 0.7

rules: []
# - class: mpv
#   state: floated
#   desktop: 3

bindings: []
# - bind: "Mod4-Return"
#   command: run
#   arg:
#     strings: [alacritty]
# - bind: "Mod4-h"
#   command: cycle_focus
#   arg:
#     direction: left
# - bind: "Mod4-Shift-space"
#   command: drag_start
# - bind: "Escape"
#   command: drag_cancel


exec: []
`
