// Package hotkey detects a global key combination from raw key events.
package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidHotkey = errors.New("invalid hotkey")

// Config describes a key combination. An empty Key disables the hotkey.
type Config struct {
	Shift bool
	Ctrl  bool
	Alt   bool
	Meta  bool
	Key   string
	Code  uint16
}

func (c Config) Enabled() bool {
	return c.Key != "" && c.Code != 0
}

func (c Config) mods() modifier {
	var m modifier
	if c.Shift {
		m |= modShift
	}
	if c.Ctrl {
		m |= modCtrl
	}
	if c.Alt {
		m |= modAlt
	}
	if c.Meta {
		m |= modMeta
	}
	return m
}

func (c Config) String() string {
	if !c.Enabled() {
		return ""
	}
	var parts []string
	if c.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if c.Alt {
		parts = append(parts, "Alt")
	}
	if c.Shift {
		parts = append(parts, "Shift")
	}
	if c.Meta {
		parts = append(parts, "Meta")
	}
	return strings.Join(append(parts, c.Key), "+")
}

// Parse reads combinations such as "Ctrl+Alt+M". An empty string yields a
// disabled Config.
func Parse(s string) (Config, error) {
	var c Config
	s = strings.TrimSpace(s)
	if s == "" {
		return c, nil
	}
	parts := strings.Split(s, "+")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i < len(parts)-1 {
			switch strings.ToLower(p) {
			case "shift":
				c.Shift = true
			case "ctrl", "control":
				c.Ctrl = true
			case "alt":
				c.Alt = true
			case "meta", "win", "super", "cmd":
				c.Meta = true
			default:
				return Config{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidHotkey, p)
			}
			continue
		}
		code, ok := CodeForKey(p)
		if !ok {
			return Config{}, fmt.Errorf("%w: unknown key %q", ErrInvalidHotkey, p)
		}
		if _, isMod := modifierOf(code); isMod {
			return Config{}, fmt.Errorf("%w: %q is a modifier", ErrInvalidHotkey, p)
		}
		c.Key = strings.ToUpper(p)
		c.Code = code
	}
	return c, nil
}

// KeyEvent is one raw key transition.
type KeyEvent struct {
	Code uint16
	Down bool
}

// Matcher fires once per press of the configured combination. Holding the key
// (auto repeat) does not fire again until it is released.
type Matcher struct {
	cfg     Config
	pressed map[uint16]bool
	held    bool
}

func NewMatcher(cfg Config) *Matcher {
	return &Matcher{cfg: cfg, pressed: make(map[uint16]bool)}
}

func (m *Matcher) activeMods() modifier {
	var mods modifier
	for code, down := range m.pressed {
		if !down {
			continue
		}
		if mod, ok := modifierOf(code); ok {
			mods |= mod
		}
	}
	return mods
}

// Feed records ev and reports whether it completes the combination.
func (m *Matcher) Feed(ev KeyEvent) bool {
	if _, ok := modifierOf(ev.Code); ok {
		m.pressed[ev.Code] = ev.Down
		return false
	}
	if !m.cfg.Enabled() || ev.Code != m.cfg.Code {
		return false
	}
	if !ev.Down {
		m.held = false
		return false
	}
	if m.held {
		return false
	}
	if m.activeMods() != m.cfg.mods() {
		return false
	}
	m.held = true
	return true
}
