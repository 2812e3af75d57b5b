package hotkey

import (
	"fmt"
	"strings"
)

// Virtual key codes from winuser.h.
const (
	VK_BACK    uint16 = 0x08
	VK_TAB     uint16 = 0x09
	VK_RETURN  uint16 = 0x0D
	VK_SHIFT   uint16 = 0x10
	VK_CONTROL uint16 = 0x11
	VK_MENU    uint16 = 0x12 // ALT
	VK_PAUSE   uint16 = 0x13
	VK_CAPITAL uint16 = 0x14
	VK_ESCAPE  uint16 = 0x1B
	VK_SPACE   uint16 = 0x20
	VK_PRIOR   uint16 = 0x21
	VK_NEXT    uint16 = 0x22
	VK_END     uint16 = 0x23
	VK_HOME    uint16 = 0x24
	VK_LEFT    uint16 = 0x25
	VK_UP      uint16 = 0x26
	VK_RIGHT   uint16 = 0x27
	VK_DOWN    uint16 = 0x28
	VK_INSERT  uint16 = 0x2D
	VK_DELETE  uint16 = 0x2E

	VK_0 uint16 = 0x30
	VK_A uint16 = 0x41

	VK_LWIN uint16 = 0x5B
	VK_RWIN uint16 = 0x5C

	VK_NUMPAD0 uint16 = 0x60
	VK_F1      uint16 = 0x70

	VK_LSHIFT   uint16 = 0xA0
	VK_RSHIFT   uint16 = 0xA1
	VK_LCONTROL uint16 = 0xA2
	VK_RCONTROL uint16 = 0xA3
	VK_LMENU    uint16 = 0xA4
	VK_RMENU    uint16 = 0xA5

	// <> key on ISO keyboards
	VK_OEM_102 uint16 = 0xE2
)

var namedKeys = map[string]uint16{
	"backspace": VK_BACK,
	"tab":       VK_TAB,
	"return":    VK_RETURN,
	"enter":     VK_RETURN,
	"pause":     VK_PAUSE,
	"capslock":  VK_CAPITAL,
	"escape":    VK_ESCAPE,
	"space":     VK_SPACE,
	"pageup":    VK_PRIOR,
	"prior":     VK_PRIOR,
	"pagedown":  VK_NEXT,
	"next":      VK_NEXT,
	"end":       VK_END,
	"home":      VK_HOME,
	"left":      VK_LEFT,
	"up":        VK_UP,
	"right":     VK_RIGHT,
	"down":      VK_DOWN,
	"insert":    VK_INSERT,
	"delete":    VK_DELETE,
	"<>":        VK_OEM_102,
	"oem102":    VK_OEM_102,
}

// CodeForKey maps a key name ("M", "7", "F13", "Space", "KP5") to its
// virtual key code.
func CodeForKey(name string) (uint16, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return 0, false
	}
	if code, ok := namedKeys[n]; ok {
		return code, true
	}
	if len(n) == 1 {
		c := n[0]
		switch {
		case c >= 'a' && c <= 'z':
			return VK_A + uint16(c-'a'), true
		case c >= '0' && c <= '9':
			return VK_0 + uint16(c-'0'), true
		}
		return 0, false
	}
	var i int
	if _, err := fmt.Sscanf(n, "f%d", &i); err == nil && i >= 1 && i <= 24 && n == fmt.Sprintf("f%d", i) {
		return VK_F1 + uint16(i-1), true
	}
	if _, err := fmt.Sscanf(n, "kp%d", &i); err == nil && i >= 0 && i <= 9 && len(n) == 3 {
		return VK_NUMPAD0 + uint16(i), true
	}
	return 0, false
}

type modifier uint8

const (
	modShift modifier = 1 << iota
	modCtrl
	modAlt
	modMeta
)

// modifierOf reports which modifier a key code belongs to, if any. The low
// level hook reports the sided codes; the generic ones come from SendInput.
func modifierOf(code uint16) (modifier, bool) {
	switch code {
	case VK_SHIFT, VK_LSHIFT, VK_RSHIFT:
		return modShift, true
	case VK_CONTROL, VK_LCONTROL, VK_RCONTROL:
		return modCtrl, true
	case VK_MENU, VK_LMENU, VK_RMENU:
		return modAlt, true
	case VK_LWIN, VK_RWIN:
		return modMeta, true
	}
	return 0, false
}
