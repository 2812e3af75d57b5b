package ui

import (
	"cmp"
	"slices"
	"strings"

	"fyne.io/fyne/v2"

	"github.com/willywotz/micswitch/internal/audio"
	"github.com/willywotz/micswitch/internal/hotkey"
)

// Row is one line of the device list.
type Row struct {
	ID        string
	Name      string
	Present   bool
	Preferred bool
	Selected  bool
	Default   bool
}

func (r Row) Label() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if r.Name == "" {
		b.WriteString(r.ID)
	}
	if r.Default {
		b.WriteString(" (default)")
	}
	if !r.Present {
		b.WriteString(" (disconnected)")
	}
	return b.String()
}

// Rows lists present devices and disconnected preferred ones, preferred
// first, then by name.
func Rows(st audio.State) []Row {
	rows := make([]Row, 0, len(st.Devices)+len(st.Prefs))
	add := func(d audio.DeviceState, present bool) {
		rows = append(rows, Row{
			ID:        d.ID,
			Name:      d.Name,
			Present:   present,
			Preferred: st.Preferred(d.ID),
			Selected:  d.ID == st.Selected,
			Default:   d.ID == st.Default,
		})
	}
	for _, d := range st.Devices {
		add(d, true)
	}
	for id, d := range st.Prefs {
		if !st.Present(id) {
			add(d, false)
		}
	}

	slices.SortFunc(rows, func(a, b Row) int {
		if a.Preferred != b.Preferred {
			if a.Preferred {
				return -1
			}
			return 1
		}
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return rows
}

// Status is the one line summary shown above the list and in the tray.
func Status(st audio.State) string {
	if st.Selected == "" {
		return "No device selected"
	}
	name := st.Name(st.Selected)
	if name == "" {
		name = st.Selected
	}
	switch {
	case !st.Present(st.Selected):
		return name + ": disconnected"
	case st.Muted:
		return name + ": muted"
	default:
		return name + ": live"
	}
}

// capture records a hotkey from fyne key events. Escape cancels and
// BackSpace clears the hotkey.
type capture struct {
	shift, ctrl, alt, meta bool
}

type captureResult int

const (
	capturePending captureResult = iota
	captureDone
	captureCancel
)

func (c *capture) modifier(name fyne.KeyName) *bool {
	switch name {
	case "LeftShift", "RightShift":
		return &c.shift
	case "LeftControl", "RightControl":
		return &c.ctrl
	case "LeftAlt", "RightAlt":
		return &c.alt
	case "LeftSuper", "RightSuper":
		return &c.meta
	}
	return nil
}

// feed handles one key transition. On captureDone the returned Config is the
// new hotkey, possibly disabled.
func (c *capture) feed(name fyne.KeyName, down bool) (hotkey.Config, captureResult) {
	if m := c.modifier(name); m != nil {
		*m = down
		return hotkey.Config{}, capturePending
	}
	if !down {
		return hotkey.Config{}, capturePending
	}

	switch name {
	case "Escape":
		return hotkey.Config{}, captureCancel
	case "BackSpace":
		return hotkey.Config{}, captureDone
	}

	code, ok := hotkey.CodeForKey(string(name))
	if !ok {
		return hotkey.Config{}, capturePending
	}
	return hotkey.Config{
		Shift: c.shift,
		Ctrl:  c.ctrl,
		Alt:   c.alt,
		Meta:  c.meta,
		Key:   strings.ToUpper(string(name)),
		Code:  code,
	}, captureDone
}
