// Package audio keeps the list of capture devices, the user's preferred
// devices and the mute state of the selected one.
package audio

import (
	"errors"
	"maps"
)

var (
	ErrNotRunning     = errors.New("audio service not running")
	ErrDeviceNotFound = errors.New("device not found")
	ErrUnsupported    = errors.New("audio backend not supported on this platform")
)

type DeviceState struct {
	ID   string
	Name string
}

// SaveState is what survives between runs.
type SaveState struct {
	Prefs    map[string]DeviceState
	Selected string
	Muted    bool
}

// State is the runtime view handed to subscribers.
type State struct {
	SaveState

	Devices map[string]DeviceState
	// Default is the OS default communications endpoint, empty when unknown.
	Default string
}

func (s State) clone() State {
	c := s
	c.Prefs = maps.Clone(s.Prefs)
	c.Devices = maps.Clone(s.Devices)
	if c.Prefs == nil {
		c.Prefs = make(map[string]DeviceState)
	}
	if c.Devices == nil {
		c.Devices = make(map[string]DeviceState)
	}
	return c
}

// Present reports whether id is currently connected.
func (s State) Present(id string) bool {
	_, ok := s.Devices[id]
	return ok
}

// Preferred reports whether id is one of the user's preferred devices.
func (s State) Preferred(id string) bool {
	_, ok := s.Prefs[id]
	return ok
}

// Name resolves id against present devices first, then preferences.
func (s State) Name(id string) string {
	if d, ok := s.Devices[id]; ok {
		return d.Name
	}
	if d, ok := s.Prefs[id]; ok {
		return d.Name
	}
	return ""
}

type EventKind int

const (
	// DevicesChanged asks for the device list to be rebuilt.
	DevicesChanged EventKind = iota
	// MuteChanged carries a new mute state for DeviceID.
	MuteChanged
)

func (k EventKind) String() string {
	switch k {
	case DevicesChanged:
		return "devices-changed"
	case MuteChanged:
		return "mute-changed"
	}
	return "unknown"
}

// Event is posted by the backend from OS notification threads.
type Event struct {
	Kind     EventKind
	DeviceID string
	Muted    bool
	// Self is set when the change was made by this process.
	Self bool
}

// DeviceList is one enumeration of active endpoints.
type DeviceList struct {
	Devices []DeviceState
	Default string
}

// Backend is the OS audio layer. Open and Close bracket every other call.
//
// Notifications must be delivered by posting to the channel given to Open
// and Activate, never by calling into the service.
type Backend interface {
	Open(events chan<- Event) error
	Devices() (DeviceList, error)
	Activate(id string) (Endpoint, error)
	Close() error
}

// Endpoint controls the volume of one activated device.
type Endpoint interface {
	Muted() (bool, error)
	SetMuted(muted bool) error
	Close() error
}
