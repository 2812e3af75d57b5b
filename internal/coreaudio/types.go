package coreaudio

import (
	"fmt"
	"strings"

	"github.com/go-ole/go-ole"
)

// DataFlow is the EDataFlow enumeration.
type DataFlow uint32

const (
	Render DataFlow = iota
	Capture
	AllFlows
)

func (f DataFlow) String() string {
	switch f {
	case Render:
		return "render"
	case Capture:
		return "capture"
	case AllFlows:
		return "all"
	default:
		return fmt.Sprintf("DataFlow(%d)", uint32(f))
	}
}

// ParseDataFlow accepts the names produced by DataFlow.String.
func ParseDataFlow(s string) (DataFlow, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "render", "playback", "output":
		return Render, nil
	case "capture", "recording", "input", "":
		return Capture, nil
	case "all":
		return AllFlows, nil
	}
	return 0, fmt.Errorf("unknown data flow %q", s)
}

// Role is the ERole enumeration.
type Role uint32

const (
	Console Role = iota
	Multimedia
	Communications
)

func (r Role) String() string {
	switch r {
	case Console:
		return "console"
	case Multimedia:
		return "multimedia"
	case Communications:
		return "communications"
	default:
		return fmt.Sprintf("Role(%d)", uint32(r))
	}
}

// DeviceState is the DEVICE_STATE_XXX bit set.
type DeviceState uint32

const (
	StateActive     DeviceState = 0x00000001
	StateDisabled   DeviceState = 0x00000002
	StateNotPresent DeviceState = 0x00000004
	StateUnplugged  DeviceState = 0x00000008
	StateAll        DeviceState = 0x0000000F
)

func (s DeviceState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDisabled:
		return "disabled"
	case StateNotPresent:
		return "not present"
	case StateUnplugged:
		return "unplugged"
	case StateAll:
		return "all"
	default:
		return fmt.Sprintf("DeviceState(0x%x)", uint32(s))
	}
}

// PropertyKey has the memory layout of PROPERTYKEY.
type PropertyKey struct {
	FmtID ole.GUID
	PID   uint32
}

func (k PropertyKey) String() string {
	return fmt.Sprintf("%s %d", k.FmtID.String(), k.PID)
}

var (
	PKEY_Device_FriendlyName          = PropertyKey{*ole.NewGUID("{A45C254E-DF1C-4EFD-8020-67D146A850E0}"), 14}
	PKEY_Device_DeviceDesc            = PropertyKey{*ole.NewGUID("{A45C254E-DF1C-4EFD-8020-67D146A850E0}"), 2}
	PKEY_DeviceInterface_FriendlyName = PropertyKey{*ole.NewGUID("{026E516E-B814-414B-83CD-856D6FEF4822}"), 2}
)

var (
	IID_IMMNotificationClient        = ole.NewGUID("{7991EEC9-7E89-4D85-8390-6C703CEC60C0}")
	IID_IAudioEndpointVolumeCallback = ole.NewGUID("{657804FA-D6AD-4496-8A60-352752AF4F89}")
)

// VolumeNotification is the decoded AUDIO_VOLUME_NOTIFICATION_DATA.
type VolumeNotification struct {
	EventContext   ole.GUID
	Muted          bool
	MasterVolume   float32
	ChannelVolumes []float32
}
