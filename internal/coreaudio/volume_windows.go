//go:build windows

package coreaudio

import (
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"
)

// EndpointVolume wraps IAudioEndpointVolume.
type EndpointVolume struct {
	aev *wca.IAudioEndpointVolume
}

// Mute reads the mute state. GetMute writes a 4-byte BOOL, so it is called
// through the vtable rather than into a Go bool.
func (v *EndpointVolume) Mute() (bool, error) {
	var muted int32
	hr, _, _ := syscall.SyscallN(
		v.aev.VTable().GetMute,
		uintptr(unsafe.Pointer(v.aev)),
		uintptr(unsafe.Pointer(&muted)),
	)
	if err := HRESULT(hr).Err(); err != nil {
		return false, err
	}
	return muted != 0, nil
}

// SetMute changes the mute state. ctx ends up in the event context of the
// resulting notification, nil is allowed.
func (v *EndpointVolume) SetMute(muted bool, ctx *ole.GUID) error {
	return v.aev.SetMute(muted, ctx)
}

// MasterLevel returns the master volume in the range [0, 1].
func (v *EndpointVolume) MasterLevel() (float32, error) {
	var level float32
	if err := v.aev.GetMasterVolumeLevelScalar(&level); err != nil {
		return 0, err
	}
	return level, nil
}

// SetMasterLevel sets the master volume. Out of range levels are left for the
// OS to reject.
func (v *EndpointVolume) SetMasterLevel(level float32, ctx *ole.GUID) error {
	return v.aev.SetMasterVolumeLevelScalar(level, ctx)
}

// RegisterControlChangeNotify installs an adapter forwarding to h. As with
// RegisterNotificationClient the adapter comes back even on failure.
func (v *EndpointVolume) RegisterControlChangeNotify(h VolumeHandler) (*VolumeCallback, error) {
	c := NewVolumeCallback(h)
	hr, _, _ := syscall.SyscallN(
		v.aev.VTable().RegisterControlChangeNotify,
		uintptr(unsafe.Pointer(v.aev)),
		c.this,
	)
	return c, HRESULT(hr).Err()
}

// UnregisterControlChangeNotify removes c and drops the creator's reference.
func (v *EndpointVolume) UnregisterControlChangeNotify(c *VolumeCallback) error {
	if c == nil {
		return E_POINTER.Err()
	}
	hr, _, _ := syscall.SyscallN(
		v.aev.VTable().UnregisterControlChangeNotify,
		uintptr(unsafe.Pointer(v.aev)),
		c.this,
	)
	c.Release()
	return HRESULT(hr).Err()
}

func (v *EndpointVolume) Release() {
	if v == nil || v.aev == nil {
		return
	}
	v.aev.Release()
	v.aev = nil
}
