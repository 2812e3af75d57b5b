//go:build windows

package coreaudio

import (
	"syscall"
	"unsafe"

	"github.com/moutend/go-wca/pkg/wca"
	"golang.org/x/sys/windows"
)

// Enumerator wraps IMMDeviceEnumerator.
type Enumerator struct {
	mmde *wca.IMMDeviceEnumerator
}

// NewEnumerator creates the MMDeviceEnumerator. The caller owns the result.
func NewEnumerator() (*Enumerator, error) {
	var mmde *wca.IMMDeviceEnumerator
	if err := wca.CoCreateInstance(wca.CLSID_MMDeviceEnumerator, 0, wca.CLSCTX_ALL, wca.IID_IMMDeviceEnumerator, &mmde); err != nil {
		return nil, err
	}
	return &Enumerator{mmde: mmde}, nil
}

// EnumAudioEndpoints lists endpoints of flow whose state is in stateMask.
func (e *Enumerator) EnumAudioEndpoints(flow DataFlow, stateMask DeviceState) (*Collection, error) {
	var mdc *wca.IMMDeviceCollection
	if err := e.mmde.EnumAudioEndpoints(uint32(flow), uint32(stateMask), &mdc); err != nil {
		return nil, err
	}
	return &Collection{mdc: mdc}, nil
}

// DefaultAudioEndpoint returns the default endpoint for flow and role.
func (e *Enumerator) DefaultAudioEndpoint(flow DataFlow, role Role) (*Device, error) {
	var mmd *wca.IMMDevice
	if err := e.mmde.GetDefaultAudioEndpoint(uint32(flow), uint32(role), &mmd); err != nil {
		return nil, err
	}
	return &Device{mmd: mmd}, nil
}

// Device opens an endpoint by its ID string.
func (e *Enumerator) Device(id string) (*Device, error) {
	wid, err := windows.UTF16PtrFromString(id)
	if err != nil {
		// An id with an embedded NUL cannot be passed to the OS at all.
		return nil, E_INVALIDARG.Err()
	}
	var mmd *wca.IMMDevice
	hr, _, _ := syscall.SyscallN(
		e.mmde.VTable().GetDevice,
		uintptr(unsafe.Pointer(e.mmde)),
		uintptr(unsafe.Pointer(wid)),
		uintptr(unsafe.Pointer(&mmd)),
	)
	if err := HRESULT(hr).Err(); err != nil {
		return nil, err
	}
	return &Device{mmd: mmd}, nil
}

// RegisterNotificationClient installs an adapter forwarding to h. The adapter
// is returned even when registration fails; the caller then drops it with
// Release.
func (e *Enumerator) RegisterNotificationClient(h NotificationHandler) (*NotificationClient, error) {
	c := NewNotificationClient(h)
	hr, _, _ := syscall.SyscallN(
		e.mmde.VTable().RegisterEndpointNotificationCallback,
		uintptr(unsafe.Pointer(e.mmde)),
		c.this,
	)
	return c, HRESULT(hr).Err()
}

// UnregisterNotificationClient removes c and drops the creator's reference.
// The unregister result is returned unchanged.
func (e *Enumerator) UnregisterNotificationClient(c *NotificationClient) error {
	if c == nil {
		return E_POINTER.Err()
	}
	hr, _, _ := syscall.SyscallN(
		e.mmde.VTable().UnregisterEndpointNotificationCallback,
		uintptr(unsafe.Pointer(e.mmde)),
		c.this,
	)
	c.Release()
	return HRESULT(hr).Err()
}

// Release drops the enumerator.
func (e *Enumerator) Release() {
	if e == nil || e.mmde == nil {
		return
	}
	e.mmde.Release()
	e.mmde = nil
}

// Collection wraps IMMDeviceCollection.
type Collection struct {
	mdc *wca.IMMDeviceCollection
}

func (c *Collection) Count() (uint32, error) {
	var count uint32
	if err := c.mdc.GetCount(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Item returns the device at index i. The caller owns the result.
func (c *Collection) Item(i uint32) (*Device, error) {
	var mmd *wca.IMMDevice
	if err := c.mdc.Item(i, &mmd); err != nil {
		return nil, err
	}
	return &Device{mmd: mmd}, nil
}

func (c *Collection) Release() {
	if c == nil || c.mdc == nil {
		return
	}
	c.mdc.Release()
	c.mdc = nil
}
