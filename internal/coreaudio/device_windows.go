//go:build windows

package coreaudio

import (
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"
	"golang.org/x/sys/windows"
)

// Device wraps IMMDevice.
type Device struct {
	mmd *wca.IMMDevice
}

// ID returns the endpoint ID string. The OS allocated copy is freed with
// CoTaskMemFree once read.
func (d *Device) ID() (string, error) {
	var p *uint16
	hr, _, _ := syscall.SyscallN(
		d.mmd.VTable().GetId,
		uintptr(unsafe.Pointer(d.mmd)),
		uintptr(unsafe.Pointer(&p)),
	)
	if err := HRESULT(hr).Err(); err != nil {
		return "", err
	}
	defer windows.CoTaskMemFree(unsafe.Pointer(p))
	return windows.UTF16PtrToString(p), nil
}

// State returns the DEVICE_STATE_XXX value of the endpoint.
func (d *Device) State() (DeviceState, error) {
	var state uint32
	if err := d.mmd.GetState(&state); err != nil {
		return 0, err
	}
	return DeviceState(state), nil
}

// OpenPropertyStore opens the endpoint property store for reading.
func (d *Device) OpenPropertyStore() (*PropertyStore, error) {
	var ps *wca.IPropertyStore
	if err := d.mmd.OpenPropertyStore(wca.STGM_READ, &ps); err != nil {
		return nil, err
	}
	return &PropertyStore{ps: ps}, nil
}

// FriendlyName is a shortcut for reading PKEY_Device_FriendlyName.
func (d *Device) FriendlyName() (string, error) {
	ps, err := d.OpenPropertyStore()
	if err != nil {
		return "", err
	}
	defer ps.Release()

	return ps.String(PKEY_Device_FriendlyName)
}

// ActivateEndpointVolume activates IAudioEndpointVolume on the endpoint.
func (d *Device) ActivateEndpointVolume() (*EndpointVolume, error) {
	var aev *wca.IAudioEndpointVolume
	if err := d.mmd.Activate(wca.IID_IAudioEndpointVolume, wca.CLSCTX_ALL, nil, &aev); err != nil {
		return nil, err
	}
	return &EndpointVolume{aev: aev}, nil
}

func (d *Device) Release() {
	if d == nil || d.mmd == nil {
		return
	}
	d.mmd.Release()
	d.mmd = nil
}

// PropertyStore wraps IPropertyStore.
type PropertyStore struct {
	ps *wca.IPropertyStore
}

// String reads a string property. The PROPVARIANT starts zeroed (VT_EMPTY,
// what PropVariantInit does) and is cleared once the value has been copied.
func (p *PropertyStore) String(key PropertyKey) (string, error) {
	var pv wca.PROPVARIANT
	if err := p.ps.GetValue((*wca.PROPERTYKEY)(unsafe.Pointer(&key)), &pv); err != nil {
		return "", err
	}
	defer propVariantClear(unsafe.Pointer(&pv))

	return propVariantString(unsafe.Pointer(&pv)), nil
}

// propVariantString copies the VT_LPWSTR payload of pv and leaves the buffer
// owned by pv. Any other type reads as "".
func propVariantString(pv unsafe.Pointer) string {
	// vt is the leading WORD, the union follows three reserved WORDs.
	if ole.VT(*(*uint16)(pv)) != ole.VT_LPWSTR {
		return ""
	}
	return windows.UTF16PtrToString(*(**uint16)(unsafe.Add(pv, 8)))
}

func (p *PropertyStore) Release() {
	if p == nil || p.ps == nil {
		return
	}
	p.ps.Release()
	p.ps = nil
}
