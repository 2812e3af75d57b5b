//go:build windows

package coreaudio

import (
	"sync"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
)

// Vtable layouts from mmdeviceapi.h and endpointvolume.h.
type notificationClientVtbl struct {
	ole.IUnknownVtbl
	OnDeviceStateChanged   uintptr
	OnDeviceAdded          uintptr
	OnDeviceRemoved        uintptr
	OnDefaultDeviceChanged uintptr
	OnPropertyValueChanged uintptr
}

type volumeCallbackVtbl struct {
	ole.IUnknownVtbl
	OnNotify uintptr
}

// audioVolumeNotificationData mirrors AUDIO_VOLUME_NOTIFICATION_DATA; the
// channel array really holds nChannels entries.
type audioVolumeNotificationData struct {
	guidEventContext ole.GUID
	bMuted           int32
	fMasterVolume    float32
	nChannels        uint32
	afChannelVolumes [1]float32
}

var (
	vtblOnce           sync.Once
	notificationVtable notificationClientVtbl
	volumeVtable       volumeCallbackVtbl
)

// syscall.NewCallback slots are a finite process resource, so the tables are
// built once and shared by every adapter.
func vtables() (*notificationClientVtbl, *volumeCallbackVtbl) {
	vtblOnce.Do(func() {
		unk := ole.IUnknownVtbl{
			QueryInterface: syscall.NewCallback(comQueryInterface),
			AddRef:         syscall.NewCallback(comAddRef),
			Release:        syscall.NewCallback(comRelease),
		}
		notificationVtable = notificationClientVtbl{
			IUnknownVtbl:           unk,
			OnDeviceStateChanged:   syscall.NewCallback(onDeviceStateChanged),
			OnDeviceAdded:          syscall.NewCallback(onDeviceAdded),
			OnDeviceRemoved:        syscall.NewCallback(onDeviceRemoved),
			OnDefaultDeviceChanged: syscall.NewCallback(onDefaultDeviceChanged),
			OnPropertyValueChanged: syscall.NewCallback(onPropertyValueChanged),
		}
		volumeVtable = volumeCallbackVtbl{
			IUnknownVtbl: unk,
			OnNotify:     syscall.NewCallback(onNotify),
		}
	})
	return &notificationVtable, &volumeVtable
}

// NewNotificationClient creates an adapter holding one reference, which the
// caller gives back through Release (UnregisterNotificationClient does it).
func NewNotificationClient(h NotificationHandler) *NotificationClient {
	nv, _ := vtables()
	c := newNotificationClient(h)
	c.this = bind(c, uintptr(unsafe.Pointer(nv)))
	return c
}

// NewVolumeCallback creates an adapter holding one reference.
func NewVolumeCallback(h VolumeHandler) *VolumeCallback {
	_, vv := vtables()
	c := newVolumeCallback(h)
	c.this = bind(c, uintptr(unsafe.Pointer(vv)))
	return c
}

func wstr(p uintptr) string {
	if p == 0 {
		return ""
	}
	return windows.UTF16PtrToString((*uint16)(unsafe.Pointer(p)))
}

func comQueryInterface(this, riid, ppv uintptr) uintptr {
	return uintptr(queryInterface(this, (*ole.GUID)(unsafe.Pointer(riid)), (*uintptr)(unsafe.Pointer(ppv))))
}

func comAddRef(this uintptr) uintptr {
	return uintptr(addRef(this))
}

func comRelease(this uintptr) uintptr {
	return uintptr(release(this))
}

func notificationClient(this uintptr) *NotificationClient {
	c, _ := lookup(this).(*NotificationClient)
	return c
}

func onDeviceStateChanged(this, id, state uintptr) uintptr {
	c := notificationClient(this)
	if c == nil {
		return uintptr(S_OK)
	}
	return uintptr(c.deviceStateChanged(wstr(id), DeviceState(state)))
}

func onDeviceAdded(this, id uintptr) uintptr {
	c := notificationClient(this)
	if c == nil {
		return uintptr(S_OK)
	}
	return uintptr(c.deviceAdded(wstr(id)))
}

func onDeviceRemoved(this, id uintptr) uintptr {
	c := notificationClient(this)
	if c == nil {
		return uintptr(S_OK)
	}
	return uintptr(c.deviceRemoved(wstr(id)))
}

func onDefaultDeviceChanged(this, flow, role, id uintptr) uintptr {
	c := notificationClient(this)
	if c == nil {
		return uintptr(S_OK)
	}
	return uintptr(c.defaultDeviceChanged(DataFlow(flow), Role(role), wstr(id)))
}

// The PROPERTYKEY argument is passed by value in the header; on the 64-bit
// calling conventions a 20 byte struct travels as a pointer to a copy.
func onPropertyValueChanged(this, id, key uintptr) uintptr {
	c := notificationClient(this)
	if c == nil {
		return uintptr(S_OK)
	}
	var k PropertyKey
	if key != 0 {
		k = *(*PropertyKey)(unsafe.Pointer(key))
	}
	return uintptr(c.propertyValueChanged(wstr(id), k))
}

func onNotify(this, data uintptr) uintptr {
	c, _ := lookup(this).(*VolumeCallback)
	if c == nil || data == 0 {
		return uintptr(S_OK)
	}
	d := (*audioVolumeNotificationData)(unsafe.Pointer(data))
	n := VolumeNotification{
		EventContext: d.guidEventContext,
		Muted:        d.bMuted != 0,
		MasterVolume: d.fMasterVolume,
	}
	if d.nChannels > 0 {
		n.ChannelVolumes = append([]float32(nil), unsafe.Slice(&d.afChannelVolumes[0], d.nChannels)...)
	}
	return uintptr(c.notify(n))
}
