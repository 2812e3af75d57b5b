package coreaudio

// NotificationHandler receives IMMNotificationClient callbacks. Nil fields are
// acknowledged with S_OK. A returned error makes the COM method fail, with
// E_FAIL unless the error carries its own failure code.
//
// Handlers run on an OS-owned thread and must not call back into the
// enumerator synchronously.
type NotificationHandler struct {
	OnDeviceStateChanged   func(deviceID string, state DeviceState) error
	OnDeviceAdded          func(deviceID string) error
	OnDeviceRemoved        func(deviceID string) error
	OnDefaultDeviceChanged func(flow DataFlow, role Role, deviceID string) error
	OnPropertyValueChanged func(deviceID string, key PropertyKey) error
}

// VolumeHandler receives IAudioEndpointVolumeCallback::OnNotify.
type VolumeHandler func(n VolumeNotification) error

// NotificationClient is an IMMNotificationClient implemented in Go.
type NotificationClient struct {
	unknown
	handler NotificationHandler

	// this is the COM identity handed to the OS, zero until bound.
	this uintptr
}

func newNotificationClient(h NotificationHandler) *NotificationClient {
	c := &NotificationClient{handler: h}
	c.init(IID_IMMNotificationClient, func() { unbind(c.this) })
	return c
}

func (c *NotificationClient) deviceStateChanged(id string, state DeviceState) HRESULT {
	if c.handler.OnDeviceStateChanged == nil {
		return S_OK
	}
	return resultOf(c.handler.OnDeviceStateChanged(id, state))
}

func (c *NotificationClient) deviceAdded(id string) HRESULT {
	if c.handler.OnDeviceAdded == nil {
		return S_OK
	}
	return resultOf(c.handler.OnDeviceAdded(id))
}

func (c *NotificationClient) deviceRemoved(id string) HRESULT {
	if c.handler.OnDeviceRemoved == nil {
		return S_OK
	}
	return resultOf(c.handler.OnDeviceRemoved(id))
}

func (c *NotificationClient) defaultDeviceChanged(flow DataFlow, role Role, id string) HRESULT {
	if c.handler.OnDefaultDeviceChanged == nil {
		return S_OK
	}
	return resultOf(c.handler.OnDefaultDeviceChanged(flow, role, id))
}

func (c *NotificationClient) propertyValueChanged(id string, key PropertyKey) HRESULT {
	if c.handler.OnPropertyValueChanged == nil {
		return S_OK
	}
	return resultOf(c.handler.OnPropertyValueChanged(id, key))
}

// VolumeCallback is an IAudioEndpointVolumeCallback implemented in Go.
type VolumeCallback struct {
	unknown
	handler VolumeHandler
	this    uintptr
}

func newVolumeCallback(h VolumeHandler) *VolumeCallback {
	c := &VolumeCallback{handler: h}
	c.init(IID_IAudioEndpointVolumeCallback, func() { unbind(c.this) })
	return c
}

func (c *VolumeCallback) notify(n VolumeNotification) HRESULT {
	if c.handler == nil {
		return S_OK
	}
	return resultOf(c.handler(n))
}
