//go:build windows

package audio

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-ole/go-ole"

	"github.com/willywotz/micswitch/internal/coreaudio"
	"github.com/willywotz/micswitch/internal/logging"
)

// eventContext tags mute changes made by this process.
var eventContext = ole.NewGUID("{3F0B6A52-7C1D-4E8B-9A51-2D6C0E4F8B17}")

type coreBackend struct {
	flow coreaudio.DataFlow
	log  *slog.Logger

	apt    *coreaudio.Apartment
	enum   *coreaudio.Enumerator
	client *coreaudio.NotificationClient
	events chan<- Event
}

// NewBackend returns the Core Audio backend for endpoints of flow.
func NewBackend(flow coreaudio.DataFlow) (Backend, error) {
	return &coreBackend{
		flow: flow,
		log:  logging.Module("coreaudio"),
	}, nil
}

func (b *coreBackend) Open(events chan<- Event) error {
	apt, err := coreaudio.EnterMTA()
	if err != nil {
		return fmt.Errorf("COM library init: %w", err)
	}

	enum, err := coreaudio.NewEnumerator()
	if err != nil {
		apt.Close()
		return fmt.Errorf("device enumerator create: %w", err)
	}

	changed := func(string) error {
		post(events, Event{Kind: DevicesChanged})
		return nil
	}
	client, err := enum.RegisterNotificationClient(coreaudio.NotificationHandler{
		OnDeviceStateChanged: func(id string, state coreaudio.DeviceState) error {
			b.log.Debug("device state changed", "device", id, "state", state.String())
			return changed(id)
		},
		OnDeviceAdded:   changed,
		OnDeviceRemoved: changed,
		OnDefaultDeviceChanged: func(flow coreaudio.DataFlow, role coreaudio.Role, id string) error {
			if !defaultChangeMatters(b.flow, flow, role) {
				return nil
			}
			return changed(id)
		},
	})
	if err != nil {
		client.Release()
		enum.Release()
		apt.Close()
		return fmt.Errorf("audio notification registration: %w", err)
	}

	b.apt, b.enum, b.client, b.events = apt, enum, client, events
	return nil
}

func (b *coreBackend) Devices() (DeviceList, error) {
	var list DeviceList

	coll, err := b.enum.EnumAudioEndpoints(b.flow, coreaudio.StateActive)
	if err != nil {
		return list, fmt.Errorf("audio device collection: %w", err)
	}
	defer coll.Release()

	count, err := coll.Count()
	if err != nil {
		return list, fmt.Errorf("audio device collection count: %w", err)
	}

	for i := range count {
		d, err := coll.Item(i)
		if err != nil {
			b.log.Warn("device collection item failed", "index", i, "error", err)
			continue
		}
		st, err := deviceState(d)
		d.Release()
		if err != nil {
			b.log.Warn("device skipped", "index", i, "error", err)
			continue
		}
		list.Devices = append(list.Devices, st)
	}

	if d, err := b.enum.DefaultAudioEndpoint(defaultFlow(b.flow), coreaudio.Communications); err == nil {
		list.Default, _ = d.ID()
		d.Release()
	}
	return list, nil
}

func deviceState(d *coreaudio.Device) (DeviceState, error) {
	id, err := d.ID()
	if err != nil {
		return DeviceState{}, fmt.Errorf("device id: %w", err)
	}
	name, err := d.FriendlyName()
	if err != nil {
		return DeviceState{}, fmt.Errorf("device %s name: %w", id, err)
	}
	return DeviceState{ID: id, Name: name}, nil
}

func (b *coreBackend) Activate(id string) (Endpoint, error) {
	d, err := b.enum.Device(id)
	if err != nil {
		return nil, err
	}
	defer d.Release()

	vol, err := d.ActivateEndpointVolume()
	if err != nil {
		return nil, fmt.Errorf("endpoint volume: %w", err)
	}

	events := b.events
	cb, err := vol.RegisterControlChangeNotify(func(n coreaudio.VolumeNotification) error {
		post(events, Event{
			Kind:     MuteChanged,
			DeviceID: id,
			Muted:    n.Muted,
			Self:     ole.IsEqualGUID(&n.EventContext, eventContext),
		})
		return nil
	})
	if err != nil {
		cb.Release()
		vol.Release()
		return nil, fmt.Errorf("register notify: %w", err)
	}

	return &coreEndpoint{vol: vol, cb: cb}, nil
}

func (b *coreBackend) Close() error {
	var errs []error
	if b.client != nil {
		if err := b.enum.UnregisterNotificationClient(b.client); err != nil {
			errs = append(errs, fmt.Errorf("audio notification unregister: %w", err))
		}
		b.client = nil
	}
	if b.enum != nil {
		b.enum.Release()
		b.enum = nil
	}
	if b.apt != nil {
		b.apt.Close()
		b.apt = nil
	}
	b.events = nil
	return errors.Join(errs...)
}

type coreEndpoint struct {
	vol *coreaudio.EndpointVolume
	cb  *coreaudio.VolumeCallback
}

func (e *coreEndpoint) Muted() (bool, error) {
	return e.vol.Mute()
}

func (e *coreEndpoint) SetMuted(muted bool) error {
	return e.vol.SetMute(muted, eventContext)
}

func (e *coreEndpoint) Close() error {
	var err error
	if e.cb != nil {
		err = e.vol.UnregisterControlChangeNotify(e.cb)
		e.cb = nil
	}
	e.vol.Release()
	return err
}
