//go:build windows

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/willywotz/micswitch/internal/coreaudio"
)

func withEnumerator(fn func(e *coreaudio.Enumerator) error) error {
	apt, err := coreaudio.EnterMTA()
	if err != nil {
		return fmt.Errorf("failed to initialize COM: %w", err)
	}
	defer apt.Close()

	e, err := coreaudio.NewEnumerator()
	if err != nil {
		return fmt.Errorf("failed to create MMDeviceEnumerator: %w", err)
	}
	defer e.Release()

	return fn(e)
}

func listEndpoints(flow coreaudio.DataFlow) ([]endpointInfo, error) {
	var out []endpointInfo
	err := withEnumerator(func(e *coreaudio.Enumerator) error {
		var defaultID string
		if d, err := e.DefaultAudioEndpoint(flow, coreaudio.Communications); err == nil {
			defaultID, _ = d.ID()
			d.Release()
		}

		coll, err := e.EnumAudioEndpoints(flow, coreaudio.StateAll)
		if err != nil {
			return fmt.Errorf("failed to enumerate audio endpoints: %w", err)
		}
		defer coll.Release()

		count, err := coll.Count()
		if err != nil {
			return fmt.Errorf("failed to get device count: %w", err)
		}

		for i := range count {
			d, err := coll.Item(i)
			if err != nil {
				continue
			}
			out = append(out, describe(d, defaultID))
			d.Release()
		}
		return nil
	})
	return out, err
}

func describe(d *coreaudio.Device, defaultID string) endpointInfo {
	var info endpointInfo
	info.ID, _ = d.ID()
	info.Name, _ = d.FriendlyName()
	info.Default = info.ID != "" && info.ID == defaultID

	state, err := d.State()
	if err != nil {
		info.State = "unknown"
		return info
	}
	info.State = state.String()
	if state != coreaudio.StateActive {
		return info
	}

	vol, err := d.ActivateEndpointVolume()
	if err != nil {
		return info
	}
	defer vol.Release()

	muted, merr := vol.Mute()
	level, lerr := vol.MasterLevel()
	if merr == nil && lerr == nil {
		info.HasVolume, info.Muted, info.Level = true, muted, level
	}
	return info
}

// endpointVolume opens id, or the default communications endpoint of flow
// when id is empty.
func endpointVolume(e *coreaudio.Enumerator, flow coreaudio.DataFlow, id string) (*coreaudio.EndpointVolume, error) {
	var (
		d   *coreaudio.Device
		err error
	)
	if id == "" {
		d, err = e.DefaultAudioEndpoint(flow, coreaudio.Communications)
	} else {
		d, err = e.Device(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audio endpoint: %w", err)
	}
	defer d.Release()

	vol, err := d.ActivateEndpointVolume()
	if err != nil {
		return nil, fmt.Errorf("failed to activate audio endpoint volume: %w", err)
	}
	return vol, nil
}

func setEndpointMute(flow coreaudio.DataFlow, id string, muted bool) error {
	return withEnumerator(func(e *coreaudio.Enumerator) error {
		vol, err := endpointVolume(e, flow, id)
		if err != nil {
			return err
		}
		defer vol.Release()

		if err := vol.SetMute(muted, nil); err != nil {
			return fmt.Errorf("failed to set mute: %w", err)
		}
		return nil
	})
}

func setEndpointLevel(flow coreaudio.DataFlow, id string, level float32) error {
	return withEnumerator(func(e *coreaudio.Enumerator) error {
		vol, err := endpointVolume(e, flow, id)
		if err != nil {
			return err
		}
		defer vol.Release()

		if err := vol.SetMasterLevel(level, nil); err != nil {
			return fmt.Errorf("failed to set master volume level: %w", err)
		}
		return nil
	})
}

type watchedVolume struct {
	vol *coreaudio.EndpointVolume
	cb  *coreaudio.VolumeCallback
}

func watchEndpoints(ctx context.Context, flow coreaudio.DataFlow, w io.Writer) error {
	return withEnumerator(func(e *coreaudio.Enumerator) error {
		lines := make(chan string, 64)
		say := func(format string, args ...any) {
			select {
			case lines <- fmt.Sprintf(format, args...):
			default:
			}
		}

		client, err := e.RegisterNotificationClient(coreaudio.NotificationHandler{
			OnDeviceStateChanged: func(id string, state coreaudio.DeviceState) error {
				say("state    %s %s", state, id)
				return nil
			},
			OnDeviceAdded: func(id string) error {
				say("added    %s", id)
				return nil
			},
			OnDeviceRemoved: func(id string) error {
				say("removed  %s", id)
				return nil
			},
			OnDefaultDeviceChanged: func(f coreaudio.DataFlow, role coreaudio.Role, id string) error {
				say("default  %s/%s %s", f, role, id)
				return nil
			},
			OnPropertyValueChanged: func(id string, key coreaudio.PropertyKey) error {
				say("property %s %s", key, id)
				return nil
			},
		})
		if err != nil {
			client.Release()
			return fmt.Errorf("failed to register notification client: %w", err)
		}

		watched := watchVolumes(e, flow, say)

		defer func() {
			for _, v := range watched {
				_ = v.vol.UnregisterControlChangeNotify(v.cb)
				v.vol.Release()
			}
			_ = e.UnregisterNotificationClient(client)
		}()

		for {
			select {
			case <-ctx.Done():
				return nil
			case line := <-lines:
				fmt.Fprintln(w, line)
			}
		}
	})
}

// watchVolumes subscribes to volume changes of the endpoints active now.
func watchVolumes(e *coreaudio.Enumerator, flow coreaudio.DataFlow, say func(string, ...any)) []watchedVolume {
	coll, err := e.EnumAudioEndpoints(flow, coreaudio.StateActive)
	if err != nil {
		return nil
	}
	defer coll.Release()

	count, err := coll.Count()
	if err != nil {
		return nil
	}

	var watched []watchedVolume
	for i := range count {
		d, err := coll.Item(i)
		if err != nil {
			continue
		}
		name, _ := d.FriendlyName()
		vol, err := d.ActivateEndpointVolume()
		d.Release()
		if err != nil {
			continue
		}
		cb, err := vol.RegisterControlChangeNotify(func(n coreaudio.VolumeNotification) error {
			say("volume   %s muted=%t level=%.0f%%", name, n.Muted, n.MasterVolume*100)
			return nil
		})
		if err != nil {
			cb.Release()
			vol.Release()
			continue
		}
		watched = append(watched, watchedVolume{vol: vol, cb: cb})
	}
	return watched
}
