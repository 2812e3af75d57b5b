package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/willywotz/micswitch/internal/logging"
)

// eventBuffer bounds the notifications queued between OS threads and the
// event loop. Overflow is dropped; see post.
const eventBuffer = 64

type Service struct {
	backend Backend
	store   Store
	log     *slog.Logger

	// life serialises Start and Stop.
	life sync.Mutex

	mu       sync.Mutex
	running  bool
	state    State
	active   Endpoint
	activeID string

	events chan Event
	stop   chan struct{}
	done   chan struct{}

	subs    map[int]chan State
	nextSub int
}

func NewService(backend Backend, store Store) *Service {
	return &Service{
		backend: backend,
		store:   store,
		log:     logging.Module("audio"),
		state: State{
			SaveState: SaveState{Prefs: make(map[string]DeviceState)},
			Devices:   make(map[string]DeviceState),
		},
		subs: make(map[int]chan State),
	}
}

// Start loads the save data, opens the backend and builds the device list.
// Calling it on a running service does nothing.
func (s *Service) Start(ctx context.Context) error {
	s.life.Lock()
	defer s.life.Unlock()

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	saved, err := s.store.Load()
	if err != nil {
		return err
	}
	if saved.Prefs == nil {
		saved.Prefs = make(map[string]DeviceState)
	}

	events := make(chan Event, eventBuffer)
	if err := s.backend.Open(events); err != nil {
		return fmt.Errorf("audio backend open: %w", err)
	}

	s.mu.Lock()
	s.state.SaveState = saved
	s.events = events
	if err := s.updateDeviceListLocked(); err != nil {
		derr := s.deactivateLocked()
		s.events = nil
		s.mu.Unlock()
		return errors.Join(fmt.Errorf("device list update: %w", err), derr, s.backend.Close())
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.events, s.stop, s.done)
	s.emitLocked()
	s.mu.Unlock()

	s.log.Info("audio service started",
		"prefs", len(saved.Prefs),
		"selected", saved.Selected)
	return nil
}

// Stop persists the save data and releases every OS object. Calling it on a
// stopped service does nothing.
func (s *Service) Stop() error {
	s.life.Lock()
	defer s.life.Unlock()

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if err := s.store.Save(s.state.SaveState); err != nil {
		errs = append(errs, err)
	}
	if err := s.deactivateLocked(); err != nil {
		errs = append(errs, err)
	}
	clear(s.state.Devices)
	s.state.Default = ""
	if err := s.backend.Close(); err != nil {
		errs = append(errs, err)
	}
	s.events = nil

	s.log.Info("audio service stopped")
	return errors.Join(errs...)
}

// GetState returns a snapshot of the current state.
func (s *Service) GetState() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return State{}, ErrNotRunning
	}
	return s.state.clone(), nil
}

// SetDevice selects a present device, or a preferred one that is currently
// disconnected. Selecting the current device only re-emits the state.
func (s *Service) SetDevice(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrNotRunning
	}

	if s.state.Present(id) {
		if id == s.state.Selected && s.activeID == id {
			s.emitLocked()
			return nil
		}
		if err := s.deactivateLocked(); err != nil {
			s.log.Warn("device deactivation failed", "device", s.activeID, "error", err)
		}
		s.state.Selected = id
		err := s.activateLocked(id)
		s.emitLocked()
		return err
	}

	if s.state.Preferred(id) {
		if id != s.state.Selected {
			if err := s.deactivateLocked(); err != nil {
				s.log.Warn("device deactivation failed", "device", s.activeID, "error", err)
			}
			s.state.Selected = id
		}
		s.emitLocked()
		return nil
	}

	return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
}

// TogglePref removes id from the preferred devices, or adds it when it is
// present.
func (s *Service) TogglePref(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrNotRunning
	}

	if s.state.Preferred(id) {
		delete(s.state.Prefs, id)
		s.emitLocked()
		return nil
	}

	device, ok := s.state.Devices[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	s.state.Prefs[id] = device
	s.emitLocked()
	return nil
}

// ToggleSelected flips the mute state of the selected device.
func (s *Service) ToggleSelected() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrNotRunning
	}
	return s.setMutedLocked(!s.state.Muted)
}

// SetMuted sets the mute state of the selected device.
func (s *Service) SetMuted(muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrNotRunning
	}
	return s.setMutedLocked(muted)
}

// Subscribe returns a channel receiving a snapshot after every change. Only
// the latest snapshot is kept for a slow reader.
func (s *Service) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan State, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Service) setMutedLocked(muted bool) error {
	id := s.state.Selected
	if s.state.Present(id) {
		if s.active == nil || s.activeID != id {
			if err := s.activateLocked(id); err != nil {
				return err
			}
		}
		if err := s.active.SetMuted(muted); err != nil {
			return fmt.Errorf("device %s set mute: %w", id, err)
		}
		s.state.Muted = muted
		s.emitLocked()
		return nil
	}

	if s.state.Preferred(id) {
		return nil
	}
	return ErrDeviceNotFound
}

func (s *Service) activateLocked(id string) error {
	if s.active != nil && s.activeID == id {
		return nil
	}
	if err := s.deactivateLocked(); err != nil {
		s.log.Warn("device deactivation failed", "device", s.activeID, "error", err)
	}

	ep, err := s.backend.Activate(id)
	if err != nil {
		return fmt.Errorf("device %s activate: %w", id, err)
	}
	muted, err := ep.Muted()
	if err != nil {
		ep.Close()
		return fmt.Errorf("device %s get mute: %w", id, err)
	}

	s.active, s.activeID = ep, id
	s.state.Muted = muted
	s.log.Debug("device activated", "device", id, "muted", muted)
	return nil
}

func (s *Service) deactivateLocked() error {
	if s.active == nil {
		return nil
	}
	ep, id := s.active, s.activeID
	s.active, s.activeID = nil, ""
	if err := ep.Close(); err != nil {
		return fmt.Errorf("device %s release: %w", id, err)
	}
	s.log.Debug("device deactivated", "device", id)
	return nil
}

// updateDeviceListLocked rebuilds Devices and keeps the selected device
// activated while it is present.
func (s *Service) updateDeviceListLocked() error {
	list, err := s.backend.Devices()
	if err != nil {
		return err
	}

	devices := make(map[string]DeviceState, len(list.Devices))
	for _, d := range list.Devices {
		devices[d.ID] = d
		// Keep stored names fresh for when the device goes away again.
		if _, ok := s.state.Prefs[d.ID]; ok {
			s.state.Prefs[d.ID] = d
		}
	}
	s.state.Devices = devices
	s.state.Default = list.Default

	if s.activeID != "" && !s.state.Present(s.activeID) {
		if err := s.deactivateLocked(); err != nil {
			s.log.Warn("device deactivation failed", "error", err)
		}
	}
	if s.state.Present(s.state.Selected) {
		return s.activateLocked(s.state.Selected)
	}
	return nil
}

func (s *Service) emitLocked() {
	st := s.state.clone()
	for _, ch := range s.subs {
		select {
		case ch <- st:
		default:
			// Replace the stale snapshot. Only emitLocked sends, so the
			// second send cannot block.
			select {
			case <-ch:
			default:
			}
			ch <- st
		}
	}
}

// loop applies backend notifications. Consecutive device changes collapse
// into a single rebuild.
func (s *Service) loop(events <-chan Event, stop, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		case ev := <-events:
			refresh := s.handle(ev)
		drain:
			for {
				select {
				case ev := <-events:
					if s.handle(ev) {
						refresh = true
					}
				default:
					break drain
				}
			}
			if refresh {
				s.refresh()
			}
		}
	}
}

// handle applies ev and reports whether it needs a device list rebuild.
func (s *Service) handle(ev Event) bool {
	switch ev.Kind {
	case DevicesChanged:
		return true
	case MuteChanged:
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.running || ev.DeviceID != s.activeID {
			return false
		}
		s.log.Debug("mute changed", "device", ev.DeviceID, "muted", ev.Muted, "self", ev.Self)
		if s.state.Muted != ev.Muted || !ev.Self {
			s.state.Muted = ev.Muted
			s.emitLocked()
		}
	}
	return false
}

func (s *Service) refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	if err := s.updateDeviceListLocked(); err != nil {
		s.log.Error("device list update failed", "error", err)
	}
	s.emitLocked()
}

// post queues ev from an OS notification thread without blocking.
func post(events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	default:
		logging.Module("audio").Warn("notification dropped", "kind", ev.Kind.String(), "device", ev.DeviceID)
		return false
	}
}
