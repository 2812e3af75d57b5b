package audio

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeEndpoint struct {
	b      *fakeBackend
	id     string
	closed bool
}

func (e *fakeEndpoint) Muted() (bool, error) {
	e.b.mu.Lock()
	defer e.b.mu.Unlock()
	return e.b.muted[e.id], nil
}

func (e *fakeEndpoint) SetMuted(muted bool) error {
	e.b.mu.Lock()
	defer e.b.mu.Unlock()
	if e.b.setMuteErr != nil {
		return e.b.setMuteErr
	}
	e.b.muted[e.id] = muted
	return nil
}

func (e *fakeEndpoint) Close() error {
	e.b.mu.Lock()
	defer e.b.mu.Unlock()
	e.closed = true
	e.b.closedEndpoints++
	return nil
}

type fakeBackend struct {
	mu              sync.Mutex
	devices         []DeviceState
	def             string
	muted           map[string]bool
	events          chan<- Event
	opened          bool
	enumerations    int
	activations     []string
	closedEndpoints int
	setMuteErr      error
	openErr         error
}

func newFakeBackend(devices ...DeviceState) *fakeBackend {
	return &fakeBackend{devices: devices, muted: make(map[string]bool)}
}

func (b *fakeBackend) Open(events chan<- Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openErr != nil {
		return b.openErr
	}
	b.events = events
	b.opened = true
	return nil
}

func (b *fakeBackend) Devices() (DeviceList, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enumerations++
	return DeviceList{Devices: append([]DeviceState(nil), b.devices...), Default: b.def}, nil
}

func (b *fakeBackend) Activate(id string) (Endpoint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.devices {
		if d.ID == id {
			b.activations = append(b.activations, id)
			return &fakeEndpoint{b: b, id: id}, nil
		}
	}
	return nil, ErrDeviceNotFound
}

func (b *fakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened = false
	b.events = nil
	return nil
}

func (b *fakeBackend) setDevices(devices ...DeviceState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices = devices
}

func (b *fakeBackend) post(ev Event) {
	b.mu.Lock()
	events := b.events
	b.mu.Unlock()
	post(events, ev)
}

func (b *fakeBackend) enumerationCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enumerations
}

type memStore struct {
	mu    sync.Mutex
	saved SaveState
	saves int
}

func (m *memStore) Load() (SaveState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.saved
	s.Prefs = make(map[string]DeviceState)
	for k, v := range m.saved.Prefs {
		s.Prefs[k] = v
	}
	return s, nil
}

func (m *memStore) Save(s SaveState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = s
	m.saves++
	return nil
}

var (
	mic1 = DeviceState{ID: "{0.0.1.00000000}.{mic-1}", Name: "Headset Microphone"}
	mic2 = DeviceState{ID: "{0.0.1.00000000}.{mic-2}", Name: "USB Microphone"}
	mic3 = DeviceState{ID: "{0.0.1.00000000}.{mic-3}", Name: "Webcam"}
)

func startService(t *testing.T, b *fakeBackend, store Store) *Service {
	t.Helper()
	s := NewService(b, store)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { assert.NoError(t, s.Stop()) })
	return s
}

func waitState(t *testing.T, ch <-chan State, cond func(State) bool) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-ch:
			if cond(st) {
				return st
			}
		case <-deadline:
			t.Fatal("timed out waiting for state")
		}
	}
}

func TestNotRunning(t *testing.T) {
	s := NewService(newFakeBackend(), &memStore{})

	_, err := s.GetState()
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.ErrorIs(t, s.SetDevice("x"), ErrNotRunning)
	assert.ErrorIs(t, s.TogglePref("x"), ErrNotRunning)
	assert.ErrorIs(t, s.ToggleSelected(), ErrNotRunning)
	assert.ErrorIs(t, s.SetMuted(true), ErrNotRunning)
	assert.NoError(t, s.Stop())
}

func TestStartStopIdempotent(t *testing.T) {
	b := newFakeBackend(mic1, mic2)
	store := &memStore{}
	s := NewService(b, store)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 1, b.enumerationCount())

	st, err := s.GetState()
	require.NoError(t, err)
	assert.Len(t, st.Devices, 2)
	assert.Equal(t, mic1, st.Devices[mic1.ID])

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	assert.Equal(t, 1, store.saves)
	assert.False(t, b.opened)
}

func TestStartErrors(t *testing.T) {
	b := newFakeBackend()
	b.openErr = errors.New("no COM")
	s := NewService(b, &memStore{})
	assert.ErrorIs(t, s.Start(context.Background()), b.openErr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Start(ctx), context.Canceled)

	_, err := s.GetState()
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestSetDevice(t *testing.T) {
	b := newFakeBackend(mic1, mic2)
	b.muted[mic2.ID] = true
	s := startService(t, b, &memStore{})

	require.NoError(t, s.SetDevice(mic1.ID))
	st, _ := s.GetState()
	assert.Equal(t, mic1.ID, st.Selected)
	assert.False(t, st.Muted)

	require.NoError(t, s.SetDevice(mic2.ID))
	st, _ = s.GetState()
	assert.Equal(t, mic2.ID, st.Selected)
	assert.True(t, st.Muted, "mute state read on activation")

	require.NoError(t, s.SetDevice(mic2.ID))
	assert.Equal(t, []string{mic1.ID, mic2.ID}, b.activations, "reselect does not reactivate")
	assert.Equal(t, 1, b.closedEndpoints)

	assert.ErrorIs(t, s.SetDevice("missing"), ErrDeviceNotFound)
}

func TestSetDeviceAbsentPreferred(t *testing.T) {
	store := &memStore{saved: SaveState{Prefs: map[string]DeviceState{mic3.ID: mic3}}}
	b := newFakeBackend(mic1)
	s := startService(t, b, store)

	require.NoError(t, s.SetDevice(mic1.ID))
	require.NoError(t, s.SetDevice(mic3.ID))

	st, _ := s.GetState()
	assert.Equal(t, mic3.ID, st.Selected)
	assert.False(t, st.Present(mic3.ID))
	assert.Equal(t, mic3.Name, st.Name(mic3.ID))
	assert.Equal(t, 1, b.closedEndpoints, "previous device released")

	assert.NoError(t, s.ToggleSelected(), "absent preferred device is a no-op")
}

func TestTogglePref(t *testing.T) {
	store := &memStore{}
	s := startService(t, newFakeBackend(mic1), store)

	require.NoError(t, s.TogglePref(mic1.ID))
	st, _ := s.GetState()
	assert.True(t, st.Preferred(mic1.ID))

	require.NoError(t, s.TogglePref(mic1.ID))
	st, _ = s.GetState()
	assert.False(t, st.Preferred(mic1.ID))

	assert.ErrorIs(t, s.TogglePref("missing"), ErrDeviceNotFound)
}

func TestToggleSelected(t *testing.T) {
	b := newFakeBackend(mic1)
	s := startService(t, b, &memStore{})

	assert.ErrorIs(t, s.ToggleSelected(), ErrDeviceNotFound)

	require.NoError(t, s.SetDevice(mic1.ID))
	require.NoError(t, s.ToggleSelected())
	st, _ := s.GetState()
	assert.True(t, st.Muted)
	assert.True(t, b.muted[mic1.ID])

	require.NoError(t, s.ToggleSelected())
	st, _ = s.GetState()
	assert.False(t, st.Muted)

	require.NoError(t, s.SetMuted(true))
	st, _ = s.GetState()
	assert.True(t, st.Muted)

	b.setMuteErr = errors.New("device gone")
	assert.ErrorIs(t, s.ToggleSelected(), b.setMuteErr)
	st, _ = s.GetState()
	assert.True(t, st.Muted, "state unchanged on failure")
}

func TestSelectionRestoredOnStart(t *testing.T) {
	store := &memStore{saved: SaveState{
		Prefs:    map[string]DeviceState{mic1.ID: {ID: mic1.ID, Name: "old name"}},
		Selected: mic1.ID,
	}}
	b := newFakeBackend(mic1)
	b.muted[mic1.ID] = true
	s := startService(t, b, store)

	st, err := s.GetState()
	require.NoError(t, err)
	assert.True(t, st.Muted)
	assert.Equal(t, mic1.Name, st.Prefs[mic1.ID].Name, "preferred name refreshed")
	assert.Equal(t, []string{mic1.ID}, b.activations)
}

func TestStopPersists(t *testing.T) {
	store := &memStore{}
	b := newFakeBackend(mic1)
	s := NewService(b, store)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.TogglePref(mic1.ID))
	require.NoError(t, s.SetDevice(mic1.ID))
	require.NoError(t, s.SetMuted(true))
	require.NoError(t, s.Stop())

	assert.Equal(t, mic1.ID, store.saved.Selected)
	assert.True(t, store.saved.Muted)
	assert.Contains(t, store.saved.Prefs, mic1.ID)
	assert.Equal(t, 1, b.closedEndpoints)
}

func TestDeviceEvents(t *testing.T) {
	b := newFakeBackend(mic1)
	s := startService(t, b, &memStore{})
	require.NoError(t, s.SetDevice(mic1.ID))

	ch, cancel := s.Subscribe()
	defer cancel()

	b.setDevices(mic1, mic2)
	b.post(Event{Kind: DevicesChanged})
	st := waitState(t, ch, func(st State) bool { return st.Present(mic2.ID) })
	assert.Len(t, st.Devices, 2)

	b.setDevices(mic2)
	b.post(Event{Kind: DevicesChanged})
	st = waitState(t, ch, func(st State) bool { return !st.Present(mic1.ID) })
	assert.Equal(t, mic1.ID, st.Selected, "selection kept while absent")

	b.setDevices(mic1, mic2)
	b.post(Event{Kind: DevicesChanged})
	waitState(t, ch, func(st State) bool { return st.Present(mic1.ID) })
	assert.Equal(t, []string{mic1.ID, mic1.ID}, b.activations, "reactivated on return")
}

func TestMuteEvents(t *testing.T) {
	b := newFakeBackend(mic1, mic2)
	s := startService(t, b, &memStore{})
	require.NoError(t, s.SetDevice(mic1.ID))

	ch, cancel := s.Subscribe()
	defer cancel()

	b.post(Event{Kind: MuteChanged, DeviceID: mic2.ID, Muted: true})
	b.post(Event{Kind: MuteChanged, DeviceID: mic1.ID, Muted: true})
	st := waitState(t, ch, func(st State) bool { return st.Muted })
	assert.Equal(t, mic1.ID, st.Selected)

	b.post(Event{Kind: MuteChanged, DeviceID: mic1.ID, Muted: false, Self: true})
	waitState(t, ch, func(st State) bool { return !st.Muted })
}

func TestRefreshCoalesces(t *testing.T) {
	b := newFakeBackend(mic1)
	s := NewService(b, &memStore{})
	ch, cancel := s.Subscribe()
	defer cancel()

	// Hold the lock so the loop cannot run while the events queue up.
	require.NoError(t, s.Start(context.Background()))
	s.mu.Lock()
	for range 10 {
		b.post(Event{Kind: DevicesChanged})
	}
	s.mu.Unlock()

	b.setDevices(mic1, mic2)
	b.post(Event{Kind: DevicesChanged})
	waitState(t, ch, func(st State) bool { return st.Present(mic2.ID) })
	require.NoError(t, s.Stop())

	assert.LessOrEqual(t, b.enumerationCount(), 4)
}

func TestSubscribeLatestWins(t *testing.T) {
	s := startService(t, newFakeBackend(mic1, mic2), &memStore{})
	ch, cancel := s.Subscribe()

	require.NoError(t, s.TogglePref(mic1.ID))
	require.NoError(t, s.TogglePref(mic2.ID))

	st := <-ch
	assert.Len(t, st.Prefs, 2)

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)

	require.NoError(t, s.TogglePref(mic1.ID), "emit after cancel is safe")
}

func TestGetStateIsCopy(t *testing.T) {
	s := startService(t, newFakeBackend(mic1), &memStore{})
	st, _ := s.GetState()
	st.Devices["injected"] = DeviceState{}
	st.Prefs["injected"] = DeviceState{}

	again, _ := s.GetState()
	assert.NotContains(t, again.Devices, "injected")
	assert.NotContains(t, again.Prefs, "injected")
}

func TestFileStoreWithService(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio_save.json")
	b := newFakeBackend(mic1)

	s := NewService(b, NewFileStore(path))
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.TogglePref(mic1.ID))
	require.NoError(t, s.SetDevice(mic1.ID))
	require.NoError(t, s.Stop())

	s = NewService(b, NewFileStore(path))
	require.NoError(t, s.Start(context.Background()))
	st, err := s.GetState()
	require.NoError(t, err)
	assert.Equal(t, mic1.ID, st.Selected)
	assert.True(t, st.Preferred(mic1.ID))
	require.NoError(t, s.Stop())
}

type bareStore struct{}

func (bareStore) Load() (SaveState, error) { return SaveState{}, nil }
func (bareStore) Save(SaveState) error     { return nil }

func TestStartWithoutSavedPrefs(t *testing.T) {
	s := startService(t, newFakeBackend(mic1), bareStore{})

	require.NoError(t, s.TogglePref(mic1.ID))
	st, err := s.GetState()
	require.NoError(t, err)
	assert.True(t, st.Preferred(mic1.ID))
}

func TestPostDropsWhenFull(t *testing.T) {
	events := make(chan Event, eventBuffer)
	for i := range eventBuffer {
		require.True(t, post(events, Event{Kind: MuteChanged, DeviceID: mic1.ID, Muted: i%2 == 0}))
	}

	assert.False(t, post(events, Event{Kind: DevicesChanged}))
	assert.Len(t, events, eventBuffer)

	first := <-events
	assert.Equal(t, MuteChanged, first.Kind)
	assert.True(t, post(events, Event{Kind: DevicesChanged}))
}
