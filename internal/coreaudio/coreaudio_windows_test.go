//go:build windows

package coreaudio

import (
	"testing"
	"unsafe"

	"github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openEnumerator(t *testing.T) *Enumerator {
	t.Helper()
	apt, err := EnterMTA()
	require.NoError(t, err)
	t.Cleanup(apt.Close)

	enum, err := NewEnumerator()
	if err != nil {
		t.Skipf("no audio service: %v", err)
	}
	t.Cleanup(enum.Release)
	return enum
}

func TestEnumerateCaptureEndpoints(t *testing.T) {
	enum := openEnumerator(t)

	coll, err := enum.EnumAudioEndpoints(Capture, StateActive)
	require.NoError(t, err)
	defer coll.Release()

	count, err := coll.Count()
	require.NoError(t, err)
	if count == 0 {
		t.Skip("no active capture endpoint")
	}

	dev, err := coll.Item(0)
	require.NoError(t, err)
	defer dev.Release()

	id, err := dev.ID()
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	state, err := dev.State()
	require.NoError(t, err)
	assert.Equal(t, StateActive, state)

	name, err := dev.FriendlyName()
	require.NoError(t, err)
	assert.NotEmpty(t, name)

	same, err := enum.Device(id)
	require.NoError(t, err)
	defer same.Release()
	sameID, err := same.ID()
	require.NoError(t, err)
	assert.Equal(t, id, sameID)
}

func TestItemOutOfRangeKeepsResultCode(t *testing.T) {
	enum := openEnumerator(t)

	coll, err := enum.EnumAudioEndpoints(Capture, StateActive)
	require.NoError(t, err)
	defer coll.Release()

	count, err := coll.Count()
	require.NoError(t, err)

	_, err = coll.Item(count + 10)
	require.Error(t, err)
	assert.Equal(t, E_INVALIDARG, HResultOf(err))
}

func TestRegisterNotificationClientLifetime(t *testing.T) {
	enum := openEnumerator(t)
	before := liveCount()

	c, err := enum.RegisterNotificationClient(NotificationHandler{})
	require.NoError(t, err)
	assert.Equal(t, before+1, liveCount())

	require.NoError(t, enum.UnregisterNotificationClient(c))
	assert.Equal(t, before, liveCount())
	assert.Equal(t, int32(0), c.refCount())
}

func TestEndpointVolumeRoundTrip(t *testing.T) {
	enum := openEnumerator(t)

	coll, err := enum.EnumAudioEndpoints(Capture, StateActive)
	require.NoError(t, err)
	defer coll.Release()
	count, err := coll.Count()
	require.NoError(t, err)
	if count == 0 {
		t.Skip("no active capture endpoint")
	}

	dev, err := coll.Item(0)
	require.NoError(t, err)
	defer dev.Release()

	vol, err := dev.ActivateEndpointVolume()
	require.NoError(t, err)
	defer vol.Release()

	muted, err := vol.Mute()
	require.NoError(t, err)
	t.Cleanup(func() { _ = vol.SetMute(muted, nil) })

	for _, want := range []bool{!muted, muted, !muted} {
		require.NoError(t, vol.SetMute(want, nil))
		got, err := vol.Mute()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	level, err := vol.MasterLevel()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, level, float32(0))
	assert.LessOrEqual(t, level, float32(1))
	assert.Equal(t, E_INVALIDARG, HResultOf(vol.SetMasterLevel(2, nil)))

	cb, err := vol.RegisterControlChangeNotify(func(VolumeNotification) error { return nil })
	require.NoError(t, err)
	require.NoError(t, vol.UnregisterControlChangeNotify(cb))
}

type testPropVariant struct {
	vt   uint16
	_    [3]uint16
	val  *uint16
	tail uintptr
}

func TestPropVariantString(t *testing.T) {
	name, err := windows.UTF16PtrFromString("Headset Microphone")
	require.NoError(t, err)

	pv := testPropVariant{vt: uint16(ole.VT_LPWSTR), val: name}
	assert.Equal(t, "Headset Microphone", propVariantString(unsafe.Pointer(&pv)))
	assert.Equal(t, name, pv.val, "the buffer stays owned by the variant")

	pv.vt = uint16(ole.VT_EMPTY)
	assert.Empty(t, propVariantString(unsafe.Pointer(&pv)))

	pv = testPropVariant{vt: uint16(ole.VT_LPWSTR)}
	assert.Empty(t, propVariantString(unsafe.Pointer(&pv)))
}

func TestFriendlyNameRepeatedReads(t *testing.T) {
	enum := openEnumerator(t)

	coll, err := enum.EnumAudioEndpoints(Capture, StateActive)
	require.NoError(t, err)
	defer coll.Release()
	count, err := coll.Count()
	require.NoError(t, err)
	if count == 0 {
		t.Skip("no active capture endpoint")
	}

	dev, err := coll.Item(0)
	require.NoError(t, err)
	defer dev.Release()

	first, err := dev.FriendlyName()
	require.NoError(t, err)
	for range 200 {
		name, err := dev.FriendlyName()
		require.NoError(t, err)
		require.Equal(t, first, name)
	}
}
