package ui

import (
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOverlay(t *testing.T, toggle, open func()) (*overlay, *[]func()) {
	t.Helper()
	a := test.NewTempApp(t)

	o := newOverlay(a.NewWindow(overlayTitle), fyne.NewSize(56, 56), toggle, open)
	var pending []func()
	o.after = func(_ time.Duration, f func()) *time.Timer {
		pending = append(pending, f)
		return nil
	}
	return o, &pending
}

func TestOverlayButtons(t *testing.T) {
	var toggles, opens int
	o, _ := newTestOverlay(t, func() { toggles++ }, func() { opens++ })

	test.Tap(o.btn)
	test.TapSecondary(o.btn)
	test.Tap(o.btn)

	assert.Equal(t, 2, toggles)
	assert.Equal(t, 1, opens)
}

func TestOverlayFlashesOnChange(t *testing.T) {
	o, pending := newTestOverlay(t, nil, nil)

	o.apply(false)
	require.Len(t, *pending, 1, "first state flashes")
	assert.Equal(t, overlayFlash, o.bg.FillColor)
	assert.Equal(t, theme.VolumeUpIcon().Name(), o.btn.Icon.Name())

	o.apply(false)
	assert.Len(t, *pending, 1, "same state does not flash")

	o.apply(true)
	require.Len(t, *pending, 2)
	assert.Equal(t, theme.VolumeMuteIcon().Name(), o.btn.Icon.Name())

	// The first timer fires after a newer flash started and changes nothing.
	(*pending)[0]()
	assert.Equal(t, overlayFlash, o.bg.FillColor)

	(*pending)[1]()
	assert.Equal(t, overlayRest, o.bg.FillColor)
}
