package ui

import (
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	overlayTitle  = "AudioSwitch Overlay"
	flashDuration = 1200 * time.Millisecond
)

var (
	overlayRest  = color.NRGBA{R: 27, G: 38, B: 54, A: 0x00}
	overlayFlash = color.NRGBA{R: 27, G: 38, B: 54, A: 0xff}
)

// overlayButton is a button that also reacts to right clicks.
type overlayButton struct {
	widget.Button
	onSecondary func()
}

func newOverlayButton(tapped, secondary func()) *overlayButton {
	b := &overlayButton{onSecondary: secondary}
	b.ExtendBaseWidget(b)
	b.OnTapped = tapped
	b.Importance = widget.LowImportance
	b.SetIcon(theme.VolumeUpIcon())
	return b
}

func (b *overlayButton) TappedSecondary(*fyne.PointEvent) {
	if b.onSecondary != nil {
		b.onSecondary()
	}
}

// overlay is the small frameless mute button. Its background lights up for a
// moment whenever the shown mute state changes.
type overlay struct {
	win fyne.Window
	bg  *canvas.Rectangle
	btn *overlayButton

	seen  bool
	muted bool
	gen   int
	after func(time.Duration, func()) *time.Timer
}

// newOverlayWindow returns a frameless window where the driver supports one.
func newOverlayWindow(a fyne.App) fyne.Window {
	if drv, ok := a.Driver().(desktop.Driver); ok {
		w := drv.CreateSplashWindow()
		w.SetTitle(overlayTitle)
		return w
	}
	w := a.NewWindow(overlayTitle)
	w.SetFixedSize(true)
	return w
}

func newOverlay(w fyne.Window, size fyne.Size, toggle, open func()) *overlay {
	o := &overlay{
		win:   w,
		bg:    canvas.NewRectangle(overlayRest),
		after: time.AfterFunc,
	}
	o.btn = newOverlayButton(toggle, open)
	w.SetContent(container.NewStack(o.bg, container.NewPadded(o.btn)))
	if size.Width > 0 && size.Height > 0 {
		w.Resize(size)
	}
	return o
}

// apply shows muted. It runs on the fyne thread.
func (o *overlay) apply(muted bool) {
	if o.seen && o.muted == muted {
		return
	}
	o.seen, o.muted = true, muted

	if muted {
		o.btn.SetIcon(theme.VolumeMuteIcon())
	} else {
		o.btn.SetIcon(theme.VolumeUpIcon())
	}
	o.flash()
}

func (o *overlay) flash() {
	o.gen++
	gen := o.gen
	o.bg.FillColor = overlayFlash
	o.bg.Refresh()
	o.after(flashDuration, func() {
		fyne.Do(func() { o.fade(gen) })
	})
}

// fade ends the flash started as gen unless a newer one replaced it.
func (o *overlay) fade(gen int) {
	if gen != o.gen {
		return
	}
	o.bg.FillColor = overlayRest
	o.bg.Refresh()
}

func (o *overlay) size() fyne.Size {
	return o.win.Canvas().Size()
}
