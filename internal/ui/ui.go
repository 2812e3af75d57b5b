// Package ui is the fyne front end of the audio service.
package ui

import (
	"context"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/willywotz/micswitch/internal/audio"
	"github.com/willywotz/micswitch/internal/config"
	"github.com/willywotz/micswitch/internal/hotkey"
	"github.com/willywotz/micswitch/internal/logging"
)

const (
	appID = "com.nixpare.audioswitch"
	title = "AudioSwitch Dashboard"
)

type Options struct {
	// Minimized starts with only the tray icon when the platform has one.
	Minimized bool
}

type Dashboard struct {
	svc      *audio.Service
	listener *hotkey.Listener
	cfg      *config.Config
	log      *slog.Logger

	mu       sync.Mutex
	settings config.Settings
	rows     []Row

	app       fyne.App
	win       fyne.Window
	desk      desktop.App
	trayMenu  *fyne.Menu
	trayMute  *fyne.MenuItem
	status    *widget.Label
	list      *widget.List
	muteBtn   *widget.Button
	hotkeyBtn *widget.Button
	capturing *capture
	overlay   *overlay
}

func New(svc *audio.Service, listener *hotkey.Listener, cfg *config.Config, settings config.Settings) *Dashboard {
	return &Dashboard{
		svc:      svc,
		listener: listener,
		cfg:      cfg,
		settings: settings,
		log:      logging.Module("ui"),
	}
}

// Run shows the dashboard and blocks until the user quits or ctx is done.
func (d *Dashboard) Run(ctx context.Context, opts Options) error {
	d.app = app.NewWithID(appID)
	d.build()
	d.buildTray()
	d.buildOverlay()

	updates, cancel := d.svc.Subscribe()
	defer cancel()

	if st, err := d.svc.GetState(); err == nil {
		d.apply(st)
	}

	go func() {
		for {
			select {
			case st, ok := <-updates:
				if !ok {
					return
				}
				fyne.Do(func() { d.apply(st) })
			case <-ctx.Done():
				fyne.Do(d.app.Quit)
				return
			}
		}
	}()

	d.registerHotkey()

	if d.overlay != nil {
		d.overlay.win.Show()
	}
	if opts.Minimized && d.desk != nil {
		d.app.Run()
	} else {
		d.win.ShowAndRun()
	}

	d.saveWindow()
	if err := d.listener.Unregister(); err != nil {
		d.log.Warn("hotkey unregister failed", "error", err)
	}
	return nil
}

func (d *Dashboard) build() {
	d.win = d.app.NewWindow(title)
	d.win.SetMaster()

	d.status = widget.NewLabel("")
	d.status.TextStyle = fyne.TextStyle{Bold: true}

	d.muteBtn = widget.NewButtonWithIcon("Mute", theme.VolumeMuteIcon(), func() {
		d.report(d.svc.ToggleSelected())
	})

	d.hotkeyBtn = widget.NewButton("", d.startCapture)

	d.list = widget.NewList(
		func() int {
			d.mu.Lock()
			defer d.mu.Unlock()
			return len(d.rows)
		},
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil,
				widget.NewCheck("", nil),
				widget.NewButton("Select", nil),
				widget.NewLabel(""),
			)
		},
		d.updateItem,
	)

	top := container.NewVBox(
		d.status,
		container.NewHBox(d.muteBtn, d.hotkeyBtn),
		widget.NewSeparator(),
	)
	d.win.SetContent(container.NewBorder(top, nil, nil, nil, d.list))

	d.mu.Lock()
	size := fyne.NewSize(d.settings.Window.Width, d.settings.Window.Height)
	d.mu.Unlock()
	if size.Width > 0 && size.Height > 0 {
		d.win.Resize(size)
	}

	if c, ok := d.win.Canvas().(desktop.Canvas); ok {
		c.SetOnKeyDown(func(ev *fyne.KeyEvent) { d.onKey(ev.Name, true) })
		c.SetOnKeyUp(func(ev *fyne.KeyEvent) { d.onKey(ev.Name, false) })
	}

	d.win.SetCloseIntercept(func() {
		d.saveWindow()
		if d.desk != nil {
			d.win.Hide()
			return
		}
		d.app.Quit()
	})
}

func (d *Dashboard) buildTray() {
	desk, ok := d.app.(desktop.App)
	if !ok {
		return
	}
	d.desk = desk

	d.trayMute = fyne.NewMenuItem("Toggle mute", func() {
		if err := d.svc.ToggleSelected(); err != nil {
			d.log.Warn("toggle from tray failed", "error", err)
		}
	})
	d.trayMenu = fyne.NewMenu("Audio Switch",
		d.trayMute,
		fyne.NewMenuItem("Show", d.showDashboard),
	)
	desk.SetSystemTrayMenu(d.trayMenu)
	desk.SetSystemTrayIcon(theme.VolumeUpIcon())
}

func (d *Dashboard) buildOverlay() {
	d.mu.Lock()
	st := d.settings.Overlay
	d.mu.Unlock()
	if !st.Enabled {
		return
	}

	w := newOverlayWindow(d.app)
	d.overlay = newOverlay(w, fyne.NewSize(st.Width, st.Height),
		func() { d.report(d.svc.ToggleSelected()) },
		d.showDashboard,
	)
	w.SetCloseIntercept(w.Hide)
}

func (d *Dashboard) showDashboard() {
	d.win.Show()
	d.win.RequestFocus()
}

func (d *Dashboard) updateItem(id widget.ListItemID, obj fyne.CanvasObject) {
	d.mu.Lock()
	if id >= len(d.rows) {
		d.mu.Unlock()
		return
	}
	row := d.rows[id]
	d.mu.Unlock()

	for _, o := range obj.(*fyne.Container).Objects {
		switch w := o.(type) {
		case *widget.Label:
			w.SetText(row.Label())
			w.TextStyle = fyne.TextStyle{Bold: row.Selected}
			w.Refresh()
		case *widget.Check:
			w.OnChanged = nil
			w.SetChecked(row.Preferred)
			w.OnChanged = func(bool) { d.report(d.svc.TogglePref(row.ID)) }
			if !row.Present && !row.Preferred {
				w.Disable()
			} else {
				w.Enable()
			}
		case *widget.Button:
			w.OnTapped = func() { d.report(d.svc.SetDevice(row.ID)) }
			if row.Selected {
				w.SetText("Selected")
				w.Disable()
			} else {
				w.SetText("Select")
				w.Enable()
			}
		}
	}
}

// apply renders st. It runs on the fyne thread.
func (d *Dashboard) apply(st audio.State) {
	d.mu.Lock()
	d.rows = Rows(st)
	d.mu.Unlock()

	status := Status(st)
	d.status.SetText(status)

	canMute := st.Present(st.Selected)
	switch {
	case canMute && st.Muted:
		d.muteBtn.SetText("Unmute")
		d.muteBtn.SetIcon(theme.VolumeUpIcon())
	default:
		d.muteBtn.SetText("Mute")
		d.muteBtn.SetIcon(theme.VolumeMuteIcon())
	}
	if canMute {
		d.muteBtn.Enable()
	} else {
		d.muteBtn.Disable()
	}

	d.refreshHotkeyButton()
	d.list.Refresh()

	if d.overlay != nil {
		d.overlay.apply(canMute && st.Muted)
	}

	if d.desk != nil {
		d.trayMute.Label = "Toggle mute (" + status + ")"
		d.trayMute.Disabled = !canMute
		d.trayMenu.Refresh()
		if canMute && st.Muted {
			d.desk.SetSystemTrayIcon(theme.VolumeMuteIcon())
		} else {
			d.desk.SetSystemTrayIcon(theme.VolumeUpIcon())
		}
	}
}

func (d *Dashboard) refreshHotkeyButton() {
	if d.capturing != nil {
		d.hotkeyBtn.SetText("Press a key (Esc cancels, Backspace clears)")
		return
	}
	d.mu.Lock()
	hk, err := d.settings.HotkeyConfig()
	d.mu.Unlock()
	switch {
	case err != nil:
		d.hotkeyBtn.SetText("Hotkey: invalid")
	case !hk.Enabled():
		d.hotkeyBtn.SetText("Set hotkey")
	default:
		d.hotkeyBtn.SetText("Hotkey: " + hk.String())
	}
}

func (d *Dashboard) startCapture() {
	if err := d.listener.Unregister(); err != nil {
		d.log.Warn("hotkey unregister failed", "error", err)
	}
	d.capturing = &capture{}
	d.refreshHotkeyButton()
}

func (d *Dashboard) onKey(name fyne.KeyName, down bool) {
	if d.capturing == nil {
		return
	}
	cfg, res := d.capturing.feed(name, down)
	switch res {
	case capturePending:
		return
	case captureDone:
		d.mu.Lock()
		d.settings.SetHotkey(cfg)
		settings := d.settings
		d.mu.Unlock()
		if err := d.cfg.Save(settings); err != nil {
			d.report(err)
		}
	}
	d.capturing = nil
	d.registerHotkey()
	d.refreshHotkeyButton()
}

func (d *Dashboard) registerHotkey() {
	d.mu.Lock()
	hk, err := d.settings.HotkeyConfig()
	d.mu.Unlock()
	if err != nil {
		d.log.Warn("stored hotkey ignored", "error", err)
		return
	}
	err = d.listener.Register(hk, func() {
		if err := d.svc.ToggleSelected(); err != nil {
			d.log.Warn("toggle from hotkey failed", "error", err)
		}
	})
	if err != nil {
		d.log.Error("hotkey registration failed", "hotkey", hk.String(), "error", err)
	}
}

// saveWindow records the dashboard and overlay sizes. fyne has no window
// position API, so only sizes are kept.
func (d *Dashboard) saveWindow() {
	size := d.win.Canvas().Size()
	var osize fyne.Size
	if d.overlay != nil {
		osize = d.overlay.size()
	}
	d.mu.Lock()
	if size.Width > 0 && size.Height > 0 {
		d.settings.Window.Width = size.Width
		d.settings.Window.Height = size.Height
	}
	if osize.Width > 0 && osize.Height > 0 {
		d.settings.Overlay.Width = osize.Width
		d.settings.Overlay.Height = osize.Height
	}
	settings := d.settings
	d.mu.Unlock()

	if err := d.cfg.Save(settings); err != nil {
		d.log.Warn("window size not saved", "error", err)
	}
}

func (d *Dashboard) report(err error) {
	if err == nil {
		return
	}
	d.log.Warn("action failed", "error", err)
	dialog.ShowError(err, d.win)
}
