package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/willywotz/micswitch/internal/audio"
	"github.com/willywotz/micswitch/internal/config"
	"github.com/willywotz/micswitch/internal/coreaudio"
	"github.com/willywotz/micswitch/internal/hotkey"
	"github.com/willywotz/micswitch/internal/logging"
	"github.com/willywotz/micswitch/internal/ui"
)

// app carries what every command needs after setup.
type app struct {
	configDir string
	debug     bool
	minimized bool

	cfg       *config.Config
	settings  config.Settings
	logCloser io.Closer
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:               "micswitch",
		Short:             "Push-to-mute for Windows capture devices",
		Version:           version(),
		SilenceUsage:      true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.setup,
		RunE:              a.runDashboard,
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&a.debug, "debug", "d", false, "Enable debug output")
	pf.String("flow", "capture", "Endpoint data flow: capture, render or all")
	pf.StringVar(&a.configDir, "config-dir", "", "Settings directory (default: user config dir)")
	root.Flags().BoolVar(&a.minimized, "minimized", false, "Start in the system tray")

	root.AddCommand(
		devicesCommand(a),
		watchCommand(a),
		statusCommand(a),
		muteCommand(a, true),
		muteCommand(a, false),
		toggleCommand(a),
		selectCommand(a),
		prefCommand(a),
		levelCommand(a),
		autostartCommand(),
	)

	cobra.OnFinalize(a.close)
	return root
}

func version() string {
	if buildVersion == "" {
		return "dev"
	}
	return buildVersion
}

// setup resolves the settings directory, loads settings.yaml and installs the
// logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	dir, err := config.Dir(a.configDir)
	if err != nil {
		return err
	}

	a.cfg = config.New(dir)
	if err := a.cfg.BindFlag("audio.flow", cmd.Flags().Lookup("flow")); err != nil {
		return err
	}

	a.settings, err = a.cfg.Load()
	if err != nil {
		return err
	}

	opts := logging.Options{Level: a.settings.Log.Level}
	if a.debug {
		opts.Level = "debug"
	}
	if a.settings.Log.File {
		opts.File = a.cfg.LogPath()
	}
	a.logCloser, err = logging.Setup(opts)
	if err != nil {
		return err
	}

	logging.Module("main").Debug("settings loaded", "dir", dir, "flow", a.settings.Audio.Flow)
	return nil
}

func (a *app) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
}

func (a *app) flow() (coreaudio.DataFlow, error) {
	return coreaudio.ParseDataFlow(a.settings.Audio.Flow)
}

func (a *app) newService() (*audio.Service, error) {
	flow, err := a.flow()
	if err != nil {
		return nil, err
	}
	backend, err := audio.NewBackend(flow)
	if err != nil {
		return nil, err
	}
	return audio.NewService(backend, audio.NewFileStore(a.cfg.SavePath())), nil
}

// withService runs fn against a started service and stops it afterwards, which
// also persists the save data.
func (a *app) withService(ctx context.Context, fn func(*audio.Service) error) (err error) {
	svc, err := a.newService()
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("audio service start: %w", err)
	}
	defer func() {
		err = errors.Join(err, svc.Stop())
	}()
	return fn(svc)
}

func (a *app) runDashboard(cmd *cobra.Command, _ []string) error {
	return a.withService(cmd.Context(), func(svc *audio.Service) error {
		listener := hotkey.NewListener()
		return ui.New(svc, listener, a.cfg, a.settings).Run(cmd.Context(), ui.Options{Minimized: a.minimized})
	})
}
