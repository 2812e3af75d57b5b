// Package config locates the user data directory and loads settings.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/willywotz/micswitch/internal/hotkey"
)

const (
	vendorDir  = "Nixpare"
	appDir     = "AudioSwitch"
	configName = "settings"
	configType = "yaml"
	envPrefix  = "MICSWITCH"

	SettingsFile = configName + "." + configType
	SaveFile     = "audio_save.json"
	LogFile      = "app.log"
)

var ErrUserDataDir = errors.New("user data directory unavailable")

type LogSettings struct {
	Level string `mapstructure:"level"`
	File  bool   `mapstructure:"file"`
}

type AudioSettings struct {
	Flow string `mapstructure:"flow"`
}

type HotkeySettings struct {
	Shift bool   `mapstructure:"shift"`
	Ctrl  bool   `mapstructure:"ctrl"`
	Alt   bool   `mapstructure:"alt"`
	Meta  bool   `mapstructure:"meta"`
	Key   string `mapstructure:"key"`
}

type WindowSettings struct {
	Width  float32 `mapstructure:"width"`
	Height float32 `mapstructure:"height"`
}

// OverlaySettings describes the floating mute button.
type OverlaySettings struct {
	Enabled bool    `mapstructure:"enabled"`
	Width   float32 `mapstructure:"width"`
	Height  float32 `mapstructure:"height"`
}

type Settings struct {
	Log     LogSettings     `mapstructure:"log"`
	Audio   AudioSettings   `mapstructure:"audio"`
	Hotkey  HotkeySettings  `mapstructure:"hotkey"`
	Window  WindowSettings  `mapstructure:"window"`
	Overlay OverlaySettings `mapstructure:"overlay"`
}

// HotkeyConfig resolves the stored key name. An empty key is a disabled
// hotkey, not an error.
func (s Settings) HotkeyConfig() (hotkey.Config, error) {
	h := s.Hotkey
	if strings.TrimSpace(h.Key) == "" {
		return hotkey.Config{}, nil
	}
	code, ok := hotkey.CodeForKey(h.Key)
	if !ok {
		return hotkey.Config{}, fmt.Errorf("%w: unknown key %q", hotkey.ErrInvalidHotkey, h.Key)
	}
	return hotkey.Config{
		Shift: h.Shift,
		Ctrl:  h.Ctrl,
		Alt:   h.Alt,
		Meta:  h.Meta,
		Key:   strings.ToUpper(strings.TrimSpace(h.Key)),
		Code:  code,
	}, nil
}

// SetHotkey stores c, or clears the hotkey when c is disabled.
func (s *Settings) SetHotkey(c hotkey.Config) {
	if !c.Enabled() {
		s.Hotkey = HotkeySettings{}
		return
	}
	s.Hotkey = HotkeySettings{
		Shift: c.Shift,
		Ctrl:  c.Ctrl,
		Alt:   c.Alt,
		Meta:  c.Meta,
		Key:   c.Key,
	}
}

// Dir returns the user data directory, creating it if needed. A non-empty
// override replaces the default location under os.UserConfigDir.
func Dir(override string) (string, error) {
	dir := override
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUserDataDir, err)
		}
		dir = filepath.Join(base, vendorDir, appDir)
	}

	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return "", fmt.Errorf("%w: %s is a file", ErrUserDataDir, dir)
		}
		return dir, nil
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("%w: %w", ErrUserDataDir, err)
		}
		return dir, nil
	default:
		return "", fmt.Errorf("%w: %w", ErrUserDataDir, err)
	}
}

// Config wraps the viper instance backing settings.yaml in one directory.
type Config struct {
	dir string
	v   *viper.Viper
}

func New(dir string) *Config {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return &Config{dir: dir, v: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", false)
	v.SetDefault("audio.flow", "capture")
	v.SetDefault("hotkey.shift", false)
	v.SetDefault("hotkey.ctrl", false)
	v.SetDefault("hotkey.alt", false)
	v.SetDefault("hotkey.meta", false)
	v.SetDefault("hotkey.key", "")
	v.SetDefault("window.width", 480)
	v.SetDefault("window.height", 360)
	v.SetDefault("overlay.enabled", true)
	v.SetDefault("overlay.width", 56)
	v.SetDefault("overlay.height", 56)
}

func (c *Config) Dir() string { return c.dir }

func (c *Config) SettingsPath() string { return filepath.Join(c.dir, SettingsFile) }

func (c *Config) SavePath() string { return filepath.Join(c.dir, SaveFile) }

func (c *Config) LogPath() string { return filepath.Join(c.dir, LogFile) }

// BindFlag lets a command line flag override key.
func (c *Config) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: flag not defined", key)
	}
	if err := c.v.BindPFlag(key, flag); err != nil {
		return fmt.Errorf("bind %s: %w", key, err)
	}
	return nil
}

// Load reads settings.yaml, writing one with the defaults when it is missing.
func (c *Config) Load() (Settings, error) {
	var s Settings
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return s, fmt.Errorf("failed to read %s: %w", c.SettingsPath(), err)
		}
		fv := viper.New()
		setDefaults(fv)
		if err := fv.SafeWriteConfigAs(c.SettingsPath()); err != nil {
			return s, fmt.Errorf("failed to create %s: %w", c.SettingsPath(), err)
		}
	}
	if err := c.v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("failed to decode settings: %w", err)
	}
	return s, nil
}

// Save writes the user editable parts of s (hotkey, window and overlay) back
// to disk. Everything else keeps the value the file already has, so
// environment and flag overrides of this run never end up in the file.
func (c *Config) Save(s Settings) error {
	fv, err := c.fileOnly()
	if err != nil {
		return err
	}

	fv.Set("hotkey.shift", s.Hotkey.Shift)
	fv.Set("hotkey.ctrl", s.Hotkey.Ctrl)
	fv.Set("hotkey.alt", s.Hotkey.Alt)
	fv.Set("hotkey.meta", s.Hotkey.Meta)
	fv.Set("hotkey.key", s.Hotkey.Key)
	fv.Set("window.width", s.Window.Width)
	fv.Set("window.height", s.Window.Height)
	fv.Set("overlay.width", s.Overlay.Width)
	fv.Set("overlay.height", s.Overlay.Height)

	if err := fv.WriteConfigAs(c.SettingsPath()); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.SettingsPath(), err)
	}
	return nil
}

// fileOnly returns a viper instance holding the defaults and settings.yaml,
// without environment or flag bindings.
func (c *Config) fileOnly() (*viper.Viper, error) {
	fv := viper.New()
	fv.SetConfigFile(c.SettingsPath())
	fv.SetConfigType(configType)
	setDefaults(fv)

	if _, err := os.Stat(c.SettingsPath()); errors.Is(err, os.ErrNotExist) {
		return fv, nil
	}
	if err := fv.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.SettingsPath(), err)
	}
	return fv, nil
}
