//go:build windows

package autostart

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// Enable points the Run key at the running executable with args.
func Enable(args ...string) error {
	exe, err := executable()
	if err != nil {
		return err
	}

	k, _, err := registry.CreateKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open registry key: %w", err)
	}
	defer func() { _ = k.Close() }()

	if err := k.SetStringValue(valueName, Command(exe, args...)); err != nil {
		return fmt.Errorf("failed to set %s: %w", valueName, err)
	}
	return nil
}

// Disable removes the Run key entry.
func Disable() error {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open registry key: %w", err)
	}
	defer func() { _ = k.Close() }()

	if err := k.DeleteValue(valueName); err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return ErrNotEnabled
		}
		return fmt.Errorf("failed to delete %s: %w", valueName, err)
	}
	return nil
}

// Query reads the Run key entry.
func Query() (Status, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return Status{}, nil
		}
		return Status{}, fmt.Errorf("failed to open registry key: %w", err)
	}
	defer func() { _ = k.Close() }()

	cmd, _, err := k.GetStringValue(valueName)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return Status{}, nil
		}
		return Status{}, fmt.Errorf("failed to get %s: %w", valueName, err)
	}

	st := Status{Enabled: true, Command: cmd}
	if exe, err := executable(); err == nil {
		st.Current = isCurrent(cmd, exe)
	}
	return st, nil
}
