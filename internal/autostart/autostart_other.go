//go:build !windows

package autostart

func Enable(args ...string) error { return ErrUnsupported }

func Disable() error { return ErrUnsupported }

func Query() (Status, error) { return Status{}, ErrUnsupported }
