// Package autostart launches the application at user logon through the
// per-user Run key.
package autostart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	runKeyPath = `Software\Microsoft\Windows\CurrentVersion\Run`
	valueName  = "AudioSwitch"
)

var (
	ErrNotEnabled  = errors.New("autostart is not enabled")
	ErrUnsupported = errors.New("autostart is not supported on this platform")
)

// Status describes the Run key entry.
type Status struct {
	Enabled bool
	Command string
	// Current is set when Command starts the running executable.
	Current bool
}

func (s Status) String() string {
	switch {
	case !s.Enabled:
		return "disabled"
	case s.Current:
		return "enabled: " + s.Command
	default:
		return "enabled (other executable): " + s.Command
	}
}

// Command builds a Run key command line. Arguments containing spaces or
// quotes are quoted.
func Command(exe string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(exe))
	for _, a := range args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// executable returns the running binary's path with symlinks resolved.
func executable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}

// isCurrent reports whether cmd launches exe.
func isCurrent(cmd, exe string) bool {
	cmd = strings.TrimSpace(cmd)
	var first string
	if strings.HasPrefix(cmd, `"`) {
		end := strings.Index(cmd[1:], `"`)
		if end < 0 {
			return false
		}
		first = cmd[1 : end+1]
	} else {
		first, _, _ = strings.Cut(cmd, " ")
	}
	return strings.EqualFold(filepath.Clean(first), filepath.Clean(exe))
}
