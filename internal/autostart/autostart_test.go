package autostart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		exe  string
		args []string
		want string
	}{
		{`C:\bin\micswitch.exe`, nil, `C:\bin\micswitch.exe`},
		{`C:\Program Files\micswitch.exe`, nil, `"C:\Program Files\micswitch.exe"`},
		{`C:\bin\micswitch.exe`, []string{"--minimized"}, `C:\bin\micswitch.exe --minimized`},
		{`C:\bin\micswitch.exe`, []string{"--config-dir", `C:\My Config`}, `C:\bin\micswitch.exe --config-dir "C:\My Config"`},
		{`C:\bin\micswitch.exe`, []string{""}, `C:\bin\micswitch.exe ""`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Command(tt.exe, tt.args...))
	}
}

func TestIsCurrent(t *testing.T) {
	assert.True(t, isCurrent(`"C:\Program Files\micswitch.exe" --minimized`, `C:\Program Files\micswitch.exe`))
	assert.True(t, isCurrent(`C:\bin\micswitch.exe --minimized`, `C:\bin\micswitch.exe`))
	assert.True(t, isCurrent(`C:\BIN\MICSWITCH.EXE`, `C:\bin\micswitch.exe`))
	assert.False(t, isCurrent(`C:\other\micswitch.exe`, `C:\bin\micswitch.exe`))
	assert.False(t, isCurrent(`"C:\unterminated`, `C:\unterminated`))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "disabled", Status{}.String())
	assert.Equal(t, "enabled: x", Status{Enabled: true, Command: "x", Current: true}.String())
	assert.Equal(t, "enabled (other executable): x", Status{Enabled: true, Command: "x"}.String())
}
