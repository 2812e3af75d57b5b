package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willywotz/micswitch/internal/audio"
)

func TestParsePercent(t *testing.T) {
	tests := []struct {
		in   string
		want float32
		ok   bool
	}{
		{"100", 1, true},
		{"50%", 0.5, true},
		{" 0 ", 0, true},
		{"12.5", 0.125, true},
		{"101", 0, false},
		{"-1", 0, false},
		{"loud", 0, false},
	}
	for _, tt := range tests {
		got, err := parsePercent(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-6, tt.in)
	}
}

func TestPrintEndpoints(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printEndpoints(&buf, []endpointInfo{
		{ID: "id-1", Name: "Headset", State: "active", Default: true, HasVolume: true, Muted: true, Level: 0.75},
		{ID: "id-2", Name: "Webcam", State: "unplugged"},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"NAME", "STATE", "DEFAULT", "MUTED", "LEVEL", "ID"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"Headset", "active", "*", "true", "75%", "id-1"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"Webcam", "unplugged", "-", "-", "id-2"}, strings.Fields(lines[2]))
}

func TestPrintState(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printState(&buf, audio.State{}))
	assert.Equal(t, "No device selected\nno preferred devices\n", buf.String())

	buf.Reset()
	st := audio.State{
		SaveState: audio.SaveState{
			Prefs:    map[string]audio.DeviceState{"b": {ID: "b", Name: "Webcam"}, "a": {ID: "a", Name: "Headset"}},
			Selected: "a",
		},
		Devices: map[string]audio.DeviceState{"a": {ID: "a", Name: "Headset"}},
	}
	require.NoError(t, printState(&buf, st))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Headset: live", lines[0])
	assert.Equal(t, []string{"Headset", "true", "a"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"Webcam", "false", "b"}, strings.Fields(lines[3]))
}

func TestCommandTree(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"devices", "watch", "status", "mute", "unmute", "toggle", "select", "pref", "level", "autostart"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	for _, name := range []string{"debug", "flow", "config-dir"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}

	cmd, _, err := root.Find([]string{"autostart", "status"})
	require.NoError(t, err)
	assert.Equal(t, "status", cmd.Name())
}

func TestArgsValidation(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"--config-dir", t.TempDir(), "select"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}
