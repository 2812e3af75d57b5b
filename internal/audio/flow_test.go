package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/willywotz/micswitch/internal/coreaudio"
)

func TestDefaultChangeMatters(t *testing.T) {
	tests := []struct {
		watched, flow coreaudio.DataFlow
		role          coreaudio.Role
		want          bool
	}{
		{coreaudio.Capture, coreaudio.Capture, coreaudio.Communications, true},
		{coreaudio.Capture, coreaudio.Render, coreaudio.Communications, false},
		{coreaudio.Capture, coreaudio.Capture, coreaudio.Console, false},
		{coreaudio.Render, coreaudio.Render, coreaudio.Communications, true},
		{coreaudio.AllFlows, coreaudio.Render, coreaudio.Communications, true},
		{coreaudio.AllFlows, coreaudio.Capture, coreaudio.Communications, true},
		{coreaudio.AllFlows, coreaudio.Capture, coreaudio.Multimedia, false},
	}
	for _, tt := range tests {
		got := defaultChangeMatters(tt.watched, tt.flow, tt.role)
		assert.Equal(t, tt.want, got, "watched=%s flow=%s role=%s", tt.watched, tt.flow, tt.role)
	}
}

func TestDefaultFlow(t *testing.T) {
	assert.Equal(t, coreaudio.Capture, defaultFlow(coreaudio.AllFlows))
	assert.Equal(t, coreaudio.Render, defaultFlow(coreaudio.Render))
	assert.Equal(t, coreaudio.Capture, defaultFlow(coreaudio.Capture))
}
