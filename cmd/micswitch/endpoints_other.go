//go:build !windows

package main

import (
	"context"
	"io"

	"github.com/willywotz/micswitch/internal/audio"
	"github.com/willywotz/micswitch/internal/coreaudio"
)

func listEndpoints(coreaudio.DataFlow) ([]endpointInfo, error) {
	return nil, audio.ErrUnsupported
}

func setEndpointMute(coreaudio.DataFlow, string, bool) error {
	return audio.ErrUnsupported
}

func setEndpointLevel(coreaudio.DataFlow, string, float32) error {
	return audio.ErrUnsupported
}

func watchEndpoints(context.Context, coreaudio.DataFlow, io.Writer) error {
	return audio.ErrUnsupported
}
