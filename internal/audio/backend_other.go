//go:build !windows

package audio

import "github.com/willywotz/micswitch/internal/coreaudio"

func NewBackend(flow coreaudio.DataFlow) (Backend, error) {
	return nil, ErrUnsupported
}
