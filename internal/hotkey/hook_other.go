//go:build !windows

package hotkey

type unsupportedSource struct{}

func newHookSource() source { return unsupportedSource{} }

func (unsupportedSource) Open() (<-chan KeyEvent, error) { return nil, ErrUnsupported }

func (unsupportedSource) Close() error { return nil }
