//go:build windows

package hotkey

import (
	"fmt"

	"github.com/moutend/go-hook/pkg/keyboard"
	"github.com/moutend/go-hook/pkg/types"
)

// hookSource reads a WH_KEYBOARD_LL hook. The hook thread must never wait on
// us, so events are forwarded through a buffer and dropped when it is full.
type hookSource struct {
	raw  chan types.KeyboardEvent
	out  chan KeyEvent
	quit chan struct{}
	done chan struct{}
}

func newHookSource() source {
	return &hookSource{}
}

func (s *hookSource) Open() (<-chan KeyEvent, error) {
	s.raw = make(chan types.KeyboardEvent, 100)
	s.out = make(chan KeyEvent, 100)
	s.quit = make(chan struct{})
	s.done = make(chan struct{})

	if err := keyboard.Install(nil, s.raw); err != nil {
		return nil, fmt.Errorf("keyboard hook install: %w", err)
	}

	go func() {
		defer close(s.done)
		for {
			select {
			case <-s.quit:
				return
			case k := <-s.raw:
				ev := KeyEvent{
					Code: uint16(k.VKCode),
					Down: k.Message == types.WM_KEYDOWN || k.Message == types.WM_SYSKEYDOWN,
				}
				select {
				case s.out <- ev:
				default:
				}
			}
		}
	}()

	return s.out, nil
}

func (s *hookSource) Close() error {
	err := keyboard.Uninstall()
	close(s.quit)
	<-s.done
	if err != nil {
		return fmt.Errorf("keyboard hook uninstall: %w", err)
	}
	return nil
}
