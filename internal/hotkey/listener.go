package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/willywotz/micswitch/internal/logging"
)

var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

// source delivers raw key events for as long as it is open.
type source interface {
	Open() (<-chan KeyEvent, error)
	Close() error
}

type registration struct {
	cfg  Config
	src  source
	stop chan struct{}
	done chan struct{}
}

// Listener owns at most one registered hotkey at a time.
type Listener struct {
	mu        sync.Mutex
	newSource func() source
	cur       *registration
	log       *slog.Logger
}

func NewListener() *Listener {
	return newListener(newHookSource)
}

func newListener(newSource func() source) *Listener {
	return &Listener{
		newSource: newSource,
		log:       logging.Module("hotkey"),
	}
}

// Register replaces the current hotkey with cfg and calls fn on every press.
// A disabled cfg only removes the current one.
func (l *Listener) Register(cfg Config, fn func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.unregisterLocked(); err != nil {
		return err
	}
	if !cfg.Enabled() {
		return nil
	}

	src := l.newSource()
	events, err := src.Open()
	if err != nil {
		return fmt.Errorf("hotkey %s: %w", cfg, err)
	}

	reg := &registration{
		cfg:  cfg,
		src:  src,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(reg.done)
		m := NewMatcher(cfg)
		for {
			select {
			case <-reg.stop:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if m.Feed(ev) {
					l.log.Debug("hotkey pressed", "hotkey", cfg.String())
					fn()
				}
			}
		}
	}()

	l.cur = reg
	l.log.Info("hotkey registered", "hotkey", cfg.String())
	return nil
}

// Unregister removes the current hotkey, if any.
func (l *Listener) Unregister() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unregisterLocked()
}

func (l *Listener) unregisterLocked() error {
	if l.cur == nil {
		return nil
	}
	reg := l.cur
	l.cur = nil

	close(reg.stop)
	<-reg.done
	if err := reg.src.Close(); err != nil {
		return fmt.Errorf("failed to unregister hotkey: %w", err)
	}
	l.log.Info("hotkey unregistered", "hotkey", reg.cfg.String())
	return nil
}

// Config returns the registered combination, disabled when none.
func (l *Listener) Config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur == nil {
		return Config{}
	}
	return l.cur.cfg
}
