// Package logging sets up the process wide slog handler and hands out
// module-scoped loggers.
//
// Loggers returned by Module stay valid across Setup calls: they write
// through a handler that forwards to whatever Setup installed last.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

var ErrLogFile = errors.New("log file creation")

// Options configures Setup.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string
	// File, when set, receives a copy of everything written to Console. It is
	// rotated once it grows past MaxSizeMB.
	File string
	// MaxSizeMB defaults to 10, MaxBackups to 3.
	MaxSizeMB  int
	MaxBackups int
	// Console defaults to os.Stderr.
	Console io.Writer
}

var (
	current atomic.Pointer[slog.Handler]
	level   = new(slog.LevelVar)
)

func init() {
	h := slog.Handler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	current.Store(&h)
}

// Setup installs the handler described by opts. The returned closer releases
// the log file, if any.
func Setup(opts Options) (io.Closer, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	level.Set(lvl)

	out := opts.Console
	if out == nil {
		out = os.Stderr
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		f := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     28,
		}
		if f.MaxSize <= 0 {
			f.MaxSize = 10
		}
		if f.MaxBackups <= 0 {
			f.MaxBackups = 3
		}
		// lumberjack opens lazily, so the separator doubles as the open check.
		if _, err := f.Write([]byte("\n------------------------------------------------\n\n")); err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %w", ErrLogFile, err)
		}
		out = io.MultiWriter(out, f)
		closer = f
	}

	h := slog.Handler(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Value = slog.StringValue(a.Value.Time().Format(time.DateTime))
			}
			return a
		},
	}))
	current.Store(&h)
	return closer, nil
}

// ParseLevel maps a level name to a slog.Level; empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Module returns a logger tagged with module=name.
func Module(name string) *slog.Logger {
	return slog.New(&forwarder{}).With("module", name)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// forwarder replays the attributes and groups accumulated on a logger onto
// the handler installed at the time of each record.
type forwarder struct {
	ops []func(slog.Handler) slog.Handler
}

func (f *forwarder) target() slog.Handler {
	h := *current.Load()
	for _, op := range f.ops {
		h = op(h)
	}
	return h
}

func (f *forwarder) Enabled(ctx context.Context, l slog.Level) bool {
	return (*current.Load()).Enabled(ctx, l)
}

func (f *forwarder) Handle(ctx context.Context, r slog.Record) error {
	return f.target().Handle(ctx, r)
}

func (f *forwarder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.with(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *forwarder) WithGroup(name string) slog.Handler {
	return f.with(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *forwarder) with(op func(slog.Handler) slog.Handler) *forwarder {
	ops := make([]func(slog.Handler) slog.Handler, len(f.ops), len(f.ops)+1)
	copy(ops, f.ops)
	return &forwarder{ops: append(ops, op)}
}
