// Package log provides kmonitor's structured logging output.
package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"
)

var (
	// DefaultLogger returns the default, global logger.
	DefaultLogger = func() *Logger { return NewFormattedLogger(os.Stderr) }

	// SetDefault overrides the default logger.
	SetDefault = slog.SetDefault

	// MinLevel controls the minimum severity written; it can be changed at
	// runtime by whatever owns the --verbose flag.
	MinLevel = &slog.LevelVar{}
)

// NewFormattedLogger returns a logger that writes the fixed-width, field-
// per-line format Handle renders below.
func NewFormattedLogger(out io.Writer) *Logger {
	return slog.New(NewHandler(out))
}

// Handler implements slog.Handler with a terse, line-oriented format
// suited to a serial console transcript interleaved with monitor output.
type Handler struct {
	mut *sync.Mutex
	out io.Writer

	opts  *slog.HandlerOptions
	group string
	attrs []Attr
}

var handlerOptions = &slog.HandlerOptions{
	AddSource: true,
	Level:     MinLevel,
}

// NewHandler builds a Handler writing to out.
func NewHandler(out io.Writer) *Handler {
	return &Handler{out: out, mut: new(sync.Mutex), opts: handlerOptions}
}

// Enabled reports whether level passes the configured minimum.
func (h *Handler) Enabled(_ context.Context, level Level) bool {
	return level >= h.opts.Level.Level()
}

// Handle formats and writes a single log record.
func (h *Handler) Handle(_ context.Context, rec slog.Record) error {
	buf := bytes.NewBuffer(make([]byte, 0, 256))

	if !rec.Time.IsZero() {
		fmt.Fprintf(buf, "%8s %s\n", "time", rec.Time.Format(time.RFC3339Nano))
	}
	fmt.Fprintf(buf, "%8s %s\n", "level", rec.Level.String())

	if h.opts.AddSource && rec.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{rec.PC})
		f, _ := frames.Next()
		_, file := path.Split(f.File)
		fmt.Fprintf(buf, "%8s %s:%d\n", "source", file, f.Line)
	}

	fmt.Fprintf(buf, "%8s %s\n", "msg", rec.Message)

	for _, a := range h.attrs {
		h.appendAttr(buf, a)
	}
	rec.Attrs(func(a Attr) bool {
		h.appendAttr(buf, a)
		return true
	})
	fmt.Fprintln(buf)

	h.mut.Lock()
	defer h.mut.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

func (h *Handler) appendAttr(out io.Writer, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(Attr{}) {
		return
	}
	fmt.Fprintf(out, "%8s %v\n", strings.ToUpper(a.Key), a.Value.Any())
}

// WithGroup returns a derived handler scoped to the given group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	attrs := make([]Attr, len(h.attrs))
	copy(attrs, h.attrs)
	return &Handler{mut: h.mut, out: h.out, opts: h.opts, attrs: attrs, group: name}
}

// WithAttrs returns a derived handler carrying attrs in addition to h's own.
func (h *Handler) WithAttrs(attrs []Attr) slog.Handler {
	as := make([]Attr, 0, len(h.attrs)+len(attrs))
	as = append(as, h.attrs...)
	as = append(as, attrs...)
	return &Handler{out: h.out, mut: h.mut, opts: h.opts, attrs: as}
}

// Type aliases from log/slog, to reduce symbol stutter at call sites.
type (
	Attr   = slog.Attr
	Level  = slog.Level
	Logger = slog.Logger
)

const (
	Debug = slog.LevelDebug
	Info  = slog.LevelInfo
	Warn  = slog.LevelWarn
	Error = slog.LevelError
)
