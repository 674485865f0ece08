package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// ConsoleHandler writes one short line per record:
//
//	15:04:05 WARN  Batch failed, retrying batch=2 attempt=1 kind=service
//
// Attributes added through WithAttrs are formatted once, when added.
type ConsoleHandler struct {
	w     io.Writer
	mu    *sync.Mutex
	opts  slog.HandlerOptions
	color bool

	groups []string
	prefix string // groups joined with "." plus a trailing dot
	pre    []byte // formatted WithAttrs attributes
}

var _ slog.Handler = (*ConsoleHandler)(nil)

func NewConsoleHandler(w io.Writer, opts *slog.HandlerOptions, color bool) *ConsoleHandler {
	h := &ConsoleHandler{w: w, mu: &sync.Mutex{}, color: color}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 128)
	buf = r.Time.AppendFormat(buf, "15:04:05")
	buf = append(buf, ' ')
	buf = h.appendLevel(buf, r.Level)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)
	buf = append(buf, h.pre...)
	r.Attrs(func(a slog.Attr) bool {
		buf = h.appendAttr(buf, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := *h
	c.pre = append([]byte(nil), h.pre...)
	for _, a := range attrs {
		c.pre = c.appendAttr(c.pre, a)
	}
	return &c
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = append(append([]string(nil), h.groups...), name)
	c.prefix = strings.Join(c.groups, ".") + "."
	return &c
}

var levelColors = map[slog.Level]string{
	slog.LevelDebug: "\033[90m",
	slog.LevelInfo:  "\033[32m",
	slog.LevelWarn:  "\033[33m",
	slog.LevelError: "\033[31m",
}

func (h *ConsoleHandler) appendLevel(buf []byte, l slog.Level) []byte {
	label := l.String()
	if h.color {
		buf = append(buf, levelColors[l]...)
		buf = append(buf, label...)
		buf = append(buf, "\033[0m"...)
	} else {
		buf = append(buf, label...)
	}
	for n := len(label); n < 5; n++ {
		buf = append(buf, ' ')
	}
	return buf
}

func (h *ConsoleHandler) appendAttr(buf []byte, a slog.Attr) []byte {
	if h.opts.ReplaceAttr != nil && a.Value.Kind() != slog.KindGroup {
		a = h.opts.ReplaceAttr(h.groups, a)
	}
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := *h
		if a.Key != "" {
			inner.groups = append(append([]string(nil), h.groups...), a.Key)
			inner.prefix = strings.Join(inner.groups, ".") + "."
		}
		for _, ga := range a.Value.Group() {
			buf = inner.appendAttr(buf, ga)
		}
		return buf
	}

	buf = append(buf, ' ')
	if h.color {
		buf = append(buf, "\033[90m"...)
	}
	buf = append(buf, h.prefix...)
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	if h.color {
		buf = append(buf, "\033[0m"...)
	}
	return appendValue(buf, a.Value.String())
}

// appendValue quotes values that would otherwise split the line into
// ambiguous key=value pairs.
func appendValue(buf []byte, s string) []byte {
	if s == "" || strings.ContainsAny(s, " =\"\t\n") {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

// fanout sends each record to every handler enabled for its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
