// Package logger owns the process-wide slog logger used by every pagetrans
// package. Records pass through Redact before any handler formats them, so
// page text and credentials never reach the console or the log file.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	global     *slog.Logger
	isTerminal = term.IsTerminal
)

func init() {
	Init(Options{Level: LevelInfo})
}

// Options configures Init.
type Options struct {
	Level slog.Level
	// LogFile receives every record as one JSON object per line.
	LogFile io.Writer
	// Console replaces stderr. Colour is never used for a replaced console.
	Console io.Writer
}

// Init replaces the global logger and slog's default.
func Init(o Options) {
	hopts := &slog.HandlerOptions{Level: o.Level, ReplaceAttr: Redact}

	console, color := o.Console, false
	if console == nil {
		console = os.Stderr
		// A log file means output is being collected; keep stderr plain too.
		color = o.LogFile == nil && isTerminal(int(os.Stderr.Fd()))
	}

	var h slog.Handler = NewConsoleHandler(console, hopts, color)
	if o.LogFile != nil {
		h = fanout{h, slog.NewJSONHandler(o.LogFile, hopts)}
	}
	global = slog.New(h)
	slog.SetDefault(global)
}

// ParseLevel maps the --log-level flag to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
	}
}

// With returns a logger that adds args to every record, e.g. a cycle ID.
func With(args ...any) *slog.Logger { return global.With(args...) }

func Debug(msg string, args ...any) { global.Debug(msg, args...) }
func Info(msg string, args ...any)  { global.Info(msg, args...) }
func Warn(msg string, args ...any)  { global.Warn(msg, args...) }
func Error(msg string, args ...any) { global.Error(msg, args...) }
