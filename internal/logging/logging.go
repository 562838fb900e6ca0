// SPDX-License-Identifier: MPL-2.0

// Package logging builds the structured loggers used across handlerpack.
//
// Library packages accept a *slog.Logger; this package produces one backed by
// a charmbracelet/log handler so terminal output is styled while records stay
// structured. AtLeast clamps an existing logger without touching its handler,
// which is how builds silence debug records unless debugging was requested.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// FormatText renders human-readable, styled lines.
	FormatText Format = "text"
	// FormatJSON renders one JSON object per record.
	FormatJSON Format = "json"
	// FormatLogfmt renders logfmt key=value lines.
	FormatLogfmt Format = "logfmt"

	prefix = "handlerpack"
)

var (
	// ErrInvalidLevel is the sentinel error wrapped by InvalidLevelError.
	ErrInvalidLevel = errors.New("invalid log level")
	// ErrInvalidFormat is the sentinel error wrapped by InvalidFormatError.
	ErrInvalidFormat = errors.New("invalid log format")
)

type (
	// Format selects the log line encoding.
	Format string

	// Options configures New.
	Options struct {
		// Level is one of debug, info, warn, error. Empty means info.
		Level string
		// Format is the line encoding. Empty means text.
		Format Format
		// Timestamps adds a time field to every record.
		Timestamps bool
	}

	// InvalidLevelError is returned when a level name is not recognized.
	InvalidLevelError struct {
		Value string
	}

	// InvalidFormatError is returned when a Format value is not recognized.
	InvalidFormatError struct {
		Value Format
	}

	// levelHandler drops records below a minimum level before delegating.
	levelHandler struct {
		level   slog.Leveler
		handler slog.Handler
	}
)

// New returns a logger writing to w.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	formatter := log.TextFormatter
	switch opts.Format {
	case "", FormatText:
	case FormatJSON:
		formatter = log.JSONFormatter
	case FormatLogfmt:
		formatter = log.LogfmtFormatter
	default:
		return nil, &InvalidFormatError{Value: opts.Format}
	}

	handler := log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           log.Level(level),
		Formatter:       formatter,
		ReportTimestamp: opts.Timestamps,
	})
	return slog.New(handler), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel converts a level name into a slog.Level. Empty means info.
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
	default:
		return slog.LevelInfo, &InvalidLevelError{Value: s}
	}
}

// AtLeast returns a logger sharing l's handler that drops records below level.
func AtLeast(l *slog.Logger, level slog.Leveler) *slog.Logger {
	if h, ok := l.Handler().(*levelHandler); ok {
		h = &levelHandler{level: level, handler: h.handler}
		return slog.New(h)
	}
	return slog.New(&levelHandler{level: level, handler: l.Handler()})
}

// Error implements the error interface for InvalidLevelError.
func (e *InvalidLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLevel for errors.Is() compatibility.
func (e *InvalidLevelError) Unwrap() error { return ErrInvalidLevel }

// Error implements the error interface for InvalidFormatError.
func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid log format %q (valid: text, json, logfmt)", e.Value)
}

// Unwrap returns ErrInvalidFormat for errors.Is() compatibility.
func (e *InvalidFormatError) Unwrap() error { return ErrInvalidFormat }

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() && h.handler.Enabled(ctx, level)
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithGroup(name)}
}
