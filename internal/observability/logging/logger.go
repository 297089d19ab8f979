// Package logging provides structured logging utilities using the standard library's log/slog package.
// It offers helper functions for creating loggers with consistent configuration and context propagation.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"opensox-api/internal/handler/http/requestid"
)

// Options configures NewLoggerWithOptions.
type Options struct {
	// Level is one of debug, info, warn, error. Anything else means info.
	Level string
	// Text switches the handler from JSON to human-readable text.
	Text bool
	// File, when set, also writes rotated logs to this path.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Stdout overrides the console sink. Tests pass a buffer.
	Stdout io.Writer
}

// OptionsFromEnv reads LOG_LEVEL, LOG_FORMAT and LOG_FILE.
func OptionsFromEnv() Options {
	return Options{
		Level:      os.Getenv("LOG_LEVEL"),
		Text:       strings.EqualFold(os.Getenv("LOG_FORMAT"), "text"),
		File:       os.Getenv("LOG_FILE"),
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 28,
	}
}

// NewLogger creates a JSON logger configured from the environment.
func NewLogger() *slog.Logger {
	logger, _ := NewLoggerWithOptions(OptionsFromEnv())
	return logger
}

// NewTextLogger creates a logger with human-readable text output.
// This is useful for local development and debugging.
func NewTextLogger() *slog.Logger {
	opts := OptionsFromEnv()
	opts.Text = true
	logger, _ := NewLoggerWithOptions(opts)
	return logger
}

// NewLoggerWithOptions builds a logger and returns the closer for the rotating
// file sink. The closer is a no-op when no file is configured.
func NewLoggerWithOptions(opts Options) (*slog.Logger, io.Closer) {
	level := ParseLevel(opts.Level)

	var out io.Writer = os.Stdout
	if opts.Stdout != nil {
		out = opts.Stdout
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			LocalTime:  true,
		}
		out = io.MultiWriter(out, file)
		closer = file
	}

	handlerOpts := &slog.HandlerOptions{
		Level: level,
		// Add source code location for error and warn levels
		AddSource: level <= slog.LevelWarn,
	}

	var handler slog.Handler
	if opts.Text {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}
	return slog.New(handler), closer
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// WithRequestID returns a new logger that includes the request ID from the context.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		return logger
	}
	return logger.With("request_id", reqID)
}

// WithFields returns a new logger with additional structured fields.
func WithFields(logger *slog.Logger, fields map[string]interface{}) *slog.Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return logger.With(args...)
}

// FromContext retrieves the logger from the context, or returns the default logger if not found.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const loggerContextKey contextKey = "logger"
