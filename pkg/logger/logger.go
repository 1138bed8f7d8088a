// Package logger provides structured logging for slotbot.
//
// It is a thin wrapper over log/slog with leveled output, text or JSON
// formats, and contextual fields.
//
// Example usage:
//
//	log := logger.New(logger.Config{Level: "info", Format: "text"})
//	log.Info("store loaded", "categories", 2)
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging interface used throughout slotbot.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an informational message with optional key-value pairs.
	Info(msg string, keysAndValues ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keysAndValues ...interface{})

	// With returns a logger that includes the given fields on every record.
	With(keysAndValues ...interface{}) Logger
}

// Config contains logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string

	// Output is the destination (stdout, stderr, or a file path).
	Output string

	// Format is the output format (text, json).
	Format string
}

type slogLogger struct {
	s     *slog.Logger
	level *slog.LevelVar
}

// New creates a logger from the given configuration.
//
// Invalid settings fall back to info level, stderr, text format rather
// than failing: logging must always be available.
func New(cfg Config) Logger {
	writer, err := openOutput(cfg.Output)
	if err != nil {
		writer = os.Stderr
	}

	level := &slog.LevelVar{}
	level.Set(levelFromString(cfg.Level))
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return &slogLogger{s: slog.New(handler), level: level}
}

// SetLevel changes the minimum level of a logger created by New and of
// every child derived from it via With. Unknown names map to info.
func SetLevel(log Logger, level string) {
	if sl, ok := log.(*slogLogger); ok && sl.level != nil {
		sl.level.Set(levelFromString(level))
	}
}

// Default returns a logger with info level, text format, stderr output.
func Default() Logger {
	return New(Config{Level: "info", Output: "stderr", Format: "text"})
}

// Noop returns a logger that discards everything. Intended for tests.
func Noop() Logger {
	return &slogLogger{s: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *slogLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debug(msg, keysAndValues...)
}

func (l *slogLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Info(msg, keysAndValues...)
}

func (l *slogLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warn(msg, keysAndValues...)
}

func (l *slogLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Error(msg, keysAndValues...)
}

func (l *slogLogger) With(keysAndValues ...interface{}) Logger {
	return &slogLogger{s: l.s.With(keysAndValues...), level: l.level}
}

// levelFromString maps a level name to slog.Level, defaulting to info.
func levelFromString(level string) slog.Level {
	switch strings.ToLower(level) {
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

// openOutput resolves an output destination to a writer.
//
// "stdout" and "stderr" map to the process streams; anything else is
// treated as a file path opened for appending.
func openOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // #nosec G304 -- path comes from trusted config
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", output, err)
		}
		return f, nil
	}
}
