// Package logging builds the slog logger used across metrosmoke.
// Logs go to stderr, or to a rotated file, so stdout carries only the report.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"metrosmoke/pkg/config"
)

// New creates a logger for cfg. The returned close function releases the log
// file when output is "file" and is a no-op otherwise.
func New(cfg config.LoggingConfig) (*slog.Logger, func() error) {
	switch cfg.Output {
	case config.OutputFile:
		w, err := newRotatingWriter(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: %v, falling back to stderr\n", err)
			return NewWithWriter(cfg, os.Stderr), noClose
		}
		return NewWithWriter(cfg, w), w.Close
	case config.OutputStderr, "":
		return NewWithWriter(cfg, os.Stderr), noClose
	default:
		fmt.Fprintf(os.Stderr, "WARNING: unknown logging output %q, falling back to stderr\n", cfg.Output)
		return NewWithWriter(cfg, os.Stderr), noClose
	}
}

func noClose() error { return nil }

// newRotatingWriter opens a lumberjack writer, creating the log directory
func newRotatingWriter(cfg config.LoggingConfig) (*lumberjack.Logger, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("logging output=file but no file path is set")
	}

	dir := filepath.Dir(cfg.FilePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create log directory %q: %w", dir, err)
		}
	}

	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge, // days
		Compress:   cfg.Compress,
	}, nil
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch cfg.Format {
	case config.FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel converts a level name to slog.Level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case config.LevelDebug:
		return slog.LevelDebug
	case config.LevelWarn:
		return slog.LevelWarn
	case config.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
