package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"FeedDigest/internal/config"
)

// New creates a slog.Logger writing to stdout and, when configured, to a rotating file.
func New(cfg config.LoggingConfig) *slog.Logger {
	return NewTo(os.Stdout, cfg)
}

// NewTo is New with console output going to console instead of stdout.
// A log file whose directory cannot be created is reported once and skipped.
func NewTo(console io.Writer, cfg config.LoggingConfig) *slog.Logger {
	if cfg.File == "" {
		return NewWithWriter(console, cfg.Level, cfg.Format)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		logger := NewWithWriter(console, cfg.Level, cfg.Format)
		logger.Warn("log file disabled", "file", cfg.File, "error", err)
		return logger
	}

	out := io.MultiWriter(console, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxAge:     30,
		MaxBackups: 30,
		LocalTime:  true,
	})
	return NewWithWriter(out, cfg.Level, cfg.Format)
}

// NewWithWriter builds a logger on an arbitrary writer; format is "text" or "json".
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFromString(level)}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything, handy for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
