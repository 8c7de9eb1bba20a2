// Package logging configures the process-wide slog logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"recipefinder/internal/config"
	"recipefinder/internal/logsink"
)

// ParseLevel accepts debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// NewConsoleHandler writes human readable tint output or JSON lines to w.
func NewConsoleHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})
}

// Setup installs the default logger and returns a func that flushes remote sinks. Extra
// handlers, such as the OTLP bridge, receive every record alongside the console.
func Setup(ctx context.Context, cfg config.LogConfig, extra ...slog.Handler) (func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	handlers := []slog.Handler{NewConsoleHandler(os.Stderr, cfg.Format, level)}
	for _, h := range extra {
		if h != nil {
			handlers = append(handlers, h)
		}
	}
	closer := func() error { return nil }

	if cfg.SinkEnabled() {
		sink, err := logsink.New(ctx, logsink.Config{
			AccountName: cfg.SinkAccountName,
			AccountKey:  cfg.SinkAccountKey,
			Container:   cfg.SinkContainer,
			Level:       level,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create log sink: %w", err)
		}
		handlers = append(handlers, sink)
		closer = sink.Close
	}

	slog.SetDefault(slog.New(WithRequestID(Fanout(handlers...))))
	return closer, nil
}
