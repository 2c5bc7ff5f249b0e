// Package logging defines the structured-logging interface used across the
// server. Implementations wrap log/slog or zap.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.uber.org/zap"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "session revoked", "user_id", userID, "session_id", id)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Options selects the logging backend and its output format.
type Options struct {
	// Backend is "slog" or "zap".
	Backend string
	// Format is "json" or "text"; only slog honours "text".
	Format string
	// Debug lowers the minimum level to debug.
	Debug bool
}

// New builds a Logger writing to w according to opts.
func New(w io.Writer, opts Options) (Logger, error) {
	switch opts.Backend {
	case "", "slog":
		level := slog.LevelInfo
		if opts.Debug {
			level = slog.LevelDebug
		}
		ho := &slog.HandlerOptions{Level: level}

		var h slog.Handler
		switch opts.Format {
		case "", "json":
			h = slog.NewJSONHandler(w, ho)
		case "text":
			h = slog.NewTextHandler(w, ho)
		default:
			return nil, fmt.Errorf("unknown log format %q", opts.Format)
		}
		return NewSlogLogger(slog.New(h)), nil
	case "zap":
		cfg := zap.NewProductionConfig()
		if opts.Debug {
			cfg = zap.NewDevelopmentConfig()
		}
		l, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("zap init: %w", err)
		}
		return NewZapLogger(l), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}
