// Package logger configures the process-wide slog logger and provides
// helpers for component loggers and request-scoped logging.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type requestIDKey struct{}

// Setup installs the default slog logger writing to stdout in the given
// format ("json" or "text") at the given level.
func Setup(level string, format string) {
	slog.SetDefault(New(level, format, os.Stdout))
}

// New builds a logger without installing it as the default. Tests use this
// to capture output.
func New(level string, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// WithComponent returns the default logger tagged with a component name.
func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

// WithRequestID stores a request id in the context for FromContext.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request id stored in ctx, or "" if none.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// FromContext returns the default logger, tagged with the request id when
// one is present in ctx.
func FromContext(ctx context.Context) *slog.Logger {
	log := slog.Default()
	if id := RequestID(ctx); id != "" {
		log = log.With("request_id", id)
	}
	return log
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
