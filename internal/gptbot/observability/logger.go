// Package observability configures structured logging for gptbot.
//
// It wraps log/slog with trace ID propagation and secret redaction so that
// every log line emitted while answering a message carries its trace ID.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bdobrica/gptbot/common/redact"
	"github.com/bdobrica/gptbot/common/trace"
)

// Setup configures the global slog logger according to the provided level
// and format strings (e.g. level="info", format="json").
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger writing to w.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
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

// WithTrace returns a child logger that always includes the trace_id from ctx.
func WithTrace(ctx context.Context) *slog.Logger {
	traceID := trace.FromContext(ctx)
	if traceID == "" {
		return slog.Default()
	}
	return slog.With("trace_id", traceID)
}

// RedactSecrets replaces known-sensitive values in a log message with
// "[REDACTED]".
func RedactSecrets(msg string, sensitiveValues ...string) string {
	return redact.String(msg, sensitiveValues...)
}
