package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// New builds a JSON logger at the named level (debug|info|warn|error).
func New(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func Info(ctx context.Context, l *slog.Logger, action string, attrs ...any) {
	l.InfoContext(ctx, action, append([]any{slog.String("kind", "info"), slog.String("action", action)}, attrs...)...)
}

// Audit records a state change that has been committed.
func Audit(ctx context.Context, l *slog.Logger, action string, attrs ...any) {
	l.InfoContext(ctx, action, append([]any{slog.String("kind", "audit"), slog.String("action", action)}, attrs...)...)
}

// Security records a rejected or suspicious request.
func Security(ctx context.Context, l *slog.Logger, action string, attrs ...any) {
	l.WarnContext(ctx, action, append([]any{slog.String("kind", "security"), slog.String("action", action)}, attrs...)...)
}

func Error(ctx context.Context, l *slog.Logger, action string, err error, attrs ...any) {
	args := []any{slog.String("kind", "error"), slog.String("action", action)}
	if err != nil {
		args = append(args, slog.String("err", err.Error()))
	}
	l.ErrorContext(ctx, action, append(args, attrs...)...)
}
