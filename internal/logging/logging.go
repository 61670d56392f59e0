package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"

	"github.com/scrawlgg/scrawl-backend/internal/config"
)

// New builds the root logger. Records always go to stderr as text;
// when a Sentry DSN is configured they are mirrored to Sentry as well.
// The returned flush func must be called on shutdown (it drains the
// Sentry transport) and is a no-op without a DSN.
func New(cfg config.LoggingConfig, sentryCfg config.SentryConfig) (*slog.Logger, func(), error) {
	level := parseLevel(cfg.Level)
	text := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	handlers := []slog.Handler{text}
	flush := func() {}

	if sentryCfg.DSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryCfg.DSN,
			Environment:      sentryCfg.Environment,
			Release:          sentryCfg.Release,
			TracesSampleRate: sentryCfg.TracesSampleRate,
			Debug:            sentryCfg.Debug,
			EnableLogs:       true,
			AttachStacktrace: true,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize sentry: %w", err)
		}
		handlers = append(handlers, sentryslog.Option{
			EventLevel: []slog.Level{slog.LevelError},
			LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
		}.NewSentryHandler(context.Background()))
		flush = func() { sentry.Flush(2 * time.Second) }
	}

	var handler slog.Handler = handlers[0]
	if len(handlers) > 1 {
		handler = fanout(handlers)
	}

	logger := slog.New(handler).With(
		"service", cfg.Service,
		"environment", cfg.Environment,
	)
	return logger, flush, nil
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

// fanout duplicates every record to all wrapped handlers.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
