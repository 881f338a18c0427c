// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// TraceIDKey is the context key for the orchestration trace ID
	TraceIDKey contextKey = "trace_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and trace_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("request_id", requestID)),
		}
	}

	if traceID, ok := ctx.Value(TraceIDKey).(string); ok && traceID != "" {
		newLogger = newLogger.WithTraceID(traceID)
	}

	return newLogger
}

// WithTraceID returns a logger with the orchestration trace ID attached.
func (l *Logger) WithTraceID(traceID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("trace_id", traceID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// RemoteCallError logs a failed call to a downstream collaborator.
func (l *Logger) RemoteCallError(operation, url string, err error) {
	l.Error("remote_call_error",
		slog.String("operation", operation),
		slog.String("url", url),
		slog.String("error", err.Error()),
	)
}

// EventPublished logs a successful event publish.
func (l *Logger) EventPublished(subject string) {
	l.Info("event_published", slog.String("subject", subject))
}

// EventDropped logs an event that could not be published after the retry.
func (l *Logger) EventDropped(subject string, err error) {
	l.Error("event_dropped",
		slog.String("subject", subject),
		slog.String("error", err.Error()),
	)
}

// StageCompleted logs a completed orchestration stage with its duration.
func (l *Logger) StageCompleted(stage string, durationMs float64) {
	l.Info("stage_completed",
		slog.String("stage", stage),
		slog.Float64("duration_ms", durationMs),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
