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
	// UserIDKey is the context key for user ID
	UserIDKey contextKey = "user_id"
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
// Supports request_id and user_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("user_id", userID)),
		}
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
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

// ReconcileRun logs the outcome of one reconciliation trigger invocation.
func (l *Logger) ReconcileRun(trigger, planID string, created, skipped, failed int) {
	l.Info("reconcile_run",
		slog.String("trigger", trigger),
		slog.String("plan_id", planID),
		slog.Int("created", created),
		slog.Int("skipped", skipped),
		slog.Int("failed", failed),
	)
}

// ChunkScanFailed logs a single failed eligibility chunk scan. The run continues;
// this is the operator's visibility into partial degradation.
func (l *Logger) ChunkScanFailed(collection string, departments, cities []string, err error) {
	l.Warn("chunk_scan_failed",
		slog.String("collection", collection),
		slog.Any("departments", departments),
		slog.Any("cities", cities),
		slog.String("error", err.Error()),
	)
}

// StoreError logs entity store errors
func (l *Logger) StoreError(operation, collection string, err error) {
	l.Error("store_error",
		slog.String("operation", operation),
		slog.String("collection", collection),
		slog.String("error", err.Error()),
	)
}

// BatchCommitFailed logs a batch chunk that failed after its retry.
func (l *Logger) BatchCommitFailed(chunkIndex, committed, lost int, err error) {
	l.Error("batch_commit_failed",
		slog.Int("chunk_index", chunkIndex),
		slog.Int("committed_writes", committed),
		slog.Int("lost_writes", lost),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
