package core

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5/middleware"
)

// Logger provides enhanced logging capabilities for Atelier
type Logger struct {
	*slog.Logger
	mu       *sync.Mutex
	features map[string]*slog.Logger
}

// NewLogger creates a new logger instance writing text records to stdout
func NewLogger() *Logger {
	return NewLoggerWithLevel(os.Stdout, "info")
}

// NewLoggerWithLevel creates a logger writing to w at the named level (debug, info, warn, error)
func NewLoggerWithLevel(w io.Writer, level string) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})

	return &Logger{
		Logger:   slog.New(handler),
		mu:       &sync.Mutex{},
		features: make(map[string]*slog.Logger),
	}
}

// NewDiscardLogger returns a logger that drops everything, for tests
func NewDiscardLogger() *Logger {
	return NewLoggerWithLevel(io.Discard, "error")
}

// ParseLevel maps a level name onto slog levels, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// ForFeature returns a logger specific to a feature
func (l *Logger) ForFeature(featureName string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	featureLogger, exists := l.features[featureName]
	if !exists {
		featureLogger = l.Logger.With("feature", featureName)
		l.features[featureName] = featureLogger
	}

	return &Logger{
		Logger:   featureLogger,
		mu:       l.mu,
		features: l.features,
	}
}

// WithContext returns a logger carrying the chi request id, when present
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	if requestID := middleware.GetReqID(ctx); requestID != "" {
		return &Logger{
			Logger:   l.Logger.With("request_id", requestID),
			mu:       l.mu,
			features: l.features,
		}
	}

	return l
}
