// Package logger provides component-tagged structured logging shared by
// every core package. All entries carry a "component" attribute so that log
// lines from the section store, the lock, the corpus scanner, and so on can
// be filtered independently when this service runs as a long-lived process.
package logger

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	handler slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
)

// SetHandler replaces the underlying slog handler, e.g. to switch to JSON
// output or a different level; tests use it to capture output.
func SetHandler(h slog.Handler) {
	mu.Lock()
	defer mu.Unlock()
	handler = h
}

func logger() *slog.Logger {
	mu.Lock()
	h := handler
	mu.Unlock()
	return slog.New(h)
}

func attrs(component string, fields map[string]any) []any {
	out := make([]any, 0, 2+2*len(fields))
	out = append(out, "component", component)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}

// DebugCF logs a debug-level message tagged with component and fields.
func DebugCF(component, message string, fields map[string]any) {
	logger().Log(context.Background(), slog.LevelDebug, message, attrs(component, fields)...)
}

// InfoCF logs an info-level message tagged with component and fields.
func InfoCF(component, message string, fields map[string]any) {
	logger().Log(context.Background(), slog.LevelInfo, message, attrs(component, fields)...)
}

// WarnCF logs a warn-level message tagged with component and fields.
func WarnCF(component, message string, fields map[string]any) {
	logger().Log(context.Background(), slog.LevelWarn, message, attrs(component, fields)...)
}

// ErrorCF logs an error-level message tagged with component and fields.
func ErrorCF(component, message string, fields map[string]any) {
	logger().Log(context.Background(), slog.LevelError, message, attrs(component, fields)...)
}
