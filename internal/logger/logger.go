// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logger provides the process-wide structured logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu       sync.Mutex
	levelVar = new(slog.LevelVar)
	logFile  *os.File
	logPath  string
	base     = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelVar}))
)

// DefaultPath returns the default log file location.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), "tutorcito.log")
}

// Init opens path for appending and sends all records there.
// Calling Init again switches to the new file.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	if logFile != nil {
		logFile.Close()
	}

	logFile = f
	logPath = path
	base = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: levelVar}))
	base.Info("logger initialized", "path", path, "level", levelVar.Level().String())
	return nil
}

// Path returns the active log file, or "" when logging is discarded.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

// ParseLevel converts "debug", "info", "warn" or "error" to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// SetLevel sets the minimum level that is written.
func SetLevel(level slog.Level) {
	levelVar.Set(level)
}

// SetDebug switches between debug and info level.
func SetDebug(enabled bool) {
	if enabled {
		SetLevel(slog.LevelDebug)
	} else {
		SetLevel(slog.LevelInfo)
	}
}

// Get returns the shared logger.
func Get() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return base
}

// Component returns a logger with the component attribute attached.
//
//	log := logger.Component("tasks")
//	log.Warn("notification dropped", "task", id)
func Component(name string) *slog.Logger {
	return Get().With(slog.String("component", name))
}

// WithSession returns a logger with the session id attached.
func WithSession(sessionID string) *slog.Logger {
	return Get().With(slog.String("session", sessionID))
}

// Close closes the log file and goes back to discarding records.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logPath = ""
	base = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelVar}))
}
