// Package logging wires log/slog with console and rotating-file handlers
// and exposes package-level helpers usable before initialization.
package logging

import (
	"log/slog"
	"os"
)

// Service wraps the configured slog logger.
type Service struct {
	Logger *slog.Logger
}

// Default is the process-wide logging service, set by InitLogger.
var Default *Service

// InitLogger initializes the global logger writing to the console and to
// rotating files under logDir.
func InitLogger(logDir string, level slog.Level, retentionWeeks int, maxFileSize int64) {
	Default = &Service{
		Logger: SetupLogger(logDir, level, retentionWeeks, maxFileSize),
	}
	slog.SetDefault(Default.Logger)
}

// logger returns the configured logger, falling back to a stderr text
// logger when InitLogger has not run (early startup, tests).
func logger() *slog.Logger {
	if Default != nil && Default.Logger != nil {
		return Default.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// Package-level helpers for direct access

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}
