package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// RotatingWriter writes to one log file per ISO week, rolling over to a
// numbered sibling when the current file exceeds maxFileSize, and deletes
// files older than the retention window.
type RotatingWriter struct {
	logDir      string
	retention   time.Duration
	maxFileSize int64

	mu          sync.Mutex
	currentFile *os.File
	currentWeek string
	currentSize int64
	sequence    int
	lastCleanup time.Time
}

// NewRotatingWriter creates a writer rotating weekly under logDir.
func NewRotatingWriter(logDir string, retentionWeeks int, maxFileSize int64) *RotatingWriter {
	return &RotatingWriter{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
	}
}

// weekKey returns the ISO week key, e.g. "2026-W35".
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Write appends to the current log file, rotating on week change or size
// overflow. Cleanup of expired files piggybacks on rotation.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	week := weekKey(time.Now())
	rotate := w.currentFile == nil || week != w.currentWeek
	if !rotate && w.maxFileSize > 0 && w.currentSize+int64(len(p)) > w.maxFileSize {
		rotate = true
		w.sequence++
	}

	if rotate {
		if week != w.currentWeek {
			w.sequence = 0
		}
		if err := w.openFile(week); err != nil {
			return 0, err
		}
		w.cleanupLocked()
	}

	n, err := w.currentFile.Write(p)
	w.currentSize += int64(n)
	return n, err
}

func (w *RotatingWriter) openFile(week string) error {
	if w.currentFile != nil {
		if err := w.currentFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
	}

	name := fmt.Sprintf("bot-%s.log", week)
	if w.sequence > 0 {
		name = fmt.Sprintf("bot-%s_%02d.log", week, w.sequence)
	}
	path := filepath.Join(w.logDir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	w.currentFile = file
	w.currentWeek = week
	w.currentSize = 0
	if info, err := file.Stat(); err == nil {
		w.currentSize = info.Size()
	}
	return nil
}

// cleanupLocked removes log files older than the retention window. Runs at
// most once per day; caller must hold the lock.
func (w *RotatingWriter) cleanupLocked() {
	if w.retention <= 0 || time.Since(w.lastCleanup) < 24*time.Hour {
		return
	}
	w.lastCleanup = time.Now()

	entries, err := os.ReadDir(w.logDir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-w.retention)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "bot-") || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(w.logDir, entry.Name()))
		}
	}
}

// Close closes the current log file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.currentFile != nil {
		return w.currentFile.Close()
	}
	return nil
}

// SetupLogger configures slog to log text to the console and JSON to
// rotating files under logDir. If the directory cannot be created the
// console logger is returned alone.
func SetupLogger(logDir string, level slog.Level, retentionWeeks int, maxFileSize int64) *slog.Logger {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})

	if err := os.MkdirAll(logDir, 0755); err != nil {
		console := slog.New(consoleHandler)
		console.Error("Failed to create logs directory", "error", err)
		return console
	}

	fileHandler := slog.NewJSONHandler(
		NewRotatingWriter(logDir, retentionWeeks, maxFileSize),
		&slog.HandlerOptions{Level: level},
	)

	return slog.New(&fanoutHandler{handlers: []slog.Handler{consoleHandler, fileHandler}})
}
