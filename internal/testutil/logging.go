// Package testutil holds helpers shared by clickmods tests.
package testutil

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
)

// LogBuffer collects log output. Workers started by a test may keep logging
// while the test reads it, so access is serialized.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// CaptureLogBuffer points the default slog logger at a LogBuffer for the
// rest of the test and restores the previous logger in t.Cleanup.
func CaptureLogBuffer(t *testing.T, level slog.Level) *LogBuffer {
	t.Helper()
	originalLogger := slog.Default()
	logBuf := &LogBuffer{}
	slog.SetDefault(slog.New(slog.NewTextHandler(logBuf, &slog.HandlerOptions{Level: level})))
	t.Cleanup(func() {
		slog.SetDefault(originalLogger)
	})
	return logBuf
}
