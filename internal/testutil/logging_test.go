package testutil

import (
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestCaptureLogBufferConcurrentWriters(t *testing.T) {
	logBuf := CaptureLogBuffer(t, slog.LevelInfo)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			slog.Info("[test] worker", "n", i)
			_ = logBuf.String()
		})
	}
	wg.Wait()

	if got := strings.Count(logBuf.String(), "[test] worker"); got != 8 {
		t.Fatalf("captured %d records, want 8", got)
	}
}

func TestCaptureLogBufferRespectsLevel(t *testing.T) {
	logBuf := CaptureLogBuffer(t, slog.LevelWarn)
	slog.Info("[test] quiet")
	slog.Warn("[test] loud")
	if strings.Contains(logBuf.String(), "quiet") || !strings.Contains(logBuf.String(), "loud") {
		t.Fatalf("captured %q", logBuf.String())
	}
}
