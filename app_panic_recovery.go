package main

import (
	"log/slog"
	"runtime/debug"
	"time"

	"clickmods/internal/workerutil"
)

const (
	initialPanicRestartBackoff = 100 * time.Millisecond
	maxPanicRestartBackoff     = 5 * time.Second
	maxPanicRestartRetries     = 10
)

func recoverBackgroundPanic(worker string, recovered any) bool {
	if recovered != nil {
		slog.Error("[DEBUG-PANIC] background goroutine recovered from panic",
			"worker", worker,
			"panic", recovered,
			"stack", string(debug.Stack()),
		)
		return true
	}
	return false
}

func (a *App) workerRecoveryOptions() workerutil.RecoveryOptions {
	return workerutil.RecoveryOptions{
		InitialBackoff: initialPanicRestartBackoff,
		MaxBackoff:     maxPanicRestartBackoff,
		MaxRetries:     maxPanicRestartRetries,
		OnFatal: func(worker string, maxRetries int) {
			slog.Error("[DEBUG-PANIC] worker gave up after repeated panics",
				"worker", worker, "maxRetries", maxRetries)
		},
		OnExit: func(worker string, err error) {
			slog.Warn("[DEBUG-WORKER] worker stopped", "worker", worker, "error", err)
		},
		IsShutdown: a.shuttingDown.Load,
	}
}
