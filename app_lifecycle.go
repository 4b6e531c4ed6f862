package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"clickmods/internal/config"
	"clickmods/internal/ipc"
	"clickmods/internal/workerutil"
)

var (
	newPipeServerFn = ipc.NewPipeServer
	watchConfigFn   = config.Watch
)

const shutdownWaitTimeout = 5 * time.Second

// Run starts the agent and blocks until ctx is done or a quit command
// arrives. The mouse hook is closed on every return path, which releases
// any synthetic modifiers still held.
func (a *App) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.cancelMu.Lock()
	a.cancel = cancel
	a.cancelMu.Unlock()

	var wg sync.WaitGroup
	defer func() {
		err = errors.Join(err, a.shutdown(cancel, &wg))
	}()

	cfg := a.configSnapshot()
	a.startHook(cfg)
	a.configureHotkey(cfg.ToggleHotkey)

	opts := a.workerRecoveryOptions()
	server := newPipeServerFn(a.pipeName, a)
	workerutil.RunWithPanicRecovery(ctx, "pipe-server", &wg, server.Serve, opts)
	if cfg.WatchConfig {
		workerutil.RunWithPanicRecovery(ctx, "config-watcher", &wg, func(ctx context.Context) error {
			return watchConfigFn(ctx, a.configPath, a.configSnapshot(), a.applyConfig)
		}, opts)
	}

	slog.Info("[agent] running",
		"instanceID", a.instanceID,
		"pipe", a.pipeName,
		"config", a.configPath,
		"installed", a.hook.Installed(),
	)
	<-ctx.Done()
	slog.Info("[agent] stopping", "cause", context.Cause(ctx))
	return nil
}

func (a *App) startHook(cfg config.Config) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	if !cfg.Enabled {
		slog.Info("[DEBUG-HOOK] mouse hook disabled by config")
		return
	}
	// A registration failure disables the feature; the agent keeps serving
	// control commands so `resume` can retry.
	if err := a.installLocked(); err != nil {
		slog.Warn("[DEBUG-HOOK] running without mouse hook", "error", err)
	}
}

func (a *App) shutdown(cancel context.CancelFunc, wg *sync.WaitGroup) error {
	a.shuttingDown.Store(true)
	cancel()

	var errs []error
	if err := a.hotkeys.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop hotkey: %w", err))
	}

	a.stateMu.Lock()
	if err := a.hook.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close mouse hook: %w", err))
	}
	a.stateMu.Unlock()

	if !waitWithTimeout(wg, shutdownWaitTimeout) {
		slog.Warn("[DEBUG-WORKER] background workers did not stop in time", "timeout", shutdownWaitTimeout)
		errs = append(errs, fmt.Errorf("background workers did not stop within %s", shutdownWaitTimeout))
	}
	return errors.Join(errs...)
}

func waitWithTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
