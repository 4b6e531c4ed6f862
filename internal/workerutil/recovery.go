// Package workerutil runs long-lived background workers (config watcher,
// control pipe server, hotkey loop) with panic recovery.
package workerutil

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const (
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	// 100ms doubling to 5s over 10 attempts spans roughly 30s.
	defaultMaxRetries = 10
)

// RecoveryOptions configures RunWithPanicRecovery. Zero numeric fields use
// the defaults (100ms, 5s, 10 attempts). MaxRetries of 1 runs the worker
// once with no restart. Nil callbacks are skipped.
type RecoveryOptions struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxRetries     int

	// OnPanic runs after each recovered panic, before the backoff wait.
	// attempt is 1-based.
	OnPanic func(worker string, attempt int)

	// OnFatal runs once MaxRetries panics have been recovered.
	OnFatal func(worker string, maxRetries int)

	// OnExit runs when the worker returns a non-nil error other than a
	// context cancellation. The worker is not restarted.
	OnExit func(worker string, err error)

	// IsShutdown stops restarts while the process is tearing down.
	IsShutdown func() bool
}

func (opts RecoveryOptions) applyDefaults() RecoveryOptions {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		slog.Warn("[DEBUG-PANIC] MaxBackoff < InitialBackoff, using InitialBackoff as MaxBackoff",
			"initialBackoff", opts.InitialBackoff,
			"maxBackoff", opts.MaxBackoff,
		)
		opts.MaxBackoff = opts.InitialBackoff
	}
	return opts
}

// RunWithPanicRecovery starts fn on a goroutine tracked by wg. A panic in fn
// is logged with its stack and fn is restarted after an exponential backoff,
// up to MaxRetries times. A normal return ends the worker; a returned error
// is logged and reported through OnExit.
func RunWithPanicRecovery(
	ctx context.Context,
	name string,
	wg *sync.WaitGroup,
	fn func(ctx context.Context) error,
	opts RecoveryOptions,
) {
	opts = opts.applyDefaults()
	wg.Go(func() {
		runRecoveryLoop(ctx, name, fn, opts)
	})
}

func runRecoveryLoop(
	ctx context.Context,
	name string,
	fn func(ctx context.Context) error,
	opts RecoveryOptions,
) {
	restartDelay := opts.InitialBackoff

	for attempt := 0; attempt < opts.MaxRetries; attempt++ {
		err, panicked := runOnce(ctx, name, fn)
		if !panicked {
			reportExit(ctx, name, err, opts)
			return
		}
		if ctx.Err() != nil {
			return
		}
		// No OnPanic during teardown: callers may already be half torn down.
		if opts.IsShutdown != nil && opts.IsShutdown() {
			slog.Info("[DEBUG-PANIC] worker shutdown detected, stopping restart", "worker", name)
			return
		}

		slog.Warn("[DEBUG-PANIC] restarting worker after panic",
			"worker", name,
			"restartDelay", restartDelay,
			"attempt", attempt+1,
		)
		if opts.OnPanic != nil {
			opts.OnPanic(name, attempt+1)
		}
		if attempt == opts.MaxRetries-1 {
			break
		}

		restartTimer := time.NewTimer(restartDelay)
		select {
		case <-ctx.Done():
			restartTimer.Stop()
			return
		case <-restartTimer.C:
		}
		restartDelay = nextBackoff(restartDelay, opts.MaxBackoff)
	}

	slog.Error("[DEBUG-PANIC] worker exceeded max retries, giving up",
		"worker", name,
		"maxRetries", opts.MaxRetries,
	)
	if opts.OnFatal != nil {
		opts.OnFatal(name, opts.MaxRetries)
	}
}

func runOnce(ctx context.Context, name string, fn func(ctx context.Context) error) (err error, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[DEBUG-PANIC] background goroutine recovered from panic",
				"worker", name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			panicked = true
		}
	}()
	return fn(ctx), false
}

func reportExit(ctx context.Context, name string, err error, opts RecoveryOptions) {
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return
	}
	slog.Warn("[DEBUG-WORKER] worker stopped with error", "worker", name, "error", err)
	if opts.OnExit != nil {
		opts.OnExit(name, err)
	}
}

// nextBackoff doubles current, capped at maxBackoff and guarded against
// overflow.
func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	if current <= 0 {
		return defaultInitialBackoff
	}
	if current >= maxBackoff {
		return maxBackoff
	}
	next := current * 2
	if next > maxBackoff || next < current {
		return maxBackoff
	}
	return next
}
