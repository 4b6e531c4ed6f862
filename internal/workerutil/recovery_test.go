package workerutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func fastOptions(maxRetries int) RecoveryOptions {
	return RecoveryOptions{
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		MaxRetries:     maxRetries,
	}
}

func waitGroupWithin(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatalf("workers did not finish within %s", timeout)
	}
}

func TestRunWithPanicRecoveryNormalExitOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var panics, fatals, exits atomic.Int32

	opts := fastOptions(3)
	opts.OnPanic = func(string, int) { panics.Add(1) }
	opts.OnFatal = func(string, int) { fatals.Add(1) }
	opts.OnExit = func(string, error) { exits.Add(1) }

	RunWithPanicRecovery(ctx, "config-watcher", &wg, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, opts)

	time.Sleep(10 * time.Millisecond)
	cancel()
	waitGroupWithin(t, &wg, 2*time.Second)

	if panics.Load() != 0 || fatals.Load() != 0 || exits.Load() != 0 {
		t.Fatalf("callbacks panic=%d fatal=%d exit=%d, want all 0", panics.Load(), fatals.Load(), exits.Load())
	}
}

func TestRunWithPanicRecoveryRestartsAfterPanic(t *testing.T) {
	var wg sync.WaitGroup
	var calls atomic.Int32
	var mu sync.Mutex
	var attempts []int

	opts := fastOptions(5)
	opts.OnPanic = func(_ string, attempt int) {
		mu.Lock()
		attempts = append(attempts, attempt)
		mu.Unlock()
	}

	RunWithPanicRecovery(t.Context(), "ipc-server", &wg, func(context.Context) error {
		if calls.Add(1) == 1 {
			panic("intentional test panic")
		}
		return nil
	}, opts)
	waitGroupWithin(t, &wg, 2*time.Second)

	if got := calls.Load(); got != 2 {
		t.Fatalf("fn called %d times, want 2", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(attempts) != 1 || attempts[0] != 1 {
		t.Fatalf("OnPanic attempts = %v, want [1]", attempts)
	}
}

func TestRunWithPanicRecoveryGivesUpAfterMaxRetries(t *testing.T) {
	var wg sync.WaitGroup
	const maxRetries = 3
	var calls, panics atomic.Int32
	var fatalMax atomic.Int32

	opts := fastOptions(maxRetries)
	opts.OnPanic = func(string, int) { panics.Add(1) }
	opts.OnFatal = func(_ string, n int) { fatalMax.Store(int32(n)) }

	RunWithPanicRecovery(t.Context(), "hotkey", &wg, func(context.Context) error {
		calls.Add(1)
		panic("always panic")
	}, opts)
	waitGroupWithin(t, &wg, 2*time.Second)

	if calls.Load() != maxRetries || panics.Load() != maxRetries {
		t.Fatalf("calls=%d panics=%d, want %d each", calls.Load(), panics.Load(), maxRetries)
	}
	if fatalMax.Load() != maxRetries {
		t.Fatalf("OnFatal maxRetries = %d, want %d", fatalMax.Load(), maxRetries)
	}
}

func TestRunWithPanicRecoveryStopsOnShutdown(t *testing.T) {
	tests := []struct {
		name       string
		shutdownAt int32
		wantCalls  int32
		wantPanics int32
	}{
		{name: "shutdown before first restart", shutdownAt: 1, wantCalls: 1, wantPanics: 0},
		{name: "shutdown after one restart", shutdownAt: 2, wantCalls: 2, wantPanics: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var wg sync.WaitGroup
			var calls, panics, fatals atomic.Int32

			opts := fastOptions(5)
			opts.OnPanic = func(string, int) { panics.Add(1) }
			opts.OnFatal = func(string, int) { fatals.Add(1) }
			opts.IsShutdown = func() bool { return calls.Load() >= tt.shutdownAt }

			RunWithPanicRecovery(t.Context(), "shutdown", &wg, func(context.Context) error {
				calls.Add(1)
				panic("trigger shutdown check")
			}, opts)
			waitGroupWithin(t, &wg, 2*time.Second)

			if calls.Load() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
			if panics.Load() != tt.wantPanics {
				t.Errorf("OnPanic = %d, want %d", panics.Load(), tt.wantPanics)
			}
			if fatals.Load() != 0 {
				t.Errorf("OnFatal = %d, want 0", fatals.Load())
			}
		})
	}
}

func TestRunWithPanicRecoveryCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var calls atomic.Int32

	RunWithPanicRecovery(ctx, "slow-backoff", &wg, func(context.Context) error {
		calls.Add(1)
		panic("trigger backoff")
	}, RecoveryOptions{InitialBackoff: 10 * time.Second, MaxBackoff: 10 * time.Second, MaxRetries: 5})

	time.Sleep(50 * time.Millisecond)
	cancel()
	waitGroupWithin(t, &wg, 2*time.Second)

	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestRunWithPanicRecoveryReportsReturnedError(t *testing.T) {
	tests := []struct {
		name      string
		cancelCtx bool
		err       error
		wantExit  bool
	}{
		{name: "nil error", err: nil, wantExit: false},
		{name: "worker error", err: errors.New("pipe listen failed"), wantExit: true},
		{name: "cancelled context", cancelCtx: true, err: context.Canceled, wantExit: false},
		{name: "canceled error with live context", err: fmt.Errorf("dial: %w", context.Canceled), wantExit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancelCtx {
				cancel()
			}
			var wg sync.WaitGroup
			var calls atomic.Int32
			var gotErr atomic.Pointer[error]

			opts := fastOptions(3)
			opts.OnExit = func(_ string, err error) { gotErr.Store(&err) }

			RunWithPanicRecovery(ctx, "exit", &wg, func(context.Context) error {
				calls.Add(1)
				return tt.err
			}, opts)
			waitGroupWithin(t, &wg, 2*time.Second)

			if calls.Load() != 1 {
				t.Fatalf("calls = %d, want 1 (errors are not restarted)", calls.Load())
			}
			reported := gotErr.Load()
			if tt.wantExit {
				if reported == nil || !errors.Is(*reported, tt.err) {
					t.Fatalf("OnExit error = %v, want %v", reported, tt.err)
				}
				return
			}
			if reported != nil {
				t.Fatalf("OnExit called with %v, want no call", *reported)
			}
		})
	}
}

func TestRunWithPanicRecoveryBackoffGrows(t *testing.T) {
	var wg sync.WaitGroup
	const maxRetries = 4
	initial := 100 * time.Millisecond
	var mu sync.Mutex
	var stamps []time.Time

	RunWithPanicRecovery(t.Context(), "backoff", &wg, func(context.Context) error {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		panic("measure backoff")
	}, RecoveryOptions{InitialBackoff: initial, MaxBackoff: time.Second, MaxRetries: maxRetries})
	waitGroupWithin(t, &wg, 5*time.Second)

	mu.Lock()
	defer mu.Unlock()
	if len(stamps) != maxRetries {
		t.Fatalf("got %d attempts, want %d", len(stamps), maxRetries)
	}
	expected := []time.Duration{initial, 2 * initial, 4 * initial}
	for i := 1; i < len(stamps); i++ {
		actual := stamps[i].Sub(stamps[i-1])
		// Generous bounds for timer resolution on Windows.
		if lower, upper := expected[i-1]/2, expected[i-1]*3/2; actual < lower || actual > upper {
			t.Errorf("delay[%d] = %s, want within %s..%s", i-1, actual, lower, upper)
		}
	}
}

func TestRunWithPanicRecoveryLastAttemptSkipsBackoff(t *testing.T) {
	var wg sync.WaitGroup
	const backoff = 300 * time.Millisecond
	start := time.Now()
	var fatalAt atomic.Int64

	RunWithPanicRecovery(t.Context(), "last", &wg, func(context.Context) error {
		panic("always panic")
	}, RecoveryOptions{
		InitialBackoff: backoff,
		MaxBackoff:     backoff,
		MaxRetries:     2,
		OnFatal:        func(string, int) { fatalAt.Store(int64(time.Since(start))) },
	})
	waitGroupWithin(t, &wg, 5*time.Second)

	elapsed := time.Duration(fatalAt.Load())
	if elapsed == 0 {
		t.Fatal("OnFatal not called")
	}
	if limit := backoff + 200*time.Millisecond; elapsed > limit {
		t.Fatalf("OnFatal after %s, want <= %s", elapsed, limit)
	}
}

func TestRunWithPanicRecoveryPanicValueTypes(t *testing.T) {
	type customStruct struct {
		Code int
	}
	values := []struct {
		name  string
		value any
	}{
		{name: "string", value: "something went wrong"},
		{name: "error", value: context.DeadlineExceeded},
		{name: "int", value: 42},
		{name: "struct", value: customStruct{Code: 500}},
	}

	for _, pv := range values {
		t.Run(pv.name, func(t *testing.T) {
			var wg sync.WaitGroup
			var calls atomic.Int32
			RunWithPanicRecovery(t.Context(), "panic-"+pv.name, &wg, func(context.Context) error {
				if calls.Add(1) == 1 {
					panic(pv.value)
				}
				return nil
			}, fastOptions(2))
			waitGroupWithin(t, &wg, 2*time.Second)
			if calls.Load() != 2 {
				t.Fatalf("calls = %d, want 2", calls.Load())
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	applied := RecoveryOptions{}.applyDefaults()
	if applied.InitialBackoff != defaultInitialBackoff ||
		applied.MaxBackoff != defaultMaxBackoff ||
		applied.MaxRetries != defaultMaxRetries {
		t.Fatalf("applyDefaults() = %+v, want package defaults", applied)
	}

	swapped := RecoveryOptions{
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		MaxRetries:     3,
	}.applyDefaults()
	if swapped.MaxBackoff != swapped.InitialBackoff {
		t.Fatalf("MaxBackoff = %s, want promoted to %s", swapped.MaxBackoff, swapped.InitialBackoff)
	}
}

func TestRunWithPanicRecoveryConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	const workerCount = 10
	var completed, panics atomic.Int32

	opts := fastOptions(3)
	opts.OnPanic = func(string, int) { panics.Add(1) }

	for i := range workerCount {
		var calls atomic.Int32
		RunWithPanicRecovery(t.Context(), fmt.Sprintf("worker-%d", i), &wg, func(context.Context) error {
			if calls.Add(1) == 1 {
				panic("first-call panic")
			}
			completed.Add(1)
			return nil
		}, opts)
	}
	waitGroupWithin(t, &wg, 10*time.Second)

	if completed.Load() != workerCount || panics.Load() != workerCount {
		t.Fatalf("completed=%d panics=%d, want %d each", completed.Load(), panics.Load(), workerCount)
	}
}

func TestNextBackoff(t *testing.T) {
	tests := []struct {
		name       string
		current    time.Duration
		maxBackoff time.Duration
		want       time.Duration
	}{
		{name: "zero uses default initial", current: 0, maxBackoff: 5 * time.Second, want: defaultInitialBackoff},
		{name: "negative uses default initial", current: -time.Second, maxBackoff: 5 * time.Second, want: defaultInitialBackoff},
		{name: "doubles under cap", current: 200 * time.Millisecond, maxBackoff: 5 * time.Second, want: 400 * time.Millisecond},
		{name: "caps at max", current: 5 * time.Second, maxBackoff: 5 * time.Second, want: 5 * time.Second},
		{name: "caps when doubling exceeds max", current: 3 * time.Second, maxBackoff: 5 * time.Second, want: 5 * time.Second},
		{name: "overflow guard", current: time.Duration(1<<62 + 5), maxBackoff: time.Duration(1<<63 - 1), want: time.Duration(1<<63 - 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextBackoff(tt.current, tt.maxBackoff); got != tt.want {
				t.Fatalf("nextBackoff(%s, %s) = %s, want %s", tt.current, tt.maxBackoff, got, tt.want)
			}
		})
	}
}
