package inputhook

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// HookHandle identifies an installed hook. The zero value is never valid.
type HookHandle uintptr

const (
	loopStopTimeout = 2 * time.Second
	loopCallTimeout = 2 * time.Second
)

// hookBackend registers the interceptor with the OS input channel.
type hookBackend interface {
	next() NextHook
	start(ic *Interceptor) (hookLoop, error)
}

// hookLoop is a running hook and the thread that pumps it.
type hookLoop interface {
	handle() HookHandle
	// call runs fn on the hook thread and waits for it to finish.
	call(fn func(), timeout time.Duration) error
	// stop releases the modifiers, unhooks and waits for the thread to exit.
	stop(timeout time.Duration) error
	// exited reports whether the hook thread has returned.
	exited() bool
}

// Manager owns the process-wide mouse hook and the Interceptor it feeds.
// All methods are safe for concurrent use; only the hook thread touches
// the Interceptor's button state.
type Manager struct {
	mu      sync.Mutex
	backend hookBackend
	ic      *Interceptor
	loop    hookLoop // nil when no hook thread is held
}

// NewManager returns a Manager that synthesizes keys through sender.
func NewManager(sender KeySender) *Manager {
	return newManager(sender, newSystemBackend())
}

func newManager(sender KeySender, backend hookBackend) *Manager {
	return &Manager{
		backend: backend,
		ic:      NewInterceptor(sender, backend.next()),
	}
}

// Install registers the global low-level mouse hook. Errors are
// *RegistrationError.
func (m *Manager) Install() (HookHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loop != nil && m.loop.exited() {
		slog.Info("[DEBUG-HOOK] reaping exited hook thread", "handle", uintptr(m.loop.handle()))
		m.loop = nil
	}
	if m.loop != nil {
		return 0, &RegistrationError{Op: "install", Err: ErrAlreadyInstalled}
	}
	loop, err := m.backend.start(m.ic)
	if err != nil {
		var regErr *RegistrationError
		if errors.As(err, &regErr) {
			return 0, err
		}
		return 0, &RegistrationError{Op: "install", Err: err}
	}
	m.loop = loop
	slog.Info("[DEBUG-HOOK] mouse hook installed", "handle", uintptr(loop.handle()))
	return loop.handle(), nil
}

// Uninstall removes the hook identified by h. A zero or stale handle is a
// no-op. The modifiers are released on the hook thread before unhooking.
func (m *Manager) Uninstall(h HookHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h == 0 || m.loop == nil || m.loop.handle() != h {
		return nil
	}
	return m.uninstallLocked()
}

// ForceRelease releases the synthetic modifiers and resets the state to
// idle. With a live hook the work is done on the hook thread.
func (m *Manager) ForceRelease() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loop == nil {
		m.ic.ForceRelease()
		return
	}
	if err := m.loop.call(m.ic.ForceRelease, loopCallTimeout); err != nil {
		if !m.loop.exited() {
			// The thread may still be running callbacks; touching the
			// state from here would race with them.
			slog.Warn("[DEBUG-HOOK] force release on hook thread failed", "error", err)
			return
		}
		slog.Warn("[DEBUG-HOOK] force release on hook thread failed, releasing inline", "error", err)
		m.ic.ForceRelease()
	}
}

// Close uninstalls the active hook. When nothing is installed it still
// releases the modifiers once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loop == nil {
		m.ic.ForceRelease()
		return nil
	}
	return m.uninstallLocked()
}

// Installed reports whether a hook is live. A hook whose thread failed to
// stop still counts.
func (m *Manager) Installed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loop != nil
}

// Handle returns the live hook handle or 0.
func (m *Manager) Handle() HookHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loop == nil {
		return 0
	}
	return m.loop.handle()
}

// Stats returns the interceptor counters.
func (m *Manager) Stats() Stats {
	return m.ic.Stats()
}

// uninstallLocked keeps the loop when its thread is still running after a
// failed stop, so later calls keep going through the hook thread and a
// retry can reap it.
func (m *Manager) uninstallLocked() error {
	loop := m.loop
	err := loop.stop(loopStopTimeout)
	if err != nil && !loop.exited() {
		slog.Warn("[DEBUG-HOOK] mouse hook thread did not stop, keeping it", "handle", uintptr(loop.handle()), "error", err)
		return err
	}
	m.loop = nil
	if err != nil {
		slog.Warn("[DEBUG-HOOK] mouse hook teardown reported an error", "handle", uintptr(loop.handle()), "error", err)
		return err
	}
	slog.Info("[DEBUG-HOOK] mouse hook removed", "handle", uintptr(loop.handle()))
	return nil
}
