//go:build windows

package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/windows"

	"clickmods/internal/winmsg"
)

var (
	user32DLL = windows.NewLazySystemDLL("user32.dll")

	procRegisterHotKey   = user32DLL.NewProc("RegisterHotKey")
	procUnregisterHotKey = user32DLL.NewProc("UnregisterHotKey")
)

const (
	wmHotkey = 0x0312

	// Application-defined hotkey IDs must stay below 0xC000.
	maxHotkeyID int32 = 0xBFFF

	stopTimeout = 2 * time.Second
)

var (
	nextHotkeyID atomic.Int32

	registerHotKeyFn   = registerHotKey
	unregisterHotKeyFn = unregisterHotKey
)

func init() {
	nextHotkeyID.Store(0x4000)
}

// registration is non-nil in Manager exactly while a loop thread is running.
type registration struct {
	hotkeyID  int32
	threadID  uint32
	done      chan struct{}
	binding   Binding
	onTrigger *atomic.Pointer[func()]
}

type loopReady struct {
	threadID uint32
	err      error
}

// Manager owns at most one registered toggle hotkey.
type Manager struct {
	mu     sync.Mutex
	active *registration
}

func NewManager() *Manager {
	return &Manager{}
}

// Start registers spec system-wide, replacing any previous binding.
// onTrigger runs on its own goroutine so a slow callback never stalls the
// message loop.
//
// The new binding is registered before the previous one is released; if
// registration fails the previous binding stays live. Restarting with the
// active binding only swaps the callback.
func (m *Manager) Start(spec string, onTrigger func()) error {
	if onTrigger == nil {
		return errors.New("onTrigger callback is required")
	}
	if err := winmsg.Load(); err != nil {
		return err
	}
	if err := procRegisterHotKey.Find(); err != nil {
		return fmt.Errorf("RegisterHotKey is unavailable: %w", err)
	}

	binding, err := ParseBinding(spec)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && m.active.binding == binding {
		m.active.onTrigger.Store(&onTrigger)
		return nil
	}

	hotkeyID := nextHotkeyID.Add(1)
	if hotkeyID < 0 || hotkeyID > maxHotkeyID {
		return fmt.Errorf("hotkey ID range exhausted (ID=%d)", hotkeyID)
	}

	trigger := new(atomic.Pointer[func()])
	trigger.Store(&onTrigger)
	readyCh := make(chan loopReady, 1)
	done := make(chan struct{})
	go runHotkeyLoop(hotkeyID, binding, trigger, readyCh, done)

	ready := <-readyCh
	if ready.err != nil {
		return fmt.Errorf("register hotkey %q failed: %w", binding.Normalized(), ready.err)
	}

	previous := m.active
	m.active = &registration{
		hotkeyID:  hotkeyID,
		threadID:  ready.threadID,
		done:      done,
		binding:   binding,
		onTrigger: trigger,
	}
	slog.Info("[hotkey] registered", "binding", binding.Normalized())

	if previous != nil {
		if err := stopRegistration(previous); err != nil {
			slog.Warn("[hotkey] previous binding did not stop cleanly",
				"binding", previous.binding.Normalized(), "error", err)
		}
	}
	return nil
}

// Stop unregisters the active hotkey. Calling it with nothing registered is
// a no-op.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked()
}

// ActiveBinding returns the normalized active binding, or "".
func (m *Manager) ActiveBinding() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ""
	}
	return m.active.binding.Normalized()
}

func (m *Manager) stopLocked() error {
	if m.active == nil {
		return nil
	}
	reg := m.active
	m.active = nil
	return stopRegistration(reg)
}

func stopRegistration(reg *registration) error {
	stopErr := winmsg.PostQuit(reg.threadID)
	if stopErr != nil {
		// UnregisterHotKey only succeeds on the owning thread; try anyway.
		if err := unregisterHotKeyFn(reg.hotkeyID); err != nil {
			slog.Warn("[hotkey] DEBUG cross-thread unregister failed",
				"error", err, "hotkeyID", reg.hotkeyID)
		}
	}

	timer := time.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-reg.done:
	case <-timer.C:
		slog.Warn("[hotkey] DEBUG message loop stop timed out, thread may leak",
			"hotkeyID", reg.hotkeyID)
		stopErr = errors.Join(stopErr, fmt.Errorf("hotkey message loop stop timed out (hotkeyID=%d)", reg.hotkeyID))
	}
	return stopErr
}

func runHotkeyLoop(hotkeyID int32, binding Binding, onTrigger *atomic.Pointer[func()], readyCh chan<- loopReady, done chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)

	threadID, err := winmsg.EnsureQueue()
	if err != nil {
		readyCh <- loopReady{err: err}
		return
	}

	if err := registerHotKeyFn(hotkeyID, binding.Modifiers()|modNoRepeat, binding.Key()); err != nil {
		readyCh <- loopReady{err: err}
		return
	}
	defer func() {
		if err := unregisterHotKeyFn(hotkeyID); err != nil {
			slog.Error("[hotkey] DEBUG unregister on loop exit failed",
				"error", err, "hotkeyID", hotkeyID)
		}
	}()

	readyCh <- loopReady{threadID: threadID}

	for {
		var msg winmsg.Msg
		ok, err := winmsg.Get(&msg)
		if err != nil {
			slog.Warn("[hotkey] DEBUG message loop failed, exiting", "error", err, "hotkeyID", hotkeyID)
			return
		}
		if !ok {
			slog.Debug("[hotkey] message loop received WM_QUIT", "hotkeyID", hotkeyID)
			return
		}
		if msg.Message == wmHotkey && int32(msg.WParam) == hotkeyID {
			go (*onTrigger.Load())()
			continue
		}
		winmsg.Dispatch(&msg)
	}
}

func registerHotKey(hotkeyID int32, modifiers Modifier, key VKey) error {
	res, _, err := procRegisterHotKey.Call(0, uintptr(hotkeyID), uintptr(modifiers), uintptr(key))
	if res != 0 {
		return nil
	}
	if err == windows.Errno(0) {
		return errors.New("RegisterHotKey failed")
	}
	return err
}

func unregisterHotKey(hotkeyID int32) error {
	res, _, err := procUnregisterHotKey.Call(0, uintptr(hotkeyID))
	if res != 0 {
		return nil
	}
	if err == windows.Errno(0) {
		return errors.New("UnregisterHotKey failed")
	}
	return err
}
