//go:build windows

package inputhook

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"clickmods/internal/winmsg"

	"golang.org/x/sys/windows"
)

var (
	user32DLL = windows.NewLazySystemDLL("user32.dll")

	procSetWindowsHookExW   = user32DLL.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32DLL.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32DLL.NewProc("UnhookWindowsHookEx")
)

const (
	whMouseLL = 14
	// wmRunCall asks the hook thread to drain its call queue.
	wmRunCall = winmsg.WMApp + 1
)

// activeSession is the Interceptor the OS callback dispatches to. It is
// non-nil only while a hook is installed, which also enforces one hook
// per process.
var activeSession atomic.Pointer[Interceptor]

// hookCallback is created once: windows.NewCallback slots are never freed.
var hookCallback = sync.OnceValue(func() uintptr {
	return windows.NewCallback(lowLevelMouseProc)
})

func lowLevelMouseProc(nCode, wParam, lParam uintptr) uintptr {
	ev := HookEvent{Code: int32(nCode), Message: wParam, Payload: lParam}
	if ic := activeSession.Load(); ic != nil {
		return ic.Process(ev)
	}
	return callNextHook(ev)
}

func callNextHook(ev HookEvent) uintptr {
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(ev.Code), ev.Message, ev.Payload)
	return ret
}

type systemBackend struct{}

func newSystemBackend() hookBackend { return systemBackend{} }

func (systemBackend) next() NextHook { return NextHookFunc(callNextHook) }

type loopReady struct {
	threadID uint32
	hook     HookHandle
	err      error
}

type loopCall struct {
	fn   func()
	done chan struct{}
}

type winHookLoop struct {
	hook     HookHandle
	threadID uint32
	calls    chan loopCall
	doneCh   chan struct{}
}

func (systemBackend) start(ic *Interceptor) (hookLoop, error) {
	if err := winmsg.Load(); err != nil {
		return nil, &RegistrationError{Op: "load user32", Err: err}
	}
	for _, p := range []*windows.LazyProc{procSetWindowsHookExW, procCallNextHookEx, procUnhookWindowsHookEx, procKeybdEvent} {
		if err := p.Find(); err != nil {
			return nil, &RegistrationError{Op: "load user32", Err: err}
		}
	}

	readyCh := make(chan loopReady, 1)
	loop := &winHookLoop{
		calls:  make(chan loopCall, 1),
		doneCh: make(chan struct{}),
	}
	go loop.run(ic, readyCh)

	ready := <-readyCh
	if ready.err != nil {
		return nil, ready.err
	}
	loop.hook = ready.hook
	loop.threadID = ready.threadID
	return loop, nil
}

func (l *winHookLoop) handle() HookHandle { return l.hook }

func (l *winHookLoop) run(ic *Interceptor, readyCh chan<- loopReady) {
	// Low-level hook callbacks are delivered on the installing thread while
	// it pumps messages, so the loop must own its OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.doneCh)

	threadID, err := winmsg.EnsureQueue()
	if err != nil {
		readyCh <- loopReady{err: &RegistrationError{Op: "create message queue", Err: err}}
		return
	}

	var module windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &module); err != nil {
		readyCh <- loopReady{err: &RegistrationError{Op: "GetModuleHandleExW", Err: err}}
		return
	}

	if !activeSession.CompareAndSwap(nil, ic) {
		readyCh <- loopReady{err: &RegistrationError{Op: "install", Err: ErrAlreadyInstalled}}
		return
	}
	h, _, callErr := procSetWindowsHookExW.Call(whMouseLL, hookCallback(), uintptr(module), 0)
	if h == 0 {
		activeSession.Store(nil)
		if callErr == windows.Errno(0) {
			callErr = errors.New("SetWindowsHookExW returned NULL")
		}
		readyCh <- loopReady{err: &RegistrationError{Op: "SetWindowsHookExW", Err: callErr}}
		return
	}
	defer func() {
		// Detach first so nothing can press the modifiers again, then
		// release them, then unhook.
		activeSession.CompareAndSwap(ic, nil)
		ic.ForceRelease()
		if err := unhook(h); err != nil {
			slog.Error("[DEBUG-HOOK] UnhookWindowsHookEx on loop exit failed", "error", err, "handle", h)
		}
	}()

	readyCh <- loopReady{threadID: threadID, hook: HookHandle(h)}

	for {
		var msg winmsg.Msg
		more, err := winmsg.Get(&msg)
		if err != nil {
			slog.Warn("[DEBUG-HOOK] message loop failed, exiting", "error", err, "handle", h)
			return
		}
		if !more {
			slog.Debug("[DEBUG-HOOK] message loop received WM_QUIT, exiting normally", "handle", h)
			return
		}
		if msg.Message == wmRunCall {
			l.drainCalls()
			continue
		}
		winmsg.Dispatch(&msg)
	}
}

func (l *winHookLoop) drainCalls() {
	for {
		select {
		case c := <-l.calls:
			c.fn()
			close(c.done)
		default:
			return
		}
	}
}

func (l *winHookLoop) call(fn func(), timeout time.Duration) error {
	c := loopCall{fn: fn, done: make(chan struct{})}
	select {
	case l.calls <- c:
	default:
		return errors.New("hook thread call queue is full")
	}
	if err := winmsg.Post(l.threadID, wmRunCall, 0, 0); err != nil {
		// Take the request back so it cannot run twice.
		select {
		case <-l.calls:
		default:
		}
		return fmt.Errorf("post call to hook thread: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-c.done:
		return nil
	case <-l.doneCh:
		select {
		case <-c.done:
			return nil
		default:
			return errors.New("hook thread exited before running call")
		}
	case <-timer.C:
		return fmt.Errorf("hook thread call timed out after %s", timeout)
	}
}

func (l *winHookLoop) exited() bool {
	select {
	case <-l.doneCh:
		return true
	default:
		return false
	}
}

func (l *winHookLoop) stop(timeout time.Duration) error {
	stopErr := winmsg.PostQuit(l.threadID)
	if stopErr != nil {
		stopErr = fmt.Errorf("post WM_QUIT to hook thread: %w", stopErr)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-l.doneCh:
	case <-timer.C:
		slog.Warn("[DEBUG-HOOK] message loop stop timed out, thread may leak", "handle", uintptr(l.hook))
		stopErr = errors.Join(stopErr, fmt.Errorf("mouse hook loop stop timed out (handle=%#x)", uintptr(l.hook)))
	}
	return stopErr
}

func unhook(h uintptr) error {
	res, _, err := procUnhookWindowsHookEx.Call(h)
	if res != 0 {
		return nil
	}
	if err == windows.Errno(0) {
		return errors.New("UnhookWindowsHookEx failed")
	}
	return err
}
