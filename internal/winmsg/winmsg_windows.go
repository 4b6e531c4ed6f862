//go:build windows

// Package winmsg wraps the Win32 thread message queue primitives shared by
// the threads that own global hooks and hotkeys.
package winmsg

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32DLL = windows.NewLazySystemDLL("user32.dll")

	procGetMessageW        = user32DLL.NewProc("GetMessageW")
	procPeekMessageW       = user32DLL.NewProc("PeekMessageW")
	procTranslateMessage   = user32DLL.NewProc("TranslateMessage")
	procDispatchMessageW   = user32DLL.NewProc("DispatchMessageW")
	procPostThreadMessageW = user32DLL.NewProc("PostThreadMessageW")
)

const (
	WMQuit = 0x0012
	// WMApp is the first message number free for private thread messages.
	WMApp = 0x8000

	pmNoRemove = 0x0000
)

// Point mirrors the Win32 POINT struct.
type Point struct {
	X int32
	Y int32
}

// Msg mirrors the Win32 MSG struct (tagMSG from winuser.h).
// Field order and types must not be changed -- the layout must match
// the Win32 binary layout on both 32-bit and 64-bit Windows.
type Msg struct {
	HWnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       Point
	lPrivate uint32 // reserved by Windows; required for correct struct size
}

// Load reports whether user32.dll and the message procs are available, so
// callers fail cleanly instead of panicking inside LazyProc.Call.
func Load() error {
	if err := user32DLL.Load(); err != nil {
		return fmt.Errorf("user32.dll is unavailable: %w", err)
	}
	for _, p := range []*windows.LazyProc{procGetMessageW, procPeekMessageW, procPostThreadMessageW} {
		if err := p.Find(); err != nil {
			return fmt.Errorf("user32.dll proc %s: %w", p.Name, err)
		}
	}
	return nil
}

// EnsureQueue forces Windows to create the calling thread's message queue so
// PostThreadMessageW from other threads can reach it. Returns the thread ID.
func EnsureQueue() (uint32, error) {
	threadID := windows.GetCurrentThreadId()
	if threadID == 0 {
		return 0, errors.New("GetCurrentThreadId returned 0")
	}
	// Queue creation is a side effect of the call; a zero return only means
	// the queue was empty.
	var msg Msg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0, pmNoRemove)
	return threadID, nil
}

// Get blocks for the next message. It returns false on WM_QUIT and an error
// when GetMessageW fails.
func Get(msg *Msg) (bool, error) {
	ret, _, lastErr := procGetMessageW.Call(uintptr(unsafe.Pointer(msg)), 0, 0, 0)
	switch int32(ret) {
	case -1:
		return false, fmt.Errorf("GetMessageW: %w", lastErr)
	case 0:
		return false, nil
	}
	return true, nil
}

// Dispatch runs the default translation and dispatch for msg. The return
// values are informational for a window-less thread and are ignored.
func Dispatch(msg *Msg) {
	procTranslateMessage.Call(uintptr(unsafe.Pointer(msg)))
	procDispatchMessageW.Call(uintptr(unsafe.Pointer(msg)))
}

// Post sends a thread message to threadID.
func Post(threadID uint32, message uint32, wParam, lParam uintptr) error {
	if threadID == 0 {
		return errors.New("cannot post thread message: threadID is 0")
	}
	res, _, err := procPostThreadMessageW.Call(uintptr(threadID), uintptr(message), wParam, lParam)
	if res != 0 {
		return nil
	}
	if err == windows.Errno(0) {
		return errors.New("PostThreadMessageW failed")
	}
	return err
}

// PostQuit asks the loop on threadID to exit.
func PostQuit(threadID uint32) error {
	return Post(threadID, WMQuit, 0, 0)
}
