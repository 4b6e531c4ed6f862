//go:build windows

package singleinstance

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sys/windows"
)

// Lock holds a named mutex. The kernel releases it when the process exits.
type Lock struct {
	handle windows.Handle
	name   string
}

// TryLock acquires the named mutex, or returns ErrAlreadyRunning when
// another process owns it.
func TryLock(name string) (*Lock, error) {
	if name == "" {
		return nil, errors.New("mutex name is required")
	}
	nameUTF16, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("invalid mutex name %q: %w", name, err)
	}
	h, err := windows.CreateMutex(nil, true, nameUTF16)
	if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		if h != 0 {
			windows.CloseHandle(h)
		}
		return nil, ErrAlreadyRunning
	}
	if err != nil {
		if h != 0 {
			windows.CloseHandle(h)
		}
		return nil, fmt.Errorf("CreateMutex %q: %w", name, err)
	}
	slog.Debug("[DEBUG-SINGLE] acquired instance mutex", "name", name)
	return &Lock{handle: h, name: name}, nil
}

// Release closes the mutex handle. Nil-safe and idempotent.
func (l *Lock) Release() error {
	if l == nil || l.handle == 0 {
		return nil
	}
	err := windows.CloseHandle(l.handle)
	l.handle = 0
	slog.Debug("[DEBUG-SINGLE] released instance mutex", "name", l.name)
	return err
}
