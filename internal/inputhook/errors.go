package inputhook

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyInstalled is returned when the process already owns a live hook.
	ErrAlreadyInstalled = errors.New("a global mouse hook is already installed in this process")
	// ErrUnsupported is returned on platforms without a low-level mouse hook.
	ErrUnsupported = errors.New("global mouse hooks are supported only on Windows")
)

// RegistrationError reports that the OS refused to register the hook.
// The feature cannot work without the hook; the host process may keep running.
type RegistrationError struct {
	Op  string
	Err error
}

func (e *RegistrationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("register mouse hook: %s failed", e.Op)
	}
	return fmt.Sprintf("register mouse hook: %s: %v", e.Op, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
