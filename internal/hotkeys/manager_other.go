//go:build !windows

package hotkeys

import (
	"errors"
	"log/slog"
	"sync"
)

// Manager validates the toggle binding but never registers it: global
// hotkeys exist only on Windows.
type Manager struct {
	mu     sync.Mutex
	active Binding
}

func NewManager() *Manager {
	return &Manager{}
}

// Start parses spec and records it. onTrigger never fires on this platform.
func (m *Manager) Start(spec string, onTrigger func()) error {
	if onTrigger == nil {
		return errors.New("onTrigger callback is required")
	}
	binding, err := ParseBinding(spec)
	if err != nil {
		return err
	}

	slog.Warn("[hotkey] global hotkeys are not supported on this platform; binding validated but will never fire",
		"binding", binding.Normalized())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = binding
	return nil
}

func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = Binding{}
	return nil
}

func (m *Manager) ActiveBinding() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active.Normalized()
}
