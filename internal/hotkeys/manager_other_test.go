//go:build !windows

package hotkeys

import "testing"

func TestManagerRecordsBindingWithoutRegistering(t *testing.T) {
	m := NewManager()
	if err := m.Start("alt+ctrl+f12", func() {}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := m.ActiveBinding(); got != "Ctrl+Alt+F12" {
		t.Fatalf("ActiveBinding() = %q, want Ctrl+Alt+F12", got)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if got := m.ActiveBinding(); got != "" {
		t.Fatalf("ActiveBinding() after Stop = %q, want empty", got)
	}
}

func TestManagerStartErrors(t *testing.T) {
	m := NewManager()
	if err := m.Start("Ctrl+Alt+F12", nil); err == nil {
		t.Fatal("Start() expected error for nil callback")
	}
	if err := m.Start("F12", func() {}); err == nil {
		t.Fatal("Start() expected error for binding without modifiers")
	}
	if got := m.ActiveBinding(); got != "" {
		t.Fatalf("ActiveBinding() = %q after failed Start", got)
	}
}

func TestManagerFailedStartKeepsPreviousBinding(t *testing.T) {
	m := NewManager()
	if err := m.Start("Ctrl+Alt+F12", func() {}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.Start("Ctrl+Hyper", func() {}); err == nil {
		t.Fatal("Start() expected error for unknown key")
	}
	if got := m.ActiveBinding(); got != "Ctrl+Alt+F12" {
		t.Fatalf("ActiveBinding() = %q after failed Start, want Ctrl+Alt+F12", got)
	}
}
