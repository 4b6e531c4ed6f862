package singleinstance

import (
	"strings"
	"testing"
)

func TestDefaultMutexName(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     string
	}{
		{name: "plain user", username: "alice", want: `Global\clickmods-alice`},
		{name: "domain user", username: `CORP\bob`, want: `Global\clickmods-CORP_bob`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("USERNAME", tt.username)
			if got := DefaultMutexName(); got != tt.want {
				t.Fatalf("DefaultMutexName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultMutexNameWithoutUsernameEnv(t *testing.T) {
	t.Setenv("USERNAME", "")
	name := DefaultMutexName()
	if !strings.HasPrefix(name, mutexPrefix) || name == mutexPrefix {
		t.Fatalf("DefaultMutexName() = %q, want non-empty suffix after %q", name, mutexPrefix)
	}
}
