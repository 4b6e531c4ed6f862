// Package singleinstance keeps one clickmods agent per user session.
package singleinstance

import (
	"errors"

	"clickmods/internal/userutil"
)

// ErrAlreadyRunning is returned by TryLock when another instance holds the mutex.
var ErrAlreadyRunning = errors.New("another instance is already running")

const mutexPrefix = `Global\clickmods-`

// DefaultMutexName returns the per-user mutex name. It mirrors
// ipc.DefaultPipeName so both resources identify the same agent.
func DefaultMutexName() string {
	return mutexPrefix + userutil.SanitizeUsername(userutil.CurrentUsername())
}
