//go:build !windows

package ipc

import (
	"fmt"
	"net"
	"time"
)

func dialPipe(pipeName string, _ time.Duration) (net.Conn, error) {
	return nil, fmt.Errorf("dial %s: %w: named pipes require windows", pipeName, errPipeUnavailable)
}

func listenPipe(pipeName string) (net.Listener, error) {
	return nil, fmt.Errorf("listen %s: %w: named pipes require windows", pipeName, errPipeUnavailable)
}
