//go:build windows

package ipc

import (
	"errors"
	"fmt"
	"net"
	"os/user"
	"regexp"
	"strings"
	"time"

	"github.com/Microsoft/go-winio"
)

var currentUserSIDFn = func() (string, error) {
	current, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("resolve current user: %w", err)
	}
	return current.Uid, nil
}

func dialPipe(pipeName string, timeout time.Duration) (net.Conn, error) {
	return winio.DialPipe(pipeName, &timeout)
}

// listenPipe creates a pipe listener restricted to SYSTEM and the current
// user so other local accounts cannot drive the agent.
func listenPipe(pipeName string) (net.Listener, error) {
	securityDescriptor, err := pipeSecurityDescriptor()
	if err != nil {
		return nil, err
	}
	return winio.ListenPipe(pipeName, &winio.PipeConfig{
		SecurityDescriptor: securityDescriptor,
		MessageMode:        false,
		InputBufferSize:    int32(maxPipeRequestBytes),
		OutputBufferSize:   int32(maxPipeResponseBytes),
	})
}

var validSIDPattern = regexp.MustCompile(`^S-1(-\d+)+$`)

func pipeSecurityDescriptor() (string, error) {
	uid, err := currentUserSIDFn()
	if err != nil {
		return "", err
	}
	sid := strings.TrimSpace(uid)
	if sid == "" {
		return "", errors.New("current user SID is unavailable")
	}
	if !validSIDPattern.MatchString(sid) {
		return "", fmt.Errorf("current user SID has unexpected format: %s", sid)
	}
	// D:P protected DACL; GA for SYSTEM and the current user only.
	return fmt.Sprintf("D:P(A;;GA;;;SY)(A;;GA;;;%s)", sid), nil
}
