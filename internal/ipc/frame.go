package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
)

const (
	maxPipeRequestBytes  = 4 * 1024
	maxPipeResponseBytes = 64 * 1024
)

// readDelimitedFrame reads one newline-terminated frame of at most maxBytes.
// The reader must be sized maxBytes+1. A final frame without a delimiter is
// accepted at EOF; an empty stream returns io.EOF.
func readDelimitedFrame(reader *bufio.Reader, maxBytes int) ([]byte, error) {
	raw, err := reader.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("frame exceeds %d bytes", maxBytes)
	}
	if errors.Is(err, io.EOF) {
		if len(raw) == 0 {
			return nil, io.EOF
		}
		return raw, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func writeFrame(w io.Writer, payload []byte) error {
	framed := make([]byte, 0, len(payload)+1)
	framed = append(framed, payload...)
	framed = append(framed, '\n')
	_, err := w.Write(framed)
	return err
}

// errPipeUnavailable is returned by the transport when no pipe can be opened
// on this platform.
var errPipeUnavailable = errors.New("control pipe unavailable")

// IsConnectionError reports whether err means no agent is listening.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errPipeUnavailable) || errors.Is(err, os.ErrNotExist) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Op == "open"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial" || opErr.Op == "open"
	}
	return false
}
