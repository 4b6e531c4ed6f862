package ipc

import (
	"bufio"
	"fmt"
	"time"
)

const (
	defaultPipeDialTimeout = 3 * time.Second
	defaultPipeRWTimeout   = 10 * time.Second
)

var dialPipeFn = dialPipe

// Send delivers req to the agent listening on pipeName and returns its
// response. An empty pipeName uses DefaultPipeName.
func Send(pipeName string, req ControlRequest) (ControlResponse, error) {
	if pipeName == "" {
		pipeName = DefaultPipeName()
	}

	conn, err := dialPipeFn(pipeName, defaultPipeDialTimeout)
	if err != nil {
		return ControlResponse{}, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(defaultPipeRWTimeout)); err != nil {
		return ControlResponse{}, fmt.Errorf("set deadline: %w", err)
	}

	rawReq, err := encodeRequest(req)
	if err != nil {
		return ControlResponse{}, err
	}
	if err := writeFrame(conn, rawReq); err != nil {
		return ControlResponse{}, err
	}

	respRaw, err := readDelimitedFrame(bufio.NewReaderSize(conn, maxPipeResponseBytes+1), maxPipeResponseBytes)
	if err != nil {
		return ControlResponse{}, err
	}
	resp, err := decodeResponse(respRaw)
	if err != nil {
		return ControlResponse{}, fmt.Errorf("invalid response: %w", err)
	}
	if req.ID != "" && resp.ID != "" && resp.ID != req.ID {
		return resp, fmt.Errorf("response id %q does not match request id %q", resp.ID, req.ID)
	}
	return resp, nil
}
