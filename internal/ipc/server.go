package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

const (
	defaultPipeConnTimeout              = 10 * time.Second
	defaultPipeMaxConcurrentConnections = 8
	connSlotAcquireTimeout              = 2 * time.Second
)

// PipeServer answers control requests on a named pipe.
type PipeServer struct {
	pipeName string
	executor CommandExecutor
	listen   func(pipeName string) (net.Listener, error)

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	listener  net.Listener
	started   bool
	wg        sync.WaitGroup
	connSlots chan struct{}
}

// NewPipeServer returns a server for pipeName; empty uses DefaultPipeName.
func NewPipeServer(pipeName string, executor CommandExecutor) *PipeServer {
	ctx, cancel := context.WithCancel(context.Background())
	if pipeName == "" {
		pipeName = DefaultPipeName()
	}
	return &PipeServer{
		pipeName:  pipeName,
		executor:  executor,
		listen:    listenPipe,
		ctx:       ctx,
		cancel:    cancel,
		connSlots: make(chan struct{}, defaultPipeMaxConcurrentConnections),
	}
}

// PipeName returns the listen pipe name.
func (s *PipeServer) PipeName() string {
	return s.pipeName
}

// Start begins listening.
func (s *PipeServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("pipe server already started")
	}
	if s.executor == nil {
		return errors.New("pipe server requires executor")
	}

	listener, err := s.listen(s.pipeName)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.pipeName, err)
	}

	s.listener = listener
	s.started = true
	s.wg.Go(s.acceptLoop)
	slog.Debug("[ipc] pipe server listening", "pipe", s.pipeName)
	return nil
}

// Serve starts the server and blocks until ctx is done, then stops it.
func (s *PipeServer) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

// Stop closes the listener and waits for in-flight connections.
func (s *PipeServer) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.cancel()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()

	if listener != nil {
		if err := listener.Close(); err != nil {
			slog.Warn("[ipc] failed to close pipe listener during shutdown", "error", err)
		}
	}
	s.wg.Wait()
	return nil
}

func (s *PipeServer) acceptLoop() {
	consecutiveErrors := 0
	for {
		s.mu.Lock()
		listener := s.listener
		s.mu.Unlock()
		if listener == nil {
			return
		}

		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			consecutiveErrors++
			if consecutiveErrors > 10 {
				slog.Warn("[ipc] accept loop: repeated failures", "error", err, "count", consecutiveErrors)
				time.Sleep(500 * time.Millisecond)
			} else {
				slog.Debug("[ipc] accept error", "error", err)
			}
			continue
		}
		consecutiveErrors = 0

		if !s.acquireConnectionSlot() {
			s.writeResponse(conn, ControlResponse{OK: false, Message: "server busy, try again later"})
			if closeErr := conn.Close(); closeErr != nil {
				slog.Debug("[ipc] failed to close rejected connection", "error", closeErr)
			}
			continue
		}

		s.wg.Go(func() {
			defer s.releaseConnectionSlot()
			s.handleConnection(conn)
		})
	}
}

// handleConnection serves exactly one request on conn.
func (s *PipeServer) handleConnection(conn net.Conn) {
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(defaultPipeConnTimeout)); err != nil {
		slog.Warn("[ipc] failed to set connection deadline", "error", err)
		return
	}

	reader := bufio.NewReaderSize(conn, maxPipeRequestBytes+1)
	rawReq, err := readDelimitedFrame(reader, maxPipeRequestBytes)
	if errors.Is(err, io.EOF) {
		slog.Debug("[ipc] client disconnected without sending data")
		return
	}
	if err != nil {
		s.writeResponse(conn, ControlResponse{Message: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	req, err := decodeRequest(rawReq)
	if err != nil {
		s.writeResponse(conn, ErrorResponse(req, "invalid request: %v", err))
		return
	}

	slog.Debug("[ipc] received request", "id", req.ID, "command", req.Command)
	s.writeResponse(conn, s.execute(req))
}

// execute shields the accept loop from executor panics.
func (s *PipeServer) execute(req ControlRequest) (resp ControlResponse) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[ipc] executor panicked", "command", req.Command, "panic", r)
			resp = ErrorResponse(req, "internal error")
		}
	}()
	resp = s.executor.Execute(req)
	if resp.ID == "" {
		resp.ID = req.ID
	}
	return resp
}

func (s *PipeServer) writeResponse(conn net.Conn, resp ControlResponse) {
	rawResp, err := encodeResponse(resp)
	if err != nil {
		slog.Warn("[ipc] failed to encode response", "error", err)
		rawResp = []byte(`{"ok":false,"message":"internal encode error"}`)
	}
	if err := writeFrame(conn, rawResp); err != nil {
		slog.Debug("[ipc] failed to write response", "error", err)
	}
}

func (s *PipeServer) acquireConnectionSlot() bool {
	if s.connSlots == nil {
		return true
	}
	timer := time.NewTimer(connSlotAcquireTimeout)
	defer timer.Stop()
	select {
	case s.connSlots <- struct{}{}:
		return true
	case <-timer.C:
		slog.Warn("[ipc] connection slot exhausted, rejecting client")
		return false
	case <-s.ctx.Done():
		return false
	}
}

func (s *PipeServer) releaseConnectionSlot() {
	if s.connSlots == nil {
		return
	}
	select {
	case <-s.connSlots:
	default:
		slog.Warn("[ipc] releaseConnectionSlot: no slot to release")
	}
}
