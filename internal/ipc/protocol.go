// Package ipc is the control channel between a running clickmods agent and
// its command-line clients: one newline-terminated JSON request and one
// response per connection over a per-user named pipe.
package ipc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"clickmods/internal/inputhook"
	"clickmods/internal/sessionlog"
	"clickmods/internal/userutil"
)

var pipeNamePattern = regexp.MustCompile(`(?i)^\\\\\.\\pipe\\clickmods-[a-z0-9._-]{1,128}$`)

const (
	defaultPipePrefix = `\\.\pipe\clickmods-`
	pipeNameEnv       = "CLICKMODS_PIPE"
)

// Command is a control verb understood by the agent.
type Command string

const (
	CommandStatus  Command = "status"
	CommandPause   Command = "pause"
	CommandResume  Command = "resume"
	CommandToggle  Command = "toggle"
	CommandRelease Command = "release"
	CommandQuit    Command = "quit"
)

var knownCommands = []Command{
	CommandStatus,
	CommandPause,
	CommandResume,
	CommandToggle,
	CommandRelease,
	CommandQuit,
}

// Commands lists every supported command in display order.
func Commands() []Command {
	out := make([]Command, len(knownCommands))
	copy(out, knownCommands)
	return out
}

// ParseCommand matches s case-insensitively against the known commands.
func ParseCommand(s string) (Command, error) {
	candidate := Command(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range knownCommands {
		if c == candidate {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown command %q", s)
}

// ControlRequest is one client request.
type ControlRequest struct {
	ID      string  `json:"id"`
	Command Command `json:"command"`
}

// NewRequest returns a request for cmd with a fresh correlation ID.
func NewRequest(cmd Command) ControlRequest {
	return ControlRequest{ID: uuid.NewString(), Command: cmd}
}

// Status is the agent state reported by the status command.
type Status struct {
	InstanceID     string             `json:"instance_id"`
	Installed      bool               `json:"installed"`
	Paused         bool               `json:"paused"`
	Stats          inputhook.Stats    `json:"stats"`
	RecentWarnings []sessionlog.Entry `json:"recent_warnings,omitempty"`
	ConfigPath     string             `json:"config_path,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
}

// ControlResponse answers a ControlRequest. ID echoes the request ID.
type ControlResponse struct {
	ID      string  `json:"id"`
	OK      bool    `json:"ok"`
	Message string  `json:"message,omitempty"`
	Status  *Status `json:"status,omitempty"`
}

// ErrorResponse builds a failed response for req.
func ErrorResponse(req ControlRequest, format string, args ...any) ControlResponse {
	return ControlResponse{ID: req.ID, OK: false, Message: fmt.Sprintf(format, args...)}
}

// CommandExecutor handles one control request.
type CommandExecutor interface {
	Execute(req ControlRequest) ControlResponse
}

// CommandExecutorFunc adapts a function to CommandExecutor.
type CommandExecutorFunc func(req ControlRequest) ControlResponse

func (f CommandExecutorFunc) Execute(req ControlRequest) ControlResponse { return f(req) }

// DefaultPipeName returns the pipe path to use. CLICKMODS_PIPE overrides it
// when the value matches the clickmods pipe pattern; otherwise the name is
// derived from the current user.
func DefaultPipeName() string {
	if v, ok := trustedPipeNameFromEnv(); ok {
		return v
	}
	return defaultPipePrefix + userutil.SanitizeUsername(userutil.CurrentUsername())
}

func trustedPipeNameFromEnv() (string, bool) {
	value := strings.TrimSpace(os.Getenv(pipeNameEnv))
	if value == "" {
		return "", false
	}
	if !pipeNamePattern.MatchString(value) {
		slog.Warn("[ipc] "+pipeNameEnv+" rejected: value does not match allowed pattern", "value", value)
		return "", false
	}
	return value, true
}

func encodeRequest(req ControlRequest) ([]byte, error) {
	return json.Marshal(req)
}

func decodeRequest(raw []byte) (ControlRequest, error) {
	var req ControlRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return ControlRequest{}, err
	}
	req.Command = Command(strings.ToLower(strings.TrimSpace(string(req.Command))))
	if req.Command == "" {
		return req, fmt.Errorf("command is required")
	}
	return req, nil
}

func encodeResponse(resp ControlResponse) ([]byte, error) {
	return json.Marshal(resp)
}

func decodeResponse(raw []byte) (ControlResponse, error) {
	var resp ControlResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ControlResponse{}, err
	}
	return resp, nil
}
