package main

import (
	"errors"
	"log/slog"

	"clickmods/internal/ipc"
)

var errShuttingDown = errors.New("agent is shutting down")

// Execute serves one control request from the pipe.
func (a *App) Execute(req ipc.ControlRequest) ipc.ControlResponse {
	switch req.Command {
	case ipc.CommandStatus:
		return a.okResponse(req, "")

	case ipc.CommandPause:
		if err := a.pause(); err != nil {
			return ipc.ErrorResponse(req, "pause failed: %v", err)
		}
		return a.okResponse(req, "paused")

	case ipc.CommandResume:
		if err := a.resume(); err != nil {
			return ipc.ErrorResponse(req, "resume failed: %v", err)
		}
		return a.okResponse(req, "resumed")

	case ipc.CommandToggle:
		installed, err := a.toggle()
		if err != nil {
			return ipc.ErrorResponse(req, "toggle failed: %v", err)
		}
		if installed {
			return a.okResponse(req, "resumed")
		}
		return a.okResponse(req, "paused")

	case ipc.CommandRelease:
		a.hook.ForceRelease()
		return a.okResponse(req, "modifiers released")

	case ipc.CommandQuit:
		slog.Info("[ipc] quit requested", "requestID", req.ID)
		a.requestShutdown()
		return ipc.ControlResponse{ID: req.ID, OK: true, Message: "shutting down"}
	}
	return ipc.ErrorResponse(req, "unknown command %q", req.Command)
}

func (a *App) okResponse(req ipc.ControlRequest, message string) ipc.ControlResponse {
	return ipc.ControlResponse{
		ID:      req.ID,
		OK:      true,
		Message: message,
		Status:  a.status(),
	}
}

func (a *App) pause() error {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.paused = true
	return a.uninstallLocked()
}

func (a *App) resume() error {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.paused = false
	return a.installLocked()
}

// toggle pauses a live hook or resumes a missing one, and reports whether
// the hook is installed afterwards.
func (a *App) toggle() (bool, error) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	if a.hook.Installed() {
		a.paused = true
		return false, a.uninstallLocked()
	}
	a.paused = false
	if err := a.installLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// onHotkey runs on its own goroutine for every press of the toggle hotkey.
func (a *App) onHotkey() {
	defer func() {
		recoverBackgroundPanic("hotkey-toggle", recover())
	}()
	installed, err := a.toggle()
	if err != nil {
		slog.Warn("[hotkey] toggle failed", "error", err)
		return
	}
	slog.Info("[hotkey] toggled mouse hook", "installed", installed)
}

func (a *App) installLocked() error {
	if a.shuttingDown.Load() {
		return errShuttingDown
	}
	if a.hook.Installed() {
		return nil
	}
	if _, err := a.hook.Install(); err != nil {
		slog.Error("[DEBUG-HOOK] mouse hook registration failed", "error", err)
		return err
	}
	return nil
}

func (a *App) uninstallLocked() error {
	h := a.hook.Handle()
	if h == 0 {
		return nil
	}
	return a.hook.Uninstall(h)
}
