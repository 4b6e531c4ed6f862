package main

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"clickmods/internal/config"
	"clickmods/internal/inputhook"
	"clickmods/internal/ipc"
	"clickmods/internal/sessionlog"
)

// hookController is the part of inputhook.Manager the agent drives.
type hookController interface {
	Install() (inputhook.HookHandle, error)
	Uninstall(h inputhook.HookHandle) error
	ForceRelease()
	Close() error
	Installed() bool
	Handle() inputhook.HookHandle
	Stats() inputhook.Stats
}

// hotkeyController is the part of hotkeys.Manager the agent drives.
type hotkeyController interface {
	Start(spec string, onTrigger func()) error
	Stop() error
	ActiveBinding() string
}

// App is the running agent: it owns the mouse hook, the toggle hotkey,
// the control pipe and the config watcher.
type App struct {
	instanceID string
	startedAt  time.Time
	configPath string
	pipeName   string

	hook    hookController
	hotkeys hotkeyController

	// Lock ordering: stateMu is never held while calling into hotkeys, since
	// a hotkey trigger re-enters toggle().
	stateMu sync.Mutex
	cfg     config.Config
	// paused is a runtime override set by pause/toggle. It survives config
	// reloads that leave `enabled` unchanged.
	paused bool

	logLevel *slog.LevelVar
	warnings *sessionlog.Ring

	cancelMu     sync.Mutex
	cancel       context.CancelFunc
	shuttingDown atomic.Bool
}

func newApp(cfg config.Config, configPath string, hook hookController, hk hotkeyController, logLevel *slog.LevelVar, warnings *sessionlog.Ring) *App {
	if logLevel == nil {
		logLevel = new(slog.LevelVar)
	}
	return &App{
		instanceID: uuid.NewString(),
		startedAt:  time.Now(),
		configPath: configPath,
		pipeName:   ipc.DefaultPipeName(),
		hook:       hook,
		hotkeys:    hk,
		cfg:        config.Clone(cfg),
		logLevel:   logLevel,
		warnings:   warnings,
	}
}

func (a *App) configSnapshot() config.Config {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return config.Clone(a.cfg)
}

func (a *App) status() *ipc.Status {
	a.stateMu.Lock()
	paused := a.paused
	a.stateMu.Unlock()

	st := &ipc.Status{
		InstanceID: a.instanceID,
		Installed:  a.hook.Installed(),
		Paused:     paused,
		Stats:      a.hook.Stats(),
		ConfigPath: a.configPath,
		StartedAt:  a.startedAt,
	}
	if a.warnings != nil {
		st.RecentWarnings = a.warnings.Snapshot()
	}
	return st
}

// requestShutdown cancels the run context. Safe before Run and after it.
func (a *App) requestShutdown() {
	a.cancelMu.Lock()
	cancel := a.cancel
	a.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}
}
