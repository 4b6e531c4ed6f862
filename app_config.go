package main

import (
	"log/slog"

	"clickmods/internal/config"
)

// applyConfig is the config watcher callback. `enabled` is only acted on
// when it changes so a runtime pause survives unrelated edits.
func (a *App) applyConfig(next config.Config) {
	a.stateMu.Lock()
	prev := a.cfg
	a.cfg = config.Clone(next)
	a.logLevel.Set(next.SlogLevel())

	var hookErr error
	if prev.Enabled != next.Enabled {
		a.paused = false
		if next.Enabled {
			hookErr = a.installLocked()
		} else {
			hookErr = a.uninstallLocked()
		}
	}
	a.stateMu.Unlock()

	if hookErr != nil {
		slog.Warn("[config] failed to apply enabled", "enabled", next.Enabled, "error", hookErr)
	}
	if prev.LogFile != next.LogFile {
		slog.Warn("[WARN-CONFIG] log_file change takes effect after restart", "logFile", next.LogFile)
	}
	if prev.WatchConfig != next.WatchConfig {
		slog.Warn("[WARN-CONFIG] watch_config change takes effect after restart", "watchConfig", next.WatchConfig)
	}
	if prev.ToggleHotkey != next.ToggleHotkey {
		a.configureHotkey(next.ToggleHotkey)
	}
	slog.Debug("[DEBUG-CONFIG] config applied",
		"enabled", next.Enabled,
		"logLevel", next.LogLevel,
		"toggleHotkey", next.ToggleHotkey,
	)
}

// configureHotkey registers spec as the toggle hotkey. An empty spec
// disables it. A spec that fails to parse or register leaves the previous
// binding live.
func (a *App) configureHotkey(spec string) {
	if spec == "" {
		if err := a.hotkeys.Stop(); err != nil {
			slog.Warn("[hotkey] failed to unregister toggle hotkey", "error", err)
		}
		slog.Info("[hotkey] toggle hotkey disabled")
		return
	}
	if err := a.hotkeys.Start(spec, a.onHotkey); err != nil {
		slog.Warn("[hotkey] failed to register toggle hotkey",
			"spec", spec,
			"active", a.hotkeys.ActiveBinding(),
			"error", err,
		)
	}
}
