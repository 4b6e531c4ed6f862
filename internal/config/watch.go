package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events an editor or atomicWrite
// produces for a single save. Tests shorten it.
var watchDebounce = 200 * time.Millisecond

var newFSWatcherFn = fsnotify.NewWatcher

// Watch blocks until ctx is done, calling onChange with the reloaded config
// each time the file at path changes to a value other than the last one
// applied. initial is the config the caller is currently running with; the
// file is compared against it once right after the watch is registered, so an
// edit made before Watch started is still delivered.
//
// The parent directory is watched rather than the file itself so that
// replace-by-rename saves keep being observed. Files that fail to load are
// logged and skipped; the previous config stays in effect. Removal or
// truncation of the file is ignored.
func Watch(ctx context.Context, path string, initial Config, onChange func(Config)) error {
	if onChange == nil {
		return errors.New("watch config: onChange is required")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch config: resolve path: %w", err)
	}
	absPath = filepath.Clean(absPath)

	watcher, err := newFSWatcherFn()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil {
			slog.Debug("[DEBUG-CONFIG] close watcher failed", "error", closeErr)
		}
	}()
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watch config: add %s: %w", filepath.Dir(absPath), err)
	}

	last := initial
	slog.Debug("[DEBUG-CONFIG] watching config", "path", absPath)

	// Catch-up check for writes that landed before the directory was watched.
	timer := time.NewTimer(0)
	fire := timer.C
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event, absPath) {
				continue
			}
			timer.Reset(watchDebounce)
			fire = timer.C
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("[WARN-CONFIG] config watcher error", "error", watchErr)
		case <-fire:
			fire = nil
			// An empty file is usually a save still in progress.
			if info, statErr := os.Stat(absPath); statErr != nil || info.Size() == 0 {
				continue
			}
			cfg, err := Load(absPath)
			if err != nil {
				slog.Warn("[WARN-CONFIG] ignoring invalid config change", "path", absPath, "error", err)
				continue
			}
			if cfg == last {
				continue
			}
			last = cfg
			slog.Info("[config] reloaded", "path", absPath)
			onChange(cfg)
		}
	}
}

func relevantEvent(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
