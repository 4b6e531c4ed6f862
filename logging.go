package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"clickmods/internal/config"
	"clickmods/internal/sessionlog"
)

// agentLogging is the process-wide slog setup of a running agent.
type agentLogging struct {
	level    *slog.LevelVar
	warnings *sessionlog.Ring
	file     *os.File
}

// newAgentLogger writes text records to out at the level held by level and
// tees WARN and above into warnings.
func newAgentLogger(out io.Writer, level *slog.LevelVar, warnings *sessionlog.Ring) *slog.Logger {
	base := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(sessionlog.NewTeeHandler(base, slog.LevelWarn, warnings.Add))
}

// setupLogging installs the default logger for cfg. An unusable log_file
// falls back to stderr with a warning.
func setupLogging(cfg config.Config) *agentLogging {
	l := &agentLogging{
		level:    new(slog.LevelVar),
		warnings: sessionlog.NewRing(sessionlog.DefaultRingSize),
	}
	l.level.Set(cfg.SlogLevel())

	var out io.Writer = os.Stderr
	var openErr error
	if cfg.LogFile != "" {
		l.file, openErr = openLogFile(cfg.LogFile)
		if openErr == nil {
			out = l.file
		}
	}
	slog.SetDefault(newAgentLogger(out, l.level, l.warnings))
	if openErr != nil {
		slog.Warn("[WARN-CONFIG] log file unavailable, logging to stderr", "path", cfg.LogFile, "error", openErr)
	}
	return l
}

func (l *agentLogging) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
