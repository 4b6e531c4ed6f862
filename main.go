package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"clickmods/internal/cli"
	"clickmods/internal/config"
	"clickmods/internal/hotkeys"
	"clickmods/internal/inputhook"
	"clickmods/internal/singleinstance"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run starts the agent when called without arguments; anything else is a
// control command for an agent that is already running.
func run(args []string) int {
	if len(args) > 0 {
		return cli.Run(args, os.Stdout, os.Stderr)
	}
	return runAgent()
}

func runAgent() int {
	// Single-instance check before the hook exists: two agents would each
	// inject a modifier pair per click.
	mutexLock, err := singleinstance.TryLock(singleinstance.DefaultMutexName())
	if errors.Is(err, singleinstance.ErrAlreadyRunning) {
		slog.Info("[DEBUG-SINGLE] another instance is already running")
		fmt.Fprintln(os.Stderr, "clickmods is already running; use `clickmods status` to inspect it")
		return cli.ExitFailure
	}
	if err != nil {
		slog.Warn("[DEBUG-SINGLE] mutex creation failed, proceeding without single-instance guard", "error", err)
	}
	if mutexLock != nil {
		defer func() {
			if releaseErr := mutexLock.Release(); releaseErr != nil {
				slog.Warn("[DEBUG-SINGLE] mutex release failed", "error", releaseErr)
			}
		}()
	}

	configPath := config.DefaultPath()
	cfg, cfgErr := config.EnsureFile(configPath)
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}

	logging := setupLogging(cfg)
	defer func() {
		if err := logging.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "clickmods: close log file: %v\n", err)
		}
	}()
	for _, message := range config.ConsumeDefaultPathWarnings() {
		slog.Warn("[WARN-CONFIG] " + message)
	}
	if cfgErr != nil {
		slog.Warn("[WARN-CONFIG] failed to load config, running with defaults", "path", configPath, "error", cfgErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(cfg, configPath,
		inputhook.NewManager(inputhook.NewSystemKeySender()),
		hotkeys.NewManager(),
		logging.level,
		logging.warnings,
	)
	if err := app.Run(ctx); err != nil {
		slog.Error("[agent] shutdown reported errors", "error", err)
		return cli.ExitFailure
	}
	return cli.ExitOK
}
