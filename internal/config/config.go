package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"
)

const (
	maxConfigFileBytes int64 = 1 << 20 // 1MB
	maxRenameRetry           = 10
	// Windows file lock releases (antivirus/indexing) typically settle quickly.
	// Use a short linear backoff: baseDelay * (1..maxRenameRetry).
	renameRetryBaseDelay = 10 * time.Millisecond

	appDirName     = "clickmods"
	configFileName = "config.yaml"
)

// defaultConfigDirFn is a test seam; tests override it to simulate
// directory-resolution failures in validateConfigPath.
var defaultConfigDirFn = defaultConfigDir
var userHomeDirFn = os.UserHomeDir
var yamlUnmarshalConfigMetadataFn = func(raw []byte, out *map[string]any) error {
	return yaml.Unmarshal(raw, out)
}
var defaultPathWarningState struct {
	mu       sync.Mutex
	messages []string
}

var validLogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func recordDefaultPathWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	defaultPathWarningState.mu.Lock()
	defaultPathWarningState.messages = append(defaultPathWarningState.messages, trimmed)
	defaultPathWarningState.mu.Unlock()
}

// ConsumeDefaultPathWarnings returns and clears path-resolution warnings
// accumulated during DefaultPath() calls.
func ConsumeDefaultPathWarnings() []string {
	defaultPathWarningState.mu.Lock()
	defer defaultPathWarningState.mu.Unlock()
	if len(defaultPathWarningState.messages) == 0 {
		return nil
	}
	out := make([]string, len(defaultPathWarningState.messages))
	copy(out, defaultPathWarningState.messages)
	defaultPathWarningState.messages = nil
	return out
}

// Config is clickmods runtime configuration.
type Config struct {
	// Enabled installs the mouse hook at startup and after a reload.
	// A missing key means true.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogFile is an absolute path; empty logs to stderr.
	LogFile string `yaml:"log_file,omitempty" json:"log_file,omitempty"`
	// ToggleHotkey pauses and resumes the hook, e.g. "Ctrl+Alt+F12".
	// Empty disables the hotkey.
	ToggleHotkey string `yaml:"toggle_hotkey" json:"toggle_hotkey"`
	// WatchConfig reloads the file when it changes on disk.
	// A missing key means true.
	WatchConfig bool `yaml:"watch_config" json:"watch_config"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		LogLevel:     "info",
		ToggleHotkey: "Ctrl+Alt+F12",
		WatchConfig:  true,
	}
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values map to Info.
func (c Config) SlogLevel() slog.Level {
	if level, ok := validLogLevels[strings.ToLower(strings.TrimSpace(c.LogLevel))]; ok {
		return level
	}
	return slog.LevelInfo
}

// DefaultPath returns %LOCALAPPDATA%\clickmods\config.yaml, falling back to
// %APPDATA%, ~/.config and finally the temp directory.
func DefaultPath() string {
	base := strings.TrimSpace(os.Getenv("LOCALAPPDATA"))
	if base == "" {
		base = strings.TrimSpace(os.Getenv("APPDATA"))
	}
	if base == "" {
		home, err := userHomeDirFn()
		if err != nil {
			// Keep config path resolvable even in restricted environments.
			slog.Warn("[WARN-CONFIG] using temp dir as config path fallback", "error", err)
			recordDefaultPathWarning(
				"Config path fallback: failed to resolve LOCALAPPDATA/APPDATA/home directory. Using temp directory; settings persistence may be limited.",
			)
			base = os.TempDir()
		} else {
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, appDirName, configFileName)
}

// Load reads path and applies defaults. A missing or empty file yields
// DefaultConfig with no error. On a parse error the defaults are returned
// together with the error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, errors.New("config path required")
	}

	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		slog.Warn("[WARN-CONFIG] failed to parse config, using defaults", "path", path, "error", err)
		return DefaultConfig(), err
	}

	rawMap, metadataErr := parseRawConfigMetadata(raw)
	if metadataErr != nil {
		// Keep the parsed booleans rather than silently overwriting explicit values.
		slog.Warn("[WARN-CONFIG] failed to parse config metadata, preserving parsed values", "error", metadataErr)
	} else {
		defaults := DefaultConfig()
		if _, has := rawMap["enabled"]; !has {
			cfg.Enabled = defaults.Enabled
		}
		if _, has := rawMap["watch_config"]; !has {
			cfg.WatchConfig = defaults.WatchConfig
		}
		warnUnknownFields(rawMap)
	}
	if err := applyDefaultsAndValidate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// EnsureFile loads path and writes the defaults when the file does not exist yet.
func EnsureFile(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if _, err := Save(path, cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Clone returns a copy of src. Config holds no reference types today; the
// helper keeps call sites stable if that changes.
func Clone(src Config) Config {
	return src
}

// Save validates cfg and writes it atomically. The path must live inside
// the default config directory.
func Save(path string, cfg Config) (Config, error) {
	normalizedPath, err := validateConfigPath(path)
	if err != nil {
		return cfg, err
	}
	if err := applyDefaultsAndValidate(&cfg); err != nil {
		return cfg, fmt.Errorf("save config: %w", err)
	}

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return cfg, fmt.Errorf("save config: marshal: %w", err)
	}
	if err := atomicWrite(normalizedPath, raw); err != nil {
		return cfg, err
	}
	slog.Debug("[DEBUG-CONFIG] config saved", "path", path)
	return cfg, nil
}

// atomicWrite writes config data using temp-file + rename to avoid partial
// writes and retries rename on Windows to tolerate transient file locks.
func atomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save config: mkdir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".config.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("save config: create temp: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			if closeErr := tmpFile.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
				slog.Warn("[WARN-CONFIG] failed to close temp file", "path", tmpPath, "error", closeErr)
			}
		}
		if err != nil {
			if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				slog.Warn("[WARN-CONFIG] failed to remove temp file", "path", tmpPath, "error", removeErr)
			}
		}
	}()

	if err = tmpFile.Chmod(0o600); err != nil {
		return fmt.Errorf("save config: chmod temp: %w", err)
	}
	if _, err = tmpFile.Write(data); err != nil {
		return fmt.Errorf("save config: write: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		return fmt.Errorf("save config: sync: %w", err)
	}
	err = tmpFile.Close()
	tmpFile = nil
	if err != nil {
		return fmt.Errorf("save config: close: %w", err)
	}

	if err = renameFileWithRetry(tmpPath, path); err != nil {
		return fmt.Errorf("save config: rename: %w", err)
	}
	return nil
}

// validateConfigPath normalizes path and enforces that config writes stay
// inside the default config directory.
func validateConfigPath(path string) (string, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return "", errors.New("config path required")
	}
	absolutePath, err := filepath.Abs(trimmedPath)
	if err != nil {
		return "", fmt.Errorf("save config: resolve path: %w", err)
	}

	expectedDir, err := defaultConfigDirFn()
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	absoluteExpectedDir, err := filepath.Abs(expectedDir)
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	if !pathWithinDir(absolutePath, absoluteExpectedDir) {
		return "", fmt.Errorf("save config: path outside config directory: %q", absolutePath)
	}
	return absolutePath, nil
}

func defaultConfigDir() (string, error) {
	return filepath.Dir(DefaultPath()), nil
}

// pathWithinDir blocks directory traversal by ensuring path is under dir.
// It also rejects Windows cross-drive escapes because filepath.Rel returns
// an absolute path when roots differ.
func pathWithinDir(path string, dir string) bool {
	relativePath, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	if relativePath == "." {
		return true
	}
	if relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(os.PathSeparator)) {
		return false
	}
	return !filepath.IsAbs(relativePath)
}

// applyDefaultsAndValidate fills missing defaults and validates cfg in-place.
// Used by both Load and Save to ensure consistent normalization.
func applyDefaultsAndValidate(cfg *Config) error {
	normalizeLogLevel(cfg)
	cfg.ToggleHotkey = strings.TrimSpace(cfg.ToggleHotkey)
	return validateLogFile(cfg)
}

// normalizeLogLevel lowercases LogLevel. Unknown values are logged and
// reset to the default so a typo never prevents startup.
func normalizeLogLevel(cfg *Config) {
	level := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if level == "" {
		cfg.LogLevel = DefaultConfig().LogLevel
		return
	}
	if _, ok := validLogLevels[level]; !ok {
		slog.Warn("[WARN-CONFIG] unknown log_level, falling back to default",
			"configured", cfg.LogLevel, "default", DefaultConfig().LogLevel)
		cfg.LogLevel = DefaultConfig().LogLevel
		return
	}
	cfg.LogLevel = level
}

// validateLogFile rejects relative or malformed log paths.
func validateLogFile(cfg *Config) error {
	cfg.LogFile = strings.TrimSpace(cfg.LogFile)
	if cfg.LogFile == "" {
		return nil
	}
	if strings.ContainsRune(cfg.LogFile, '\x00') {
		return errors.New("log_file contains invalid null byte")
	}
	if !filepath.IsAbs(cfg.LogFile) {
		return fmt.Errorf("log_file must be an absolute path, got %q", cfg.LogFile)
	}
	cfg.LogFile = filepath.Clean(cfg.LogFile)
	return nil
}

var knownTopLevelFields = map[string]struct{}{
	"enabled":       {},
	"log_level":     {},
	"log_file":      {},
	"toggle_hotkey": {},
	"watch_config":  {},
}

// warnUnknownFields reports keys that yaml.Unmarshal silently ignores.
func warnUnknownFields(rawMap map[string]any) {
	for key := range rawMap {
		if _, ok := knownTopLevelFields[key]; !ok {
			slog.Warn("[WARN-CONFIG] unknown field ignored", "field", key)
		}
	}
}

// parseRawConfigMetadata unmarshals raw YAML into a generic map used only
// for metadata checks (unknown fields and missing option detection).
func parseRawConfigMetadata(raw []byte) (map[string]any, error) {
	var rawMap map[string]any
	if err := yamlUnmarshalConfigMetadataFn(raw, &rawMap); err != nil {
		return nil, err
	}
	return rawMap, nil
}

func readLimitedFile(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	limited := io.LimitReader(file, maxBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxBytes)
	}
	return raw, nil
}

func renameFileWithRetry(sourcePath string, targetPath string) error {
	var lastErr error
	for attempt := range maxRenameRetry {
		err := os.Rename(sourcePath, targetPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if runtime.GOOS != "windows" {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * renameRetryBaseDelay)
	}
	return lastErr
}
