// Package logging provides slog loggers organised per module.
//
// Initialize once at startup, then ask for a module logger:
//
//	logging.Initialize(logging.Config{Level: "info", Modules: map[string]string{"dispatch": "debug"}})
//	logger := logging.GetLogger("dispatch")
//
// Records go to stdout and, when journald is reachable, to the systemd
// journal under the identifier "traffic-lights".
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

var (
	mutex         sync.RWMutex
	globalConfig  = Config{Level: "info", Format: "text"}
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevels  = make(map[string]*slog.LevelVar)
	output        io.Writer = os.Stdout
	useJournal              = IsJournalAvailable
)

// Initialize sets the global configuration and rebuilds existing module loggers.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig = config
	for module, levelVar := range moduleLevels {
		levelVar.Set(moduleLevel(config, module))
		moduleLoggers[module] = slog.New(createHandler(config.Format, levelVar)).With("module", module)
	}

	rootLevel := &slog.LevelVar{}
	rootLevel.Set(levelOrDefault(config.Level, slog.LevelInfo))
	slog.SetDefault(slog.New(createHandler(config.Format, rootLevel)))
}

// Reload re-applies levels without rebuilding handlers, so loggers already
// handed out pick up the change.
func Reload(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig.Level = config.Level
	globalConfig.Modules = config.Modules
	for module, levelVar := range moduleLevels {
		levelVar.Set(moduleLevel(globalConfig, module))
	}
}

// SetOutput redirects the stdout sink. Loggers created afterwards use w.
func SetOutput(w io.Writer) {
	mutex.Lock()
	defer mutex.Unlock()
	output = w
}

// GetLogger returns the logger for a module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	if logger, ok := moduleLoggers[module]; ok {
		mutex.RUnlock()
		return logger
	}
	mutex.RUnlock()

	mutex.Lock()
	defer mutex.Unlock()
	if logger, ok := moduleLoggers[module]; ok {
		return logger
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(moduleLevel(globalConfig, module))
	logger := slog.New(createHandler(globalConfig.Format, levelVar)).With("module", module)
	moduleLoggers[module] = logger
	moduleLevels[module] = levelVar
	return logger
}

func createHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler
	if format == "json" {
		stdout = slog.NewJSONHandler(output, opts)
	} else {
		stdout = slog.NewTextHandler(output, opts)
	}

	if !useJournal() {
		return stdout
	}
	return newFanout(level, stdout, NewJournalHandler(level))
}

func moduleLevel(config Config, module string) slog.Level {
	level := levelOrDefault(config.Level, slog.LevelInfo)
	if raw, ok := config.Modules[module]; ok {
		level = levelOrDefault(raw, level)
	}
	return level
}

func levelOrDefault(raw string, fallback slog.Level) slog.Level {
	if level, ok := ParseLevel(raw); ok {
		return level
	}
	return fallback
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(raw string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
