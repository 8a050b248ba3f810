// Package app wires the supervisor, event bus, output log, configuration,
// and debug log into one application object with a single shutdown path.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/dshills/toolshell/internal/applog"
	"github.com/dshills/toolshell/internal/config"
	"github.com/dshills/toolshell/internal/event"
	"github.com/dshills/toolshell/internal/outputlog"
	"github.com/dshills/toolshell/internal/process"
)

// Tools lists the tool slots the application manages.
var Tools = []string{config.ToolParser, config.ToolViewer}

// ToolState is the user-facing state of a tool slot.
type ToolState string

const (
	StateRunning ToolState = "running"
	StateStopped ToolState = "stopped"
)

// SystemInfo describes the host platform.
type SystemInfo struct {
	OS   string `json:"os" yaml:"os"`
	Arch string `json:"arch" yaml:"arch"`
}

// HostInfo returns the operating system and architecture of this build.
func HostInfo() SystemInfo {
	return SystemInfo{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// Options configures the application.
type Options struct {
	// ConfigPath is the settings file. Empty means config.DefaultPath().
	ConfigPath string

	// LogPath is the debug log file. Empty means applog.DefaultPath().
	LogPath string

	// LogLevel sets the logging verbosity.
	LogLevel string

	// LogOutput, if set, receives a copy of every log record.
	LogOutput io.Writer

	// Spawner overrides how tool processes are launched.
	Spawner process.Spawner

	// OutputCapacity is the number of lines kept per tool.
	OutputCapacity int
}

// App is the application. It is safe for concurrent use.
type App struct {
	opts       Options
	configPath string

	logFile *applog.File
	logger  *slog.Logger

	bus          *event.Bus
	output       *outputlog.Log
	detachOutput func()
	supervisor   *process.Supervisor

	mu      sync.RWMutex
	cfg     config.Config
	watcher *config.Watcher
	closed  bool

	shutdownOnce sync.Once
}

// New creates the application: it opens the debug log, loads the
// settings, and builds the supervisor.
func New(opts Options) (*App, error) {
	a := &App{opts: opts}
	if err := a.bootstrap(); err != nil {
		a.Shutdown()
		return nil, err
	}
	return a, nil
}

// bootstrap initializes components in dependency order.
func (a *App) bootstrap() error {
	// 1. Debug log
	logPath := a.opts.LogPath
	if logPath == "" {
		p, err := applog.DefaultPath()
		if err != nil {
			return &InitError{Component: "debug log", Err: err}
		}
		logPath = p
	}
	logFile, err := applog.Open(logPath)
	if err != nil {
		return &InitError{Component: "debug log", Err: err}
	}
	a.logFile = logFile

	var w io.Writer = logFile
	if a.opts.LogOutput != nil {
		w = io.MultiWriter(logFile, a.opts.LogOutput)
	}
	a.logger = applog.NewLogger(w, applog.ParseLevel(a.opts.LogLevel))

	// 2. Settings
	a.configPath = a.opts.ConfigPath
	if a.configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return &InitError{Component: "config", Err: err}
		}
		a.configPath = p
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		a.logger.Warn("failed to load config, using defaults", "path", a.configPath, "error", err)
		cfg = config.Default()
	}
	a.cfg = cfg

	// 3. Event bus and output log
	a.bus = event.NewBus(event.WithLogger(a.logger))
	a.output = outputlog.New(a.opts.OutputCapacity, Tools...)
	detach, err := a.output.Attach(a.bus)
	if err != nil {
		return &InitError{Component: "output log", Err: err}
	}
	a.detachOutput = detach

	// 4. Supervisor
	supOpts := []process.SupervisorOption{
		process.WithSink(busSink{bus: a.bus}),
		process.WithLogger(a.logger),
	}
	if a.opts.Spawner != nil {
		supOpts = append(supOpts, process.WithSpawner(a.opts.Spawner))
	}
	a.supervisor = process.NewSupervisor(supOpts...)

	a.logger.Info("application started", "config", a.configPath, "log", logPath, "os", runtime.GOOS, "arch", runtime.GOARCH)
	return nil
}

// StartTool launches the configured script for tool, replacing any
// running instance.
func (a *App) StartTool(tool string) error {
	cfg := a.Config()

	script, err := cfg.ScriptFor(tool)
	if err == nil {
		err = a.supervisor.Start(tool, cfg.InterpreterPath, script)
	}
	if err != nil {
		a.logger.Error("failed to start tool", "tool", tool, "error", err)
		a.publish(event.TopicToolFailed, event.ToolStatus{Tool: tool, Error: err.Error()})
		return err
	}

	a.publish(event.TopicToolStarted, event.ToolStatus{Tool: tool})
	return nil
}

// StopTool asks the tool's process to terminate. Stopping a tool that is
// not running is not an error.
func (a *App) StopTool(tool string) error {
	if err := a.supervisor.Stop(tool); err != nil {
		return err
	}
	a.publish(event.TopicToolStopped, event.ToolStatus{Tool: tool})
	return nil
}

// ToolRunning reports whether the tool's process is alive.
func (a *App) ToolRunning(tool string) bool {
	return a.supervisor.IsRunning(tool)
}

// Status returns the tool's state.
func (a *App) Status(tool string) ToolState {
	if a.ToolRunning(tool) {
		return StateRunning
	}
	return StateStopped
}

// Running returns details of every registered tool process.
func (a *App) Running() []process.ToolInfo {
	return a.supervisor.Tools()
}

// Logs returns the buffered output lines of tool, oldest first.
func (a *App) Logs(tool string) []string {
	return a.output.Lines(tool)
}

// LogEntries returns the buffered output of tool with the stream of each
// line, oldest first.
func (a *App) LogEntries(tool string) []process.OutputEvent {
	return a.output.Entries(tool)
}

// ClearLogs drops the buffered output of tool.
func (a *App) ClearLogs(tool string) {
	a.output.Clear(tool)
}

// ClearDebugLog truncates the debug log file.
func (a *App) ClearDebugLog() error {
	return a.logFile.Clear()
}

// DebugLogPath returns the debug log location.
func (a *App) DebugLogPath() string {
	return a.logFile.Path()
}

// Config returns a copy of the current settings.
func (a *App) Config() config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// ConfigPath returns the settings file location.
func (a *App) ConfigPath() string {
	return a.configPath
}

// UpdateConfig applies fn to a copy of the settings, validates and saves
// the result, then makes it current.
func (a *App) UpdateConfig(fn func(*config.Config)) error {
	a.mu.Lock()
	next := a.cfg
	fn(&next)
	if err := next.Validate(); err != nil {
		a.mu.Unlock()
		return err
	}
	if err := config.Save(a.configPath, next); err != nil {
		a.mu.Unlock()
		return err
	}
	a.cfg = next
	a.mu.Unlock()

	a.logger.Info("config saved", "path", a.configPath)
	a.publish(event.TopicConfigChanged, next)
	return nil
}

// WatchConfig reloads the settings whenever the file changes on disk.
// Calling it again is a no-op. After Shutdown it returns ErrShutdown.
func (a *App) WatchConfig() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrShutdown
	}
	if a.watcher != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(a.configPath), 0o700); err != nil {
		return err
	}

	w, err := config.NewWatcher(a.configPath,
		config.OnChange(a.applyConfig),
		config.OnError(func(err error) {
			a.logger.Warn("config reload failed", "error", err)
		}),
		config.WithWatchLogger(a.logger),
	)
	if err != nil {
		return err
	}
	a.watcher = w
	return nil
}

func (a *App) applyConfig(cfg config.Config) {
	if err := cfg.Validate(); err != nil {
		a.logger.Warn("ignoring invalid config on disk", "path", a.configPath, "error", err)
		return
	}

	a.mu.Lock()
	changed := a.cfg != cfg
	a.cfg = cfg
	a.mu.Unlock()

	if changed {
		a.logger.Info("config reloaded", "path", a.configPath)
		a.publish(event.TopicConfigChanged, cfg)
	}
}

// CheckConfig verifies that the interpreter, game folders and tool scripts
// named by the current settings are usable.
func (a *App) CheckConfig(ctx context.Context) config.Report {
	report := config.Check(ctx, a.Config())
	if !report.OK() {
		a.logger.Warn("config check found problems", "settings", report.Problems())
	}
	return report
}

// SystemInfo returns the host operating system and architecture.
func (a *App) SystemInfo() SystemInfo {
	return HostInfo()
}

// Bus returns the event bus.
func (a *App) Bus() *event.Bus {
	return a.bus
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Shutdown stops every tool and releases all resources. It runs once;
// later calls return immediately.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(a.shutdown)
}

// shutdown performs cleanup in reverse initialization order.
func (a *App) shutdown() {
	if a.supervisor != nil {
		a.supervisor.StopAll()
	}

	a.mu.Lock()
	a.closed = true
	w := a.watcher
	a.watcher = nil
	a.mu.Unlock()
	if w != nil {
		if err := w.Close(); err != nil {
			a.logger.Debug("closing config watcher", "error", err)
		}
	}

	if a.detachOutput != nil {
		a.detachOutput()
	}
	if a.bus != nil {
		a.bus.Close()
	}
	if a.logger != nil {
		a.logger.Info("application stopped")
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

func (a *App) publish(topic string, payload any) {
	err := a.bus.Publish(topic, payload)
	if err != nil && !errors.Is(err, event.ErrBusClosed) {
		a.logger.Warn("event delivery failed", "topic", topic, "error", err)
	}
}

// busSink republishes relay output on the event bus.
type busSink struct {
	bus *event.Bus
}

func (s busSink) Deliver(ev process.OutputEvent) error {
	return s.bus.Publish(event.TopicProcessOutput, ev)
}
