package process

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Supervisor owns at most one child process per tool name.
//
// The registry lock covers only lookups and map mutations. It is never held
// while a child is spawned or while its relays are started, so a slow launch
// for one tool does not hold up calls for another.
//
// Supervisor is safe for concurrent use.
type Supervisor struct {
	mu     sync.Mutex
	slots  map[string]*slot
	closed bool

	spawner Spawner
	sink    Sink
	logger  *slog.Logger
}

// slot is a registry entry. The child is owned by the slot until removed.
type slot struct {
	id      string
	child   Child
	started time.Time
}

// ToolInfo is a snapshot of a registered tool slot.
type ToolInfo struct {
	// Tool is the slot name.
	Tool string

	// ID identifies this particular launch of the tool.
	ID string

	// PID is the OS process ID of the child.
	PID int

	// Started is when the child was launched.
	Started time.Time
}

// SupervisorOption configures a Supervisor instance.
type SupervisorOption func(*Supervisor)

// WithSink sets the destination for output events.
// Without a sink, output is read and discarded.
func WithSink(sink Sink) SupervisorOption {
	return func(s *Supervisor) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithLogger sets the logger used for lifecycle and relay diagnostics.
func WithLogger(logger *slog.Logger) SupervisorOption {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSpawner replaces the process launcher. The default is ExecSpawner{}.
func WithSpawner(sp Spawner) SupervisorOption {
	return func(s *Supervisor) {
		if sp != nil {
			s.spawner = sp
		}
	}
}

// NewSupervisor creates a new process supervisor.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		slots:   make(map[string]*slot),
		spawner: ExecSpawner{},
		sink:    discardSink{},
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("component", "process")
	return s
}

// Start launches executable with script as its only argument under the
// given tool name.
//
// A child already registered for tool is removed and asked to terminate
// first, whether or not the new launch succeeds. On failure Start returns a
// *SpawnError and registers nothing. On success the child's stdout and
// stderr are relayed line by line to the sink.
func (s *Supervisor) Start(tool, executable, script string) error {
	if tool == "" {
		return ErrInvalidTool
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSupervisorShutdown
	}
	old := s.slots[tool]
	delete(s.slots, tool)
	s.mu.Unlock()

	if old != nil {
		s.terminate(tool, old, "replaced")
	}

	child, err := s.spawner.Spawn(executable, []string{script})
	if err != nil {
		s.logger.Warn("tool failed to start", "tool", tool, "executable", executable, "error", err)
		return &SpawnError{Tool: tool, Executable: executable, Err: err}
	}

	sl := &slot{
		id:      uuid.NewString(),
		child:   child,
		started: time.Now(),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.terminate(tool, sl, "shutdown")
		_ = child.Stdout().Close()
		_ = child.Stderr().Close()
		return ErrSupervisorShutdown
	}
	// A concurrent Start for the same tool may have registered in between.
	prev := s.slots[tool]
	s.slots[tool] = sl
	s.mu.Unlock()

	if prev != nil {
		s.terminate(tool, prev, "replaced")
	}

	s.logger.Info("tool started", "tool", tool, "id", sl.id, "pid", child.PID(), "executable", executable, "script", script)

	go relay(tool, StreamStdout, child.Stdout(), s.sink, s.logger)
	go relay(tool, StreamStderr, child.Stderr(), s.sink, s.logger)

	return nil
}

// Stop removes the tool's child from the registry and asks it to terminate.
// Stopping a tool that is not running is not an error.
func (s *Supervisor) Stop(tool string) error {
	s.mu.Lock()
	sl := s.slots[tool]
	delete(s.slots, tool)
	s.mu.Unlock()

	if sl != nil {
		s.terminate(tool, sl, "stopped")
	}
	return nil
}

// IsRunning reports whether tool has a live child.
//
// The check never blocks. A child that has exited, or whose state cannot
// be determined, is dropped from the registry.
func (s *Supervisor) IsRunning(tool string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[tool]
	if !ok {
		return false
	}

	exited, err := sl.child.Poll()
	if err == nil && !exited {
		return true
	}

	delete(s.slots, tool)
	if err != nil {
		s.logger.Debug("tool probe failed", "tool", tool, "id", sl.id, "error", err)
	} else {
		s.logger.Info("tool exited", "tool", tool, "id", sl.id, "uptime", time.Since(sl.started).Round(time.Millisecond))
	}
	return false
}

// StopAll asks every registered child to terminate and empties the
// registry. It does not wait for the children to exit. After StopAll,
// Start returns ErrSupervisorShutdown.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	s.closed = true
	slots := s.slots
	s.slots = make(map[string]*slot)
	s.mu.Unlock()

	for tool, sl := range slots {
		s.terminate(tool, sl, "shutdown")
	}
}

// Tools returns a snapshot of the registered slots, sorted by tool name.
// Slots whose child has already exited are included until the next
// IsRunning call for that tool.
func (s *Supervisor) Tools() []ToolInfo {
	s.mu.Lock()
	infos := make([]ToolInfo, 0, len(s.slots))
	for tool, sl := range s.slots {
		infos = append(infos, ToolInfo{
			Tool:    tool,
			ID:      sl.id,
			PID:     sl.child.PID(),
			Started: sl.started,
		})
	}
	s.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Tool < infos[j].Tool
	})
	return infos
}

// Count returns the number of registered slots.
func (s *Supervisor) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// terminate sends a kill to a slot's child. Failures are expected when the
// child has already exited and are only logged.
func (s *Supervisor) terminate(tool string, sl *slot, reason string) {
	if err := sl.child.Kill(); err != nil {
		s.logger.Debug("tool kill failed", "tool", tool, "id", sl.id, "reason", reason, "error", err)
		return
	}
	s.logger.Info("tool terminated", "tool", tool, "id", sl.id, "reason", reason)
}
