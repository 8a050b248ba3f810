package process

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

// fakeChild is a Child driven entirely by the test.
type fakeChild struct {
	pid int

	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stderrR *io.PipeReader
	stderrW *io.PipeWriter

	mu      sync.Mutex
	exited  bool
	pollErr error
	kills   int
}

func newFakeChild(pid int) *fakeChild {
	c := &fakeChild{pid: pid}
	c.stdoutR, c.stdoutW = io.Pipe()
	c.stderrR, c.stderrW = io.Pipe()
	return c
}

func (c *fakeChild) PID() int              { return c.pid }
func (c *fakeChild) Stdout() io.ReadCloser { return c.stdoutR }
func (c *fakeChild) Stderr() io.ReadCloser { return c.stderrR }

func (c *fakeChild) Poll() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pollErr != nil {
		return false, c.pollErr
	}
	return c.exited, nil
}

func (c *fakeChild) Kill() error {
	c.mu.Lock()
	c.kills++
	already := c.exited
	c.exited = true
	c.mu.Unlock()

	c.closeOutput()
	if already {
		return os.ErrProcessDone
	}
	return nil
}

// exit simulates the child finishing on its own.
func (c *fakeChild) exit() {
	c.mu.Lock()
	c.exited = true
	c.mu.Unlock()
	c.closeOutput()
}

func (c *fakeChild) closeOutput() {
	_ = c.stdoutW.Close()
	_ = c.stderrW.Close()
}

func (c *fakeChild) killCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kills
}

// fakeSpawner hands out fakeChild values and records them.
type fakeSpawner struct {
	mu       sync.Mutex
	children []*fakeChild
	calls    [][]string
	err      error
}

func (s *fakeSpawner) Spawn(executable string, args []string) (Child, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, append([]string{executable}, args...))
	if s.err != nil {
		return nil, s.err
	}
	c := newFakeChild(1000 + len(s.children))
	s.children = append(s.children, c)
	return c, nil
}

func (s *fakeSpawner) failWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *fakeSpawner) spawned() []*fakeChild {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakeChild(nil), s.children...)
}

// collector is a Sink that records every event.
type collector struct {
	mu     sync.Mutex
	events []OutputEvent
}

func (c *collector) Deliver(ev OutputEvent) error {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
	return nil
}

func (c *collector) all() []OutputEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]OutputEvent(nil), c.events...)
}

func (c *collector) messages(tool string, stream Stream) []string {
	var out []string
	for _, ev := range c.all() {
		if ev.Tool == tool && ev.Stream == stream {
			out = append(out, ev.Message)
		}
	}
	return out
}

var errBoom = errors.New("boom")

// requireShell skips tests that need a POSIX shell.
func requireShell(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	return "/bin/sh"
}

// writeScript writes a shell script into a temp dir and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool.sh")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}
