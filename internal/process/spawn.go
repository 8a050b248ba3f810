package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Spawner launches child processes with captured output.
type Spawner interface {
	// Spawn starts executable with args. Stdout and stderr of the returned
	// child are readable pipes; stdin is not connected.
	Spawn(executable string, args []string) (Child, error)
}

// Child is a started process owned by a tool slot.
type Child interface {
	// PID returns the OS process ID.
	PID() int

	// Stdout returns the read end of the child's standard output.
	Stdout() io.ReadCloser

	// Stderr returns the read end of the child's standard error.
	Stderr() io.ReadCloser

	// Poll reports whether the child has exited. It never blocks.
	// A non-nil error means the state could not be determined.
	Poll() (exited bool, err error)

	// Kill requests termination and returns without waiting for exit.
	Kill() error
}

// ExecSpawner spawns children with os/exec.
type ExecSpawner struct {
	// Dir is the working directory of spawned children.
	// Empty means the current directory.
	Dir string

	// Env is the environment of spawned children.
	// Nil means the current process environment.
	Env []string
}

// Spawn implements Spawner.
//
// The output pipes are created with os.Pipe rather than Cmd.StdoutPipe so
// that the background Wait never closes a pipe the relay is still draining.
func (s ExecSpawner) Spawn(executable string, args []string) (Child, error) {
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeFiles(stdoutR, stdoutW)
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	cmd := exec.Command(executable, args...)
	cmd.Dir = s.Dir
	cmd.Env = s.Env
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		closeFiles(stdoutR, stdoutW, stderrR, stderrW)
		return nil, err
	}

	// The child has its own copies of the write ends.
	closeFiles(stdoutW, stderrW)

	c := &execChild{
		cmd:    cmd,
		stdout: stdoutR,
		stderr: stderrR,
		done:   make(chan struct{}),
	}
	go c.reap()
	return c, nil
}

// execChild is a Child backed by an exec.Cmd.
type execChild struct {
	cmd    *exec.Cmd
	stdout *os.File
	stderr *os.File

	// done is closed once Wait has returned; waitErr is set before.
	done    chan struct{}
	waitErr error
}

func (c *execChild) reap() {
	c.waitErr = c.cmd.Wait()
	close(c.done)
}

func (c *execChild) PID() int {
	return c.cmd.Process.Pid
}

func (c *execChild) Stdout() io.ReadCloser { return c.stdout }

func (c *execChild) Stderr() io.ReadCloser { return c.stderr }

func (c *execChild) Poll() (bool, error) {
	select {
	case <-c.done:
	default:
		return false, nil
	}

	var exitErr *exec.ExitError
	if c.waitErr != nil && !errors.As(c.waitErr, &exitErr) {
		return false, fmt.Errorf("wait for pid %d: %w", c.PID(), c.waitErr)
	}
	return true, nil
}

func (c *execChild) Kill() error {
	return c.cmd.Process.Kill()
}

func closeFiles(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
