package process

import (
	"errors"
	"fmt"
)

// Sentinel errors for the process package.
var (
	// ErrInvalidTool is returned when a tool name is empty.
	ErrInvalidTool = errors.New("tool name must not be empty")

	// ErrSupervisorShutdown is returned by Start after StopAll has run.
	ErrSupervisorShutdown = errors.New("supervisor is shut down")
)

// SpawnError reports a child process that could not be launched.
type SpawnError struct {
	// Tool is the slot the process was started for.
	Tool string

	// Executable is the program that failed to launch.
	Executable string

	// Err is the underlying OS error.
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start tool %q: %v", e.Tool, e.Err)
}

// Unwrap returns the underlying error.
func (e *SpawnError) Unwrap() error {
	return e.Err
}
