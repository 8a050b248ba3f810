package app

import "errors"

// ErrShutdown is returned by operations that cannot run after Shutdown.
var ErrShutdown = errors.New("application shut down")

// InitError represents an initialization error.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}
