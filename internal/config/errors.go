package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration operations.
var (
	// ErrUnknownTool indicates a tool name with no script setting.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrToolNotConfigured indicates the tool's script path is empty.
	ErrToolNotConfigured = errors.New("tool script path not configured")

	// ErrUnknownKey indicates a setting key that does not exist.
	ErrUnknownKey = errors.New("unknown setting key")

	// ErrUnsupportedFormat indicates a file extension with no codec.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrValidationFailed indicates a value failed validation.
	ErrValidationFailed = errors.New("validation failed")
)

// ParseError reports a settings file or store blob that could not be
// decoded. Line and Column are only known for TOML, whose decoder reports
// the offending position.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	where := e.Path
	if e.Line > 0 {
		where = fmt.Sprintf("%s:%d:%d", e.Path, e.Line, e.Column)
	}
	return fmt.Sprintf("cannot decode settings %s: %s", where, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError describes a validation failure for a setting.
type ValidationError struct {
	// Key is the setting key that failed validation.
	Key string
	// Message describes the validation error.
	Message string
	// Value is the invalid value.
	Value any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value: %v)", e.Key, e.Message, e.Value)
}

// Is reports whether target is ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
