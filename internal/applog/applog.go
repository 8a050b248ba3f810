// Package applog manages the application debug log file.
//
// The log lives in the per-user log directory and starts empty every
// session. It can be cleared on demand while the application runs.
package applog

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileName is the base name of the debug log.
const FileName = "debug.log"

// ErrClosed is returned when writing to a closed log file.
var ErrClosed = errors.New("log file is closed")

// DefaultPath returns the debug log location under the user cache directory.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "toolshell", "logs", FileName), nil
}

// File is an append-only log file that can be truncated while open.
// It is safe for concurrent use.
type File struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// Open creates the parent directory and opens path, discarding any
// content left from a previous session.
func Open(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	return &File{path: path, file: file}, nil
}

// Path returns the log file path.
func (f *File) Path() string {
	return f.path
}

func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return 0, ErrClosed
	}
	return f.file.Write(p)
}

// Clear truncates the log. Later writes start at the beginning of the file.
func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return ErrClosed
	}
	return f.file.Truncate(0)
}

// Close closes the file. Closing twice is a no-op.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// ParseLevel parses a level name. Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a text logger writing to w at the given level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
