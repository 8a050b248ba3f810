package applog

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesDirectoryAndStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "logs", FileName)

	f, err := Open(path)
	require.NoError(t, err)
	_, err = f.Write([]byte("first session\n"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = Open(path)
	require.NoError(t, err)
	defer f.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data, "a new session starts with an empty log")
	assert.Equal(t, path, f.Path())
}

func TestFile_WriteAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("a\n"))
	require.NoError(t, err)
	_, err = f.Write([]byte("b\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}

func TestFile_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("old line\n"))
	require.NoError(t, err)
	require.NoError(t, f.Clear())
	_, err = f.Write([]byte("new\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))
}

func TestFile_Closed(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err = f.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, f.Clear(), ErrClosed)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", "tool", "parser")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "msg=shown") && strings.Contains(out, "tool=parser"), out)
}

func TestDefaultPath(t *testing.T) {
	path, err := DefaultPath()
	if err != nil {
		t.Skipf("no user cache dir: %v", err)
	}
	assert.Equal(t, FileName, filepath.Base(path))
	assert.Equal(t, "logs", filepath.Base(filepath.Dir(path)))
}
