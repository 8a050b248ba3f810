package config

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type watchRecorder struct {
	mu      sync.Mutex
	configs []Config
	errs    []error
}

func (r *watchRecorder) options() []WatchOption {
	return []WatchOption{
		WithDebounce(20 * time.Millisecond),
		OnChange(func(cfg Config) {
			r.mu.Lock()
			r.configs = append(r.configs, cfg)
			r.mu.Unlock()
		}),
		OnError(func(err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		}),
	}
}

func (r *watchRecorder) last() (Config, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.configs) == 0 {
		return Config{}, 0
	}
	return r.configs[len(r.configs)-1], len(r.configs)
}

func (r *watchRecorder) errCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func TestWatcher_ReloadsOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(path, Default()))

	rec := &watchRecorder{}
	w, err := NewWatcher(path, rec.options()...)
	require.NoError(t, err)
	defer w.Close()

	cfg := Default()
	cfg.ViewerPort = 9999
	require.NoError(t, Save(path, cfg))

	require.Eventually(t, func() bool {
		got, n := rec.last()
		return n > 0 && got.ViewerPort == 9999
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_FileCreatedLater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	rec := &watchRecorder{}
	w, err := NewWatcher(path, rec.options()...)
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, path, "viewer_host = \"later\"\n")

	require.Eventually(t, func() bool {
		got, n := rec.last()
		return n > 0 && got.ViewerHost == "later"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_ParseFailureReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	rec := &watchRecorder{}
	w, err := NewWatcher(path, rec.options()...)
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, path, "viewer_port: [oops\n")

	require.Eventually(t, func() bool { return rec.errCount() > 0 }, 5*time.Second, 10*time.Millisecond)
	_, n := rec.last()
	assert.Zero(t, n)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	rec := &watchRecorder{}
	w, err := NewWatcher(path, rec.options()...)
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, filepath.Join(dir, "other.yaml"), "viewer_port: 1\n")
	time.Sleep(150 * time.Millisecond)

	_, n := rec.last()
	assert.Zero(t, n)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "absent", "config.yaml"))
	assert.Error(t, err)
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	w, err := NewWatcher(path)
	require.NoError(t, err)

	abs, _ := filepath.Abs(path)
	assert.Equal(t, abs, w.Path())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
