package config

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultCheckTimeout bounds the interpreter version run.
const DefaultCheckTimeout = 5 * time.Second

// CheckState is the outcome of checking one setting.
type CheckState string

const (
	CheckOK            CheckState = "ok"
	CheckNotConfigured CheckState = "not configured"
	CheckMissing       CheckState = "missing"
	CheckFailed        CheckState = "failed"
)

// CheckResult is the outcome for one path-valued setting.
type CheckResult struct {
	// Key is the setting key, as accepted by Set.
	Key string

	// Path is the configured value.
	Path string

	State CheckState

	// Detail is the interpreter's version line on success, or the reason
	// for a failure.
	Detail string
}

// Report is the result of Check, in setting order.
type Report struct {
	Results []CheckResult
}

// OK reports whether every setting checked out.
func (r Report) OK() bool {
	for _, res := range r.Results {
		if res.State != CheckOK {
			return false
		}
	}
	return true
}

// Problems returns the keys of settings that did not check out.
func (r Report) Problems() []string {
	var keys []string
	for _, res := range r.Results {
		if res.State != CheckOK {
			keys = append(keys, res.Key)
		}
	}
	return keys
}

// Result returns the result for key.
func (r Report) Result(key string) (CheckResult, bool) {
	for _, res := range r.Results {
		if res.Key == key {
			return res, true
		}
	}
	return CheckResult{}, false
}

type checkOptions struct {
	timeout time.Duration
}

// CheckOption configures Check.
type CheckOption func(*checkOptions)

// WithCheckTimeout sets how long the interpreter may take to report its
// version.
func WithCheckTimeout(d time.Duration) CheckOption {
	return func(o *checkOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// Check verifies that the paths in cfg are usable: the interpreter runs
// with -v and exits zero, both game folders are directories, and both tool
// scripts are files. Every setting is checked; failures do not stop the
// remaining checks.
func Check(ctx context.Context, cfg Config, opts ...CheckOption) Report {
	o := checkOptions{timeout: DefaultCheckTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	return Report{Results: []CheckResult{
		checkInterpreter(ctx, cfg.InterpreterPath, o.timeout),
		checkPath("game_folder_path", cfg.GameFolderPath, true),
		checkPath("savegame_folder_path", cfg.SavegameFolderPath, true),
		checkPath("parser_tool_path", cfg.ParserToolPath, false),
		checkPath("viewer_tool_path", cfg.ViewerToolPath, false),
	}}
}

func checkInterpreter(ctx context.Context, path string, timeout time.Duration) CheckResult {
	res := CheckResult{Key: "interpreter_path", Path: path}
	if path == "" {
		res.State = CheckNotConfigured
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "-v")
	// A killed interpreter may leave children holding the output pipe.
	cmd.WaitDelay = 100 * time.Millisecond
	out, err := cmd.CombinedOutput()

	switch {
	case errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist):
		res.State = CheckMissing
		res.Detail = "interpreter not found"
	case ctx.Err() != nil:
		res.State = CheckFailed
		res.Detail = fmt.Sprintf("no response within %s", timeout)
	case err != nil:
		res.State = CheckFailed
		res.Detail = err.Error()
	default:
		res.State = CheckOK
		res.Detail = firstLine(out)
	}
	return res
}

func checkPath(key, path string, wantDir bool) CheckResult {
	res := CheckResult{Key: key, Path: path}
	if path == "" {
		res.State = CheckNotConfigured
		return res
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		res.State = CheckMissing
	case err != nil:
		res.State = CheckFailed
		res.Detail = err.Error()
	case wantDir && !info.IsDir():
		res.State = CheckFailed
		res.Detail = "not a directory"
	case !wantDir && info.IsDir():
		res.State = CheckFailed
		res.Detail = "is a directory"
	default:
		res.State = CheckOK
	}
	return res
}

func firstLine(out []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(out))
	if sc.Scan() {
		return strings.TrimSpace(sc.Text())
	}
	return ""
}
