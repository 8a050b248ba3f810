package process

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecSpawner_CapturesOutput(t *testing.T) {
	sh := requireShell(t)
	script := writeScript(t, "echo to-stdout\necho to-stderr >&2\n")

	child, err := ExecSpawner{}.Spawn(sh, []string{script})
	require.NoError(t, err)
	assert.Positive(t, child.PID())

	stdout, err := io.ReadAll(child.Stdout())
	require.NoError(t, err)
	stderr, err := io.ReadAll(child.Stderr())
	require.NoError(t, err)

	assert.Equal(t, "to-stdout\n", string(stdout))
	assert.Equal(t, "to-stderr\n", string(stderr))

	require.Eventually(t, func() bool {
		exited, err := child.Poll()
		return err == nil && exited
	}, waitFor, tick)
}

func TestExecSpawner_StdinNotConnected(t *testing.T) {
	sh := requireShell(t)
	script := writeScript(t, "read line\necho \"got:$line\"\n")

	child, err := ExecSpawner{}.Spawn(sh, []string{script})
	require.NoError(t, err)

	out, err := io.ReadAll(child.Stdout())
	require.NoError(t, err)
	assert.Equal(t, "got:\n", string(out))
}

func TestExecSpawner_PollAndKill(t *testing.T) {
	sh := requireShell(t)
	script := writeScript(t, "exec sleep 30\n")

	child, err := ExecSpawner{}.Spawn(sh, []string{script})
	require.NoError(t, err)
	defer child.Stdout().Close()
	defer child.Stderr().Close()

	exited, err := child.Poll()
	require.NoError(t, err)
	assert.False(t, exited)

	require.NoError(t, child.Kill())

	require.Eventually(t, func() bool {
		exited, err := child.Poll()
		return err == nil && exited
	}, waitFor, tick)

	// A second kill reports the process is gone; callers ignore it.
	assert.ErrorIs(t, child.Kill(), os.ErrProcessDone)
}

func TestExecSpawner_NonZeroExitIsNotAProbeError(t *testing.T) {
	sh := requireShell(t)
	script := writeScript(t, "exit 7\n")

	child, err := ExecSpawner{}.Spawn(sh, []string{script})
	require.NoError(t, err)
	defer child.Stdout().Close()
	defer child.Stderr().Close()

	require.Eventually(t, func() bool {
		exited, err := child.Poll()
		return err == nil && exited
	}, waitFor, tick)
}

func TestExecSpawner_WorkingDirAndEnv(t *testing.T) {
	sh := requireShell(t)
	dir := t.TempDir()
	script := writeScript(t, "pwd\necho \"$TOOLSHELL_TEST\"\n")

	child, err := ExecSpawner{Dir: dir, Env: []string{"TOOLSHELL_TEST=yes"}}.Spawn(sh, []string{script})
	require.NoError(t, err)

	out, err := io.ReadAll(child.Stdout())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(lines[0])
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "yes", lines[1])
}

func TestExecSpawner_MissingExecutable(t *testing.T) {
	_, err := ExecSpawner{}.Spawn(filepath.Join(t.TempDir(), "missing"), []string{"x"})
	assert.Error(t, err)
}
