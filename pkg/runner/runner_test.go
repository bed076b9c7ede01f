package runner_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	perrors "posixkit/pkg/errors"
	"posixkit/pkg/logger"
	"posixkit/pkg/runner"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requirePOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func nullLogger() (*logger.Logger, *test.Hook) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	return &logger.Logger{Logger: base}, hook
}

func TestShellRunner_Run(t *testing.T) {
	requirePOSIX(t)

	tests := []struct {
		name        string
		command     string
		expectError bool
		exitCode    int
		signaled    bool
	}{
		{name: "zero exit", command: "exit 0"},
		{name: "true builtin", command: "true"},
		{name: "pipeline", command: "echo hi | grep -q hi"},
		{name: "non-zero exit", command: "exit 3", expectError: true, exitCode: 3},
		{name: "false", command: "false", expectError: true, exitCode: 1},
		{name: "unknown command", command: "definitely-not-a-command-xyz", expectError: true, exitCode: 127},
		{name: "killed by signal", command: "kill -KILL $$", expectError: true, signaled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := nullLogger()
			r := runner.NewShellRunner(runner.WithLogger(l), runner.WithStdout(&bytes.Buffer{}), runner.WithStderr(&bytes.Buffer{}))

			err := r.Run(context.Background(), tt.command)
			if !tt.expectError {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var exitErr *perrors.ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, tt.signaled, exitErr.Signaled)
			if tt.signaled {
				assert.ErrorIs(t, err, perrors.ErrAbnormalExit)
			} else {
				assert.Equal(t, tt.exitCode, exitErr.Code)
			}
		})
	}
}

func TestShellRunner_EmptyCommandProbesShell(t *testing.T) {
	requirePOSIX(t)

	l, _ := nullLogger()
	assert.NoError(t, runner.NewShellRunner(runner.WithLogger(l)).Run(context.Background(), ""))

	missing := runner.NewShellRunner(runner.WithLogger(l), runner.WithShell("/nonexistent/sh"))
	assert.ErrorIs(t, missing.Run(context.Background(), ""), perrors.ErrShellNotFound)
	assert.Error(t, missing.Run(context.Background(), "true"))
}

func TestShellRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l, _ := nullLogger()
	err := runner.NewShellRunner(runner.WithLogger(l)).Run(ctx, "true")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShellRunner_LogsFailure(t *testing.T) {
	requirePOSIX(t)

	l, hook := nullLogger()
	r := runner.NewShellRunner(runner.WithLogger(l))
	require.Error(t, r.Run(context.Background(), "exit 7"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, 7, entry.Data["exit_code"])
	assert.Equal(t, "system", entry.Data["operation"])
	assert.NotEmpty(t, entry.Data["run_id"])
}

func TestLauncher_Exec(t *testing.T) {
	requirePOSIX(t)

	tests := []struct {
		name        string
		argv        []string
		expectError bool
		exitCode    int
	}{
		{name: "true with no extra args", argv: []string{"/bin/true"}},
		{name: "echo with args", argv: []string{"/bin/echo", "a", "b"}},
		{name: "shell success", argv: []string{"/bin/sh", "-c", "exit 0"}},
		{name: "false", argv: []string{"/bin/false"}, expectError: true, exitCode: 1},
		{name: "explicit status", argv: []string{"/bin/sh", "-c", "exit 42"}, expectError: true, exitCode: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := nullLogger()
			launcher := runner.NewLauncher(runner.WithLogger(l), runner.WithStdout(&bytes.Buffer{}))

			res, err := launcher.Exec(context.Background(), tt.argv)
			require.NotNil(t, res)
			assert.Positive(t, res.PID)
			assert.Equal(t, tt.exitCode, res.ExitCode)
			if tt.expectError {
				assert.Error(t, err)
				assert.False(t, res.Succeeded())
			} else {
				assert.NoError(t, err)
				assert.True(t, res.Succeeded())
			}
		})
	}
}

func TestLauncher_ExecMissingExecutable(t *testing.T) {
	requirePOSIX(t)

	l, _ := nullLogger()
	launcher := runner.NewLauncher(runner.WithLogger(l))

	res, err := launcher.Exec(context.Background(), []string{"/nonexistent/bin/tool", "arg"})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Started)
	assert.Zero(t, res.PID, "no child should have been waited on")
	assert.Equal(t, -1, res.ExitCode)
	assert.False(t, res.Succeeded())
	assert.False(t, (&runner.Result{}).Succeeded(), "a zero result never counts as success")

	// The parent is unaffected and can keep launching.
	res, err = launcher.Exec(context.Background(), []string{"/bin/true"})
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
}

func TestLauncher_ExecSignaled(t *testing.T) {
	requirePOSIX(t)

	l, _ := nullLogger()
	launcher := runner.NewLauncher(runner.WithLogger(l))

	res, err := launcher.Exec(context.Background(), []string{"/bin/sh", "-c", "kill -TERM $$"})
	require.Error(t, err)
	assert.ErrorIs(t, err, perrors.ErrAbnormalExit)
	assert.True(t, res.Signaled)
	assert.Equal(t, -1, res.ExitCode)
}

func TestLauncher_EmptyArgv(t *testing.T) {
	l, _ := nullLogger()
	launcher := runner.NewLauncher(runner.WithLogger(l))

	_, err := launcher.Exec(context.Background(), nil)
	assert.ErrorIs(t, err, perrors.ErrEmptyArgv)

	out := filepath.Join(t.TempDir(), "out.txt")
	_, err = launcher.ExecRedirect(context.Background(), out, []string{})
	assert.ErrorIs(t, err, perrors.ErrEmptyArgv)
	assert.NoFileExists(t, out)
}

func TestLauncher_ExecInheritsStdout(t *testing.T) {
	requirePOSIX(t)

	var stdout bytes.Buffer
	l, _ := nullLogger()
	launcher := runner.NewLauncher(runner.WithLogger(l), runner.WithStdout(&stdout))

	_, err := launcher.Exec(context.Background(), []string{"/bin/echo", "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", stdout.String())
}

func TestLauncher_ExecRedirect(t *testing.T) {
	requirePOSIX(t)

	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	l, _ := nullLogger()
	launcher := runner.NewLauncher(runner.WithLogger(l))

	res, err := launcher.ExecRedirect(context.Background(), out, []string{"/bin/echo", "home is", "$HOME"})
	require.NoError(t, err)
	assert.True(t, res.Succeeded())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "home is $HOME\n", string(data))

	fi, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, runner.RedirectFileMode&^umask(t, dir), fi.Mode().Perm())
	assert.Equal(t, os.FileMode(0644), runner.RedirectFileMode)
}

// umask reports the creation mask by creating a file with every permission bit requested
func umask(t *testing.T, dir string) os.FileMode {
	t.Helper()
	f, err := os.OpenFile(filepath.Join(dir, "umask-check"), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0777)
	require.NoError(t, err)
	fi, err := f.Stat()
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return 0777 &^ fi.Mode().Perm()
}

func TestLauncher_RunIDFromContext(t *testing.T) {
	requirePOSIX(t)

	l, hook := nullLogger()
	launcher := runner.NewLauncher(runner.WithLogger(l), runner.WithStdout(&bytes.Buffer{}))
	ctx := logger.ContextWithRunID(context.Background(), "cli-run")

	res, err := launcher.Exec(ctx, []string{"/bin/true"})
	require.NoError(t, err)
	assert.Equal(t, "cli-run", res.RunID)
	for _, e := range hook.AllEntries() {
		assert.Equal(t, "cli-run", e.Data["run_id"])
	}

	sh := runner.NewShellRunner(runner.WithLogger(l))
	hook.Reset()
	require.NoError(t, sh.Run(ctx, "true"))
	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, "cli-run", hook.LastEntry().Data["run_id"])
}

func TestLauncher_ExecRedirectTruncates(t *testing.T) {
	requirePOSIX(t)

	out := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(out, []byte("a much longer previous content\n"), 0644))

	l, _ := nullLogger()
	launcher := runner.NewLauncher(runner.WithLogger(l))

	_, err := launcher.ExecRedirect(context.Background(), out, []string{"/bin/echo", "short"})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "short\n", string(data))
}

func TestLauncher_ExecRedirectFailingChild(t *testing.T) {
	requirePOSIX(t)

	out := filepath.Join(t.TempDir(), "out.txt")
	l, _ := nullLogger()
	launcher := runner.NewLauncher(runner.WithLogger(l))

	res, err := launcher.ExecRedirect(context.Background(), out, []string{"/bin/sh", "-c", "echo partial; exit 2"})
	require.Error(t, err)
	assert.Equal(t, 2, res.ExitCode)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "partial\n", string(data))
}

func TestLauncher_ExecRedirectUnopenableTargetDoesNotSpawn(t *testing.T) {
	requirePOSIX(t)

	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")
	out := filepath.Join(dir, "missing-dir", "out.txt")

	l, hook := nullLogger()
	launcher := runner.NewLauncher(runner.WithLogger(l))

	res, err := launcher.ExecRedirect(context.Background(), out, []string{"/bin/sh", "-c", "touch " + marker})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.NoFileExists(t, marker)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestBoolHelpers(t *testing.T) {
	requirePOSIX(t)

	assert.True(t, runner.System("exit 0"))
	assert.False(t, runner.System("exit 1"))
	assert.True(t, runner.System(""))

	assert.True(t, runner.Exec([]string{"/bin/true"}))
	assert.False(t, runner.Exec([]string{"/bin/false"}))
	assert.False(t, runner.Exec([]string{"/nonexistent"}))

	out := filepath.Join(t.TempDir(), "helper.txt")
	assert.True(t, runner.ExecRedirect(out, []string{"/bin/echo", "x"}))
	assert.FileExists(t, out)
}

func TestImplementsInterfaces(t *testing.T) {
	var _ runner.CommandRunner = (*runner.ShellRunner)(nil)
	var _ runner.ProcessLauncher = (*runner.Launcher)(nil)
}
