package demo

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"posixkit/internal/app"
	"posixkit/internal/mutexdemo"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(args ...string) (string, error) {
	root := &cobra.Command{Use: "posixkit"}
	app.RegisterFlags(root)
	root.AddCommand(NewMutexDemoCommand())

	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"mutex-demo", "--log-level", "off"}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestMutexDemoCommand_LogsReleaseFailure(t *testing.T) {
	orig := newLock
	newLock = func() *mutexdemo.SharedLock {
		l := mutexdemo.NewSharedLock()
		_ = l.Release()
		return l
	}
	defer func() { newLock = orig }()

	root := &cobra.Command{Use: "posixkit"}
	app.RegisterFlags(root)
	root.AddCommand(NewMutexDemoCommand())

	var stderr bytes.Buffer
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&stderr)
	root.SetArgs([]string{"mutex-demo", "--log-level", "warn"})

	assert.Error(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, stderr.String(), "Failed to release lock reference")
	assert.Contains(t, stderr.String(), "level=warning")
}

func TestMutexDemoCommand(t *testing.T) {
	out, err := run("--obtain-ms", "0", "--release-ms", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "worker 1")
	assert.Contains(t, out, "succeeded")
}

func TestMutexDemoCommand_SeveralWorkers(t *testing.T) {
	out, err := run("--obtain-ms", "1", "--release-ms", "2", "--workers", "3")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "succeeded"))
}

func TestMutexDemoCommand_InvalidInput(t *testing.T) {
	_, err := run("--obtain-ms", "-1")
	assert.Error(t, err)

	_, err = run("--workers", "0")
	assert.Error(t, err)
}
