package settings

import (
	"bytes"
	"context"
	"testing"

	"posixkit/internal/app"
	"posixkit/internal/config"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigCommand(t *testing.T) {
	t.Setenv("POSIXKIT_SHELL_PATH", "/bin/dash")

	root := &cobra.Command{Use: "posixkit"}
	app.RegisterFlags(root)
	root.AddCommand(NewConfigCommand())

	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"config", "--log-format", "json"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &cfg))
	assert.Equal(t, "/bin/dash", cfg.Shell.Path)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "writer", cfg.Writer.Tag)
}
