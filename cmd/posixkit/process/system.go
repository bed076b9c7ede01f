package process

import (
	"strings"

	"posixkit/internal/app"
	"posixkit/pkg/runner"

	"github.com/spf13/cobra"
)

// newCommandRunner is replaced in tests
var newCommandRunner = func(a *app.App) runner.CommandRunner {
	return runner.NewShellRunner(
		runner.WithLogger(a.Logger),
		runner.WithShell(a.Config.Shell.Path),
		runner.WithStdout(a.Stdout),
		runner.WithStderr(a.Stderr),
	)
}

// NewSystemCommand creates the system command
func NewSystemCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "system [command line...]",
		Short: "Run a command line through the shell",
		Long: `Run a command line through the configured shell. The arguments are joined with spaces and interpreted by the shell, so quoting is up to the caller.
The command succeeds only if the shell started and the command exited with status 0. Without arguments it checks that a shell is available.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := a.SignalContext(cmd.Context())
			defer cancel()

			return newCommandRunner(a).Run(ctx, strings.Join(args, " "))
		},
	}
}
