package process

import (
	"context"
	"fmt"
	"os"

	"posixkit/internal/app"
	output "posixkit/pkg/io_utils"
	"posixkit/pkg/runner"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// ExecOpts holds the exec command flags
type ExecOpts struct {
	Output string
	Follow bool
}

// NewExecCommand creates the exec command
func NewExecCommand() *cobra.Command {
	opts := &ExecOpts{}

	execCmd := &cobra.Command{
		Use:   "exec [--output FILE [--follow]] -- /absolute/path [args...]",
		Short: "Launch an executable and wait for it",
		Long: `Launch an executable by absolute path without a shell and wait for it to finish.
The first argument is the executable and also its argv[0]. With --output its standard output is written to FILE, which is created or truncated.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if opts.Follow && opts.Output == "" {
				return fmt.Errorf("--follow requires --output")
			}

			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := a.SignalContext(cmd.Context())
			defer cancel()

			launcher := runner.NewLauncher(
				runner.WithLogger(a.Logger),
				runner.WithStdout(a.Stdout),
				runner.WithStderr(a.Stderr),
			)

			var res *runner.Result
			if opts.Output == "" {
				res, err = launcher.Exec(ctx, args)
			} else if opts.Follow {
				res, err = execFollowing(ctx, a, launcher, opts.Output, args)
			} else {
				res, err = launcher.ExecRedirect(ctx, opts.Output, args)
			}

			if res != nil && res.Started {
				a.Logger.WithContext(ctx).WithFields(logrus.Fields{
					"pid":       res.PID,
					"exit_code": res.ExitCode,
					"signaled":  res.Signaled,
					"duration":  res.Duration.String(),
				}).Info("Process finished")
			}
			return err
		},
	}

	execCmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Redirect the child's standard output to this file")
	execCmd.Flags().BoolVarP(&opts.Follow, "follow", "f", false, "Stream the output file to stdout while the child runs")

	return execCmd
}

// execFollowing runs the redirecting launch while a follower copies the
// output file to the terminal. The file is emptied first so stale content
// is never echoed. The follower is stopped after the wait and drains
// whatever is left.
func execFollowing(ctx context.Context, a *app.App, launcher *runner.Launcher, outputFile string, argv []string) (*runner.Result, error) {
	f, err := os.OpenFile(outputFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, runner.RedirectFileMode)
	if err != nil {
		// ExecRedirect reports the open failure without spawning.
		return launcher.ExecRedirect(ctx, outputFile, argv)
	}
	f.Close()

	followCtx, stopFollow := context.WithCancel(context.Background())
	followDone := make(chan error, 1)
	follower := output.NewFollower(outputFile, a.Stdout)
	go func() {
		followDone <- follower.Run(followCtx)
	}()

	res, err := launcher.ExecRedirect(ctx, outputFile, argv)

	stopFollow()
	if ferr := <-followDone; ferr != nil {
		a.Logger.WithError(ferr).Warn("Failed to follow output file")
	}
	return res, err
}
