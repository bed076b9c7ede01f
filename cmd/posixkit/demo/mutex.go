package demo

import (
	"fmt"

	"posixkit/internal/app"
	"posixkit/internal/mutexdemo"

	"github.com/spf13/cobra"
)

// newLock is replaced in tests
var newLock = mutexdemo.NewSharedLock

// MutexOpts holds the mutex-demo flags
type MutexOpts struct {
	WaitToObtainMs  int
	WaitToReleaseMs int
	Workers         int
}

// NewMutexDemoCommand creates the mutex-demo command
func NewMutexDemoCommand() *cobra.Command {
	opts := &MutexOpts{}

	mutexCmd := &cobra.Command{
		Use:   "mutex-demo",
		Short: "Run workers that wait, take a shared lock, wait and release it",
		Long: `Launch one or more background workers sharing a single lock. Each worker sleeps, acquires the lock, sleeps while holding it and releases it.
The command joins every worker and fails if any of them did not complete successfully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if opts.Workers < 1 {
				return fmt.Errorf("--workers must be at least 1")
			}

			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}

			lock := newLock()
			defer func() {
				if err := lock.Release(); err != nil {
					a.Logger.WithError(err).Warn("Failed to release lock reference")
				}
			}()

			handles := make([]*mutexdemo.Handle, opts.Workers)
			for i := range handles {
				handles[i] = mutexdemo.NewHandle()
				err := mutexdemo.Start(handles[i], lock, opts.WaitToObtainMs, opts.WaitToReleaseMs, mutexdemo.WithLogger(a.Logger))
				if err != nil {
					// Join whatever already started before reporting.
					for _, h := range handles[:i] {
						h.Join()
					}
					return fmt.Errorf("failed to start worker %d: %w", i+1, err)
				}
			}

			failed := 0
			for i, h := range handles {
				job := h.Join()
				status := "succeeded"
				if !job.Succeeded() {
					status = "failed"
					failed++
				}
				fmt.Fprintf(a.Stdout, "worker %d (%s): %s\n", i+1, job.ID, status)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d workers failed", failed, len(handles))
			}
			return nil
		},
	}

	mutexCmd.Flags().IntVar(&opts.WaitToObtainMs, "obtain-ms", 0, "Milliseconds to wait before acquiring the lock")
	mutexCmd.Flags().IntVar(&opts.WaitToReleaseMs, "release-ms", 0, "Milliseconds to hold the lock before releasing it")
	mutexCmd.Flags().IntVarP(&opts.Workers, "workers", "w", 1, "Number of workers sharing the lock")

	return mutexCmd
}
