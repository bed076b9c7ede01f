package runner

import (
	"errors"
	"os"
	"os/exec"
	"time"

	perrors "posixkit/pkg/errors"
)

// Result describes one finished child process
type Result struct {
	RunID    string
	Argv     []string
	Started  bool
	PID      int
	ExitCode int
	Signaled bool
	Signal   os.Signal
	Duration time.Duration
}

// Succeeded reports that a child was started and terminated normally with
// status zero
func (r *Result) Succeeded() bool {
	return r != nil && r.Started && !r.Signaled && r.ExitCode == 0
}

// runCmd starts cmd, waits for it unconditionally and classifies how it ended.
// Start errors cover fork failures and failed image replacement; in the latter
// case the child never runs any code of ours.
func runCmd(cmd *exec.Cmd, res *Result) error {
	start := time.Now()
	if err := cmd.Start(); err != nil {
		res.ExitCode = -1
		return err
	}
	res.Started = true
	res.PID = cmd.Process.Pid

	waitErr := cmd.Wait()
	res.Duration = time.Since(start)

	state := cmd.ProcessState
	if state == nil {
		return waitErr
	}

	if sig, ok := signaledBy(state); ok {
		res.Signaled = true
		res.Signal = sig
		res.ExitCode = -1
		return perrors.NewSignalError(cmd.Path, sig)
	}

	res.ExitCode = state.ExitCode()
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return perrors.NewExitError(cmd.Path, res.ExitCode)
		}
		return waitErr
	}
	return nil
}
