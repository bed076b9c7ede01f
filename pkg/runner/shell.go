package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	perrors "posixkit/pkg/errors"
	"posixkit/pkg/logger"

	"github.com/sirupsen/logrus"
)

// DefaultShell is the interpreter used for command lines
const DefaultShell = "/bin/sh"

// ShellRunner executes command lines through a POSIX shell, the way system(3) does.
// The command line is passed to the shell verbatim; quoting is the caller's job.
type ShellRunner struct {
	opts runnerOpts
}

// NewShellRunner creates a new ShellRunner instance
func NewShellRunner(opts ...OptFunc) *ShellRunner {
	o := defaultOpts()
	for _, fn := range opts {
		fn(&o)
	}
	return &ShellRunner{opts: o}
}

// Shell returns the interpreter path
func (r *ShellRunner) Shell() string {
	return r.opts.shell
}

// Run executes commandLine with "<shell> -c". It returns nil only when the
// shell started and the command exited with status zero. The context is
// checked before launching; a running command is never interrupted.
func (r *ShellRunner) Run(ctx context.Context, commandLine string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if commandLine == "" {
		return r.probeShell()
	}

	res := &Result{
		RunID: logger.RunIDFor(ctx),
		Argv:  []string{r.opts.shell, "-c", commandLine},
	}
	log := r.opts.logger.WithRun(res.RunID, "system")

	log.WithField("command", commandLine).Debug("Running shell command")

	cmd := &exec.Cmd{
		Path:   r.opts.shell,
		Args:   res.Argv,
		Stdout: r.opts.stdout,
		Stderr: r.opts.stderr,
	}

	if err := runCmd(cmd, res); err != nil {
		log.WithFields(logrus.Fields{
			"command":   commandLine,
			"exit_code": res.ExitCode,
			"signaled":  res.Signaled,
		}).WithError(err).Error("Shell command failed")
		return fmt.Errorf("shell command %q: %w", commandLine, err)
	}

	log.WithField("duration", res.Duration.String()).Debug("Shell command succeeded")
	return nil
}

// probeShell mirrors system(NULL): success means a shell could be run
func (r *ShellRunner) probeShell() error {
	fi, err := os.Stat(r.opts.shell)
	if err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrShellNotFound, err)
	}
	if fi.IsDir() || fi.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("%w: %s is not executable", perrors.ErrShellNotFound, r.opts.shell)
	}
	return nil
}
