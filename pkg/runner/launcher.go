package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	perrors "posixkit/pkg/errors"
	"posixkit/pkg/logger"

	"github.com/sirupsen/logrus"
)

// RedirectFileMode is the permission used when creating a redirect target
const RedirectFileMode os.FileMode = 0644

// Launcher spawns executables by absolute path without a shell and waits
// for them. There is no PATH lookup: argv[0] is both the file executed and
// the child's argv[0].
type Launcher struct {
	opts runnerOpts
}

// NewLauncher creates a new Launcher instance
func NewLauncher(opts ...OptFunc) *Launcher {
	o := defaultOpts()
	for _, fn := range opts {
		fn(&o)
	}
	return &Launcher{opts: o}
}

// Exec runs argv and waits for it. The child inherits the launcher's
// standard output and error.
func (l *Launcher) Exec(ctx context.Context, argv []string) (*Result, error) {
	return l.launch(ctx, argv, l.opts.stdout, "")
}

// ExecRedirect runs argv with its standard output written to outputFile,
// which is created or truncated. Failing to open outputFile aborts before
// any child is created. The file is closed after the wait whatever its result.
func (l *Launcher) ExecRedirect(ctx context.Context, outputFile string, argv []string) (*Result, error) {
	if len(argv) == 0 {
		return nil, perrors.ErrEmptyArgv
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(outputFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, RedirectFileMode)
	if err != nil {
		l.opts.logger.WithFields(logger.Fields{
			"output": outputFile,
			"path":   argv[0],
		}).WithError(err).Error("Failed to open redirect target")
		return nil, fmt.Errorf("failed to open %s: %w", outputFile, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			l.opts.logger.WithError(cerr).WithField("output", outputFile).Warn("Failed to close redirect target")
		}
	}()

	return l.launch(ctx, argv, f, outputFile)
}

func (l *Launcher) launch(ctx context.Context, argv []string, stdout io.Writer, outputFile string) (*Result, error) {
	if len(argv) == 0 {
		return nil, perrors.ErrEmptyArgv
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		RunID: logger.RunIDFor(ctx),
		Argv:  append([]string(nil), argv...),
	}
	operation := "exec"
	if outputFile != "" {
		operation = "exec_redirect"
	}
	log := l.opts.logger.WithRun(res.RunID, operation).WithField("path", argv[0])
	if outputFile != "" {
		log = log.WithField("output", outputFile)
	}

	log.WithField("args", argv[1:]).Debug("Launching process")

	cmd := &exec.Cmd{
		Path:   argv[0],
		Args:   res.Argv,
		Stdout: stdout,
		Stderr: l.opts.stderr,
	}

	if err := runCmd(cmd, res); err != nil {
		log.WithFields(logrus.Fields{
			"pid":       res.PID,
			"exit_code": res.ExitCode,
			"signaled":  res.Signaled,
		}).WithError(err).Error("Process failed")
		return res, fmt.Errorf("exec %s: %w", argv[0], err)
	}

	log.WithFields(logrus.Fields{
		"pid":      res.PID,
		"duration": res.Duration.String(),
	}).Debug("Process exited normally")
	return res, nil
}
