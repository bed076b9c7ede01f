package runner

import (
	"context"
	"io"
	"os"

	"posixkit/pkg/logger"

	"github.com/sirupsen/logrus"
)

// CommandRunner runs a command line through the platform shell
type CommandRunner interface {
	Run(ctx context.Context, commandLine string) error
}

// ProcessLauncher spawns an executable by absolute path and waits for it
type ProcessLauncher interface {
	Exec(ctx context.Context, argv []string) (*Result, error)
	ExecRedirect(ctx context.Context, outputFile string, argv []string) (*Result, error)
}

type runnerOpts struct {
	logger *logger.Logger
	stdout io.Writer
	stderr io.Writer
	shell  string
}

// OptFunc configures a ShellRunner or Launcher
type OptFunc func(*runnerOpts)

func defaultOpts() runnerOpts {
	return runnerOpts{
		logger: logger.NewLogger(logrus.InfoLevel),
		stdout: os.Stdout,
		stderr: os.Stderr,
		shell:  DefaultShell,
	}
}

func WithLogger(l *logger.Logger) OptFunc {
	return func(o *runnerOpts) {
		o.logger = l
	}
}

// WithStdout sets where a child's standard output goes when not redirected
func WithStdout(w io.Writer) OptFunc {
	return func(o *runnerOpts) {
		o.stdout = w
	}
}

func WithStderr(w io.Writer) OptFunc {
	return func(o *runnerOpts) {
		o.stderr = w
	}
}

// WithShell overrides the interpreter used by ShellRunner
func WithShell(path string) OptFunc {
	return func(o *runnerOpts) {
		o.shell = path
	}
}

var (
	defaultShellRunner = NewShellRunner()
	defaultLauncher    = NewLauncher()
)

// System reports whether commandLine ran through the shell and exited 0.
// An empty command line reports whether a shell is available.
func System(commandLine string) bool {
	return defaultShellRunner.Run(context.Background(), commandLine) == nil
}

// Exec reports whether argv[0] ran and exited normally with status 0.
func Exec(argv []string) bool {
	_, err := defaultLauncher.Exec(context.Background(), argv)
	return err == nil
}

// ExecRedirect is Exec with the child's standard output sent to outputFile.
func ExecRedirect(outputFile string, argv []string) bool {
	_, err := defaultLauncher.ExecRedirect(context.Background(), outputFile, argv)
	return err == nil
}
