package writer

import (
	"fmt"

	"posixkit/internal/app"
	"posixkit/internal/config"
	perrors "posixkit/pkg/errors"
	"posixkit/pkg/logger"

	"github.com/spf13/cobra"
)

// NewCommand creates the writer command under the given name. It takes
// exactly two arguments, the file and the text, and logs through the
// writer section of the configuration (syslog, user facility, by default).
//
// Flag parsing is disabled so text starting with a dash is written as is.
// Settings come from the config file (POSIXKIT_CONFIG) and POSIXKIT_WRITER_*
// environment variables.
func NewCommand(use string) *cobra.Command {
	writeCmd := &cobra.Command{
		Use:   use + " <file> <text>",
		Short: "Write a string to a file, replacing its content",
		Long: `Write a string to a file, creating it or overwriting any existing content. The directory must already exist.
Progress is logged at debug level and failures at error level to syslog under the user facility.
The command takes no flags; use POSIXKIT_WRITER_LEVEL, POSIXKIT_WRITER_SYSLOG or a configuration file named by POSIXKIT_CONFIG.`,
		DisableFlagParsing: true,
		Args:               cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			l, err := newCommandLogger(cmd)
			if err != nil {
				return err
			}

			if len(args) != 2 {
				l.WithFields(logger.Fields{"got": len(args)}).
					Error("Invalid number of arguments. This command accepts 2 arguments.")
				cmd.SilenceUsage = false
				return fmt.Errorf("%w: expected 2 arguments (file, text), got %d", perrors.ErrUsage, len(args))
			}

			return l.LogRun("write", func() error {
				return New(l).Write(args[0], args[1])
			})
		},
	}

	return writeCmd
}

// newCommandLogger builds the writer logger. When the configuration cannot be
// loaded the failure is still logged, through a logger built from defaults and
// environment.
func newCommandLogger(cmd *cobra.Command) (*logger.Logger, error) {
	a, err := app.FromCommand(cmd)
	if err != nil {
		l, lerr := config.EnvWriterConfig("POSIXKIT").NewLogger(cmd.ErrOrStderr())
		if l != nil {
			if lerr != nil {
				l.WithError(lerr).Warn("Syslog unavailable, logging to stderr")
			}
			l.WithError(err).Error("Unable to load configuration")
		}
		return nil, err
	}

	l, err := a.Config.Writer.NewLogger(a.Stderr)
	if l == nil {
		return nil, err
	}
	if err != nil {
		l.WithError(err).Warn("Syslog unavailable, logging to stderr")
	}
	return l, nil
}
