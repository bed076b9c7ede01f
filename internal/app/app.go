// Package app carries the configuration and logger shared by the CLI commands.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"posixkit/internal/config"
	"posixkit/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag names registered on the root command
const (
	FlagConfig    = "config"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
	FlagSyslog    = "syslog"
)

// EnvConfigFile names a configuration file when --config is not given
const EnvConfigFile = "POSIXKIT_CONFIG"

var flagKeys = map[string]string{
	FlagLogLevel:  "log.level",
	FlagLogFormat: "log.format",
	FlagSyslog:    "log.syslog",
}

// App represents one CLI invocation
type App struct {
	Config *config.Config
	Logger *logger.Logger
	Viper  *viper.Viper
	Stdout io.Writer
	Stderr io.Writer
}

// RegisterFlags adds the configuration flags to root as persistent flags
func RegisterFlags(root *cobra.Command) {
	root.PersistentFlags().String(FlagConfig, "", "Configuration file (default: posixkit.yaml in ., /etc/posixkit, ~/.posixkit)")
	root.PersistentFlags().String(FlagLogLevel, "info", "Log level (trace|debug|info|warn|error|off)")
	root.PersistentFlags().String(FlagLogFormat, "text", "Log format (text|json)")
	root.PersistentFlags().Bool(FlagSyslog, false, "Send logs to syslog instead of stderr")
}

// FromCommand loads configuration for cmd, letting explicitly set flags
// override files and environment.
func FromCommand(cmd *cobra.Command) (*App, error) {
	opts := config.DefaultOptions()
	flags := cmd.Root().PersistentFlags()

	if f := flags.Lookup(FlagConfig); f != nil && f.Value.String() != "" {
		opts.ConfigFile = f.Value.String()
	} else if path := os.Getenv(EnvConfigFile); path != "" {
		opts.ConfigFile = path
	}

	v, err := config.NewViper(opts)
	if err != nil {
		return nil, err
	}

	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Viper:  v,
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}

	l, err := cfg.NewLogger(a.Stderr)
	if l == nil {
		return nil, err
	}
	a.Logger = l
	if err != nil {
		l.WithError(err).Warn("Syslog unavailable, logging to stderr")
	}
	return a, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. The
// context carries a run ID unless parent already has one.
func (a *App) SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(logger.ContextWithRunID(parent, logger.RunIDFor(parent)))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			a.Logger.WithContext(ctx).WithField("signal", sig.String()).Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
