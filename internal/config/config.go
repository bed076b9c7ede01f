package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	perrors "posixkit/pkg/errors"
	"posixkit/pkg/logger"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration shared by the posixkit commands
type Config struct {
	Log    LogConfig   `mapstructure:"log" yaml:"log"`
	Writer LogConfig   `mapstructure:"writer" yaml:"writer"`
	Shell  ShellConfig `mapstructure:"shell" yaml:"shell"`
}

type LogConfig struct {
	// Level is a logrus level name or "off"
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Syslog bool   `mapstructure:"syslog" yaml:"syslog"`
	Tag    string `mapstructure:"tag" yaml:"tag"`
}

type ShellConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// Options controls where configuration is read from
type Options struct {
	ConfigFile  string
	ConfigPaths []string
	ConfigName  string
	EnvPrefix   string
}

// DefaultOptions searches the working directory, /etc/posixkit and ~/.posixkit
// for posixkit.yaml and reads POSIXKIT_* environment variables.
func DefaultOptions() Options {
	return Options{
		ConfigPaths: []string{".", "/etc/posixkit", "$HOME/.posixkit"},
		ConfigName:  "posixkit",
		EnvPrefix:   "POSIXKIT",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.syslog", false)
	v.SetDefault("log.tag", "posixkit")
	v.SetDefault("writer.level", "debug")
	v.SetDefault("writer.format", "text")
	v.SetDefault("writer.syslog", true)
	v.SetDefault("writer.tag", "writer")
	v.SetDefault("shell.path", "/bin/sh")
}

// EnvWriterConfig returns the writer section built from defaults and
// environment only. It is used to report failures to load the full
// configuration.
func EnvWriterConfig(envPrefix string) LogConfig {
	cfg, err := Load(Options{EnvPrefix: envPrefix})
	if err != nil {
		return LogConfig{Level: "debug", Format: "text", Syslog: true, Tag: "writer"}
	}
	return cfg.Writer
}

// NewViper builds a viper instance with defaults, env binding and an
// optional config file. A missing config file is not an error.
func NewViper(opts Options) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", opts.ConfigFile, err)
		}
		return v, nil
	}

	for _, path := range opts.ConfigPaths {
		v.AddConfigPath(path)
	}
	if opts.ConfigName != "" {
		v.SetConfigName(opts.ConfigName)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	return v, nil
}

// FromViper decodes and validates v
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is NewViper followed by FromViper
func Load(opts Options) (*Config, error) {
	v, err := NewViper(opts)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// Validate checks every field
func (c *Config) Validate() error {
	if err := c.Log.validate("log"); err != nil {
		return err
	}
	if err := c.Writer.validate("writer"); err != nil {
		return err
	}
	if c.Shell.Path == "" || !filepath.IsAbs(c.Shell.Path) {
		return perrors.NewConfigError("shell.path", c.Shell.Path, "must be an absolute path")
	}
	return nil
}

func (lc LogConfig) validate(section string) error {
	if _, _, err := logger.ParseLevel(lc.Level); err != nil {
		return perrors.NewConfigError(section+".level", lc.Level, "unknown log level")
	}
	switch lc.Format {
	case "text", "json":
	default:
		return perrors.NewConfigError(section+".format", lc.Format, "must be text or json")
	}
	if lc.Syslog && lc.Tag == "" {
		return perrors.NewConfigError(section+".tag", lc.Tag, "syslog tag is required when syslog is enabled")
	}
	return nil
}

// YAML renders the configuration
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// NewLogger builds the logger used by the posixkit commands. Local output
// goes to out.
func (c *Config) NewLogger(out io.Writer) (*logger.Logger, error) {
	return c.Log.NewLogger(out)
}

// NewWriterLogger builds the logger used by the file writer
func (c *Config) NewWriterLogger(out io.Writer) (*logger.Logger, error) {
	return c.Writer.NewLogger(out)
}

// NewLogger builds a logger from lc. When syslog is requested but
// unreachable the logger keeps writing to out and the error says why.
func (lc LogConfig) NewLogger(out io.Writer) (*logger.Logger, error) {
	level, enabled, err := logger.ParseLevel(lc.Level)
	if err != nil {
		return nil, perrors.NewConfigError("level", lc.Level, err.Error())
	}

	l := logger.NewLoggerWithOptions(logger.Options{
		Level:  level,
		Format: lc.Format,
		Output: out,
	})
	if !enabled {
		l.Disable()
		return l, nil
	}

	if lc.Syslog {
		if err := l.AttachSyslog(lc.Tag, true); err != nil {
			return l, err
		}
	}
	return l, nil
}
