// Package logger provides structured logging for the posixkit utilities
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// Options controls how a Logger is built
type Options struct {
	Level  logrus.Level
	Format string // "text" or "json"
	Output io.Writer
}

type runIDKey struct{}

// NewLogger creates a new structured logger
func NewLogger(level logrus.Level) *Logger {
	format := "text"
	if os.Getenv("ENV") == "production" {
		format = "json"
	}
	return NewLoggerWithOptions(Options{Level: level, Format: format})
}

// NewLoggerWithOptions creates a logger with an explicit format and output
func NewLoggerWithOptions(opts Options) *Logger {
	logger := logrus.New()
	logger.SetLevel(opts.Level)

	if opts.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	if opts.Output != nil {
		logger.SetOutput(opts.Output)
	}

	return &Logger{Logger: logger}
}

// ParseLevel converts a level name to a logrus level; "off" disables output
func ParseLevel(name string) (logrus.Level, bool, error) {
	if name == "off" || name == "none" {
		return logrus.PanicLevel, false, nil
	}
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel, false, err
	}
	return lvl, true, nil
}

// Disable discards everything written through the logger
func (l *Logger) Disable() {
	l.Logger.SetOutput(io.Discard)
	l.Logger.SetLevel(logrus.PanicLevel)
	l.Logger.ReplaceHooks(make(logrus.LevelHooks))
}

// NewRunID returns a fresh identifier used to correlate log lines of one run
func NewRunID() string {
	return uuid.New().String()
}

// ContextWithRunID stores a run ID in ctx
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run ID stored in ctx, if any
func RunIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// RunIDFor returns the run ID carried by ctx or a fresh one
func RunIDFor(ctx context.Context) string {
	if id, ok := RunIDFromContext(ctx); ok {
		return id
	}
	return NewRunID()
}

// WithContext adds context-specific fields to the logger
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithContext(ctx)

	if runID, ok := RunIDFromContext(ctx); ok {
		entry = entry.WithField("run_id", runID)
	}

	return entry
}

// WithRun adds run-specific fields to the logger
func (l *Logger) WithRun(runID, operation string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"run_id":    runID,
		"operation": operation,
	})
}

// WithError adds error context to the logger
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields(fields))
}

// LogRun logs the start and end of a single operation
func (l *Logger) LogRun(operation string, fn func() error) error {
	start := time.Now()
	runID := NewRunID()

	l.WithRun(runID, operation).WithField("action", "start").Debug("Operation started")

	err := fn()
	duration := time.Since(start)

	entry := l.WithRun(runID, operation).WithFields(logrus.Fields{
		"action":   "complete",
		"duration": duration.String(),
	})

	if err != nil {
		entry.WithError(err).Error("Operation failed")
	} else {
		entry.Debug("Operation completed successfully")
	}

	return err
}
