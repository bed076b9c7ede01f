//go:build !windows && !plan9

package logger

import (
	"fmt"
	"io"
	"log/syslog"

	"github.com/sirupsen/logrus"
	logrus_syslog "github.com/sirupsen/logrus/hooks/syslog"
)

// AttachSyslog routes every entry of l to the local syslog daemon under the
// user facility. When exclusive is set the logger's own writer is discarded
// so messages only reach syslog.
func (l *Logger) AttachSyslog(tag string, exclusive bool) error {
	hook, err := logrus_syslog.NewSyslogHook("", "", syslog.LOG_USER|syslog.LOG_DEBUG, tag)
	if err != nil {
		return fmt.Errorf("failed to connect to syslog: %w", err)
	}
	l.AddHook(hook)
	if exclusive {
		l.SetOutput(io.Discard)
	}
	return nil
}

// NewSyslogLogger creates a logger that writes to syslog only. If syslog is
// unreachable the returned logger keeps writing to stderr and the error is
// returned alongside it.
func NewSyslogLogger(level logrus.Level, tag string) (*Logger, error) {
	l := NewLogger(level)
	if err := l.AttachSyslog(tag, true); err != nil {
		return l, err
	}
	return l, nil
}
