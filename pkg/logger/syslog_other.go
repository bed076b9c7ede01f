//go:build windows || plan9

package logger

import (
	"errors"

	"github.com/sirupsen/logrus"
)

var errNoSyslog = errors.New("syslog is not supported on this platform")

func (l *Logger) AttachSyslog(tag string, exclusive bool) error {
	return errNoSyslog
}

func NewSyslogLogger(level logrus.Level, tag string) (*Logger, error) {
	return NewLogger(level), errNoSyslog
}
