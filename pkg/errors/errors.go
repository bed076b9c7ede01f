package errors

import (
	"errors"
	"fmt"
	"os"
)

var (
	ErrEmptyArgv     = errors.New("argument vector is empty")
	ErrNilHandle     = errors.New("worker handle is nil")
	ErrNilLock       = errors.New("lock is nil")
	ErrNegativeWait  = errors.New("wait duration is negative")
	ErrLockClosed    = errors.New("lock has no remaining references")
	ErrNotHeld       = errors.New("lock is not held")
	ErrAbnormalExit  = errors.New("process did not exit normally")
	ErrUsage         = errors.New("invalid usage")
	ErrShellNotFound = errors.New("shell not available")
	ErrHandleInUse   = errors.New("worker handle already started")
)

// ExitError describes a child that ran but did not finish with status zero.
type ExitError struct {
	Path     string
	Code     int
	Signaled bool
	Signal   os.Signal
}

func (e *ExitError) Error() string {
	if e.Signaled {
		return fmt.Sprintf("%s terminated by signal %v", e.Path, e.Signal)
	}
	return fmt.Sprintf("%s exited with status %d", e.Path, e.Code)
}

func (e *ExitError) Unwrap() error {
	if e.Signaled {
		return ErrAbnormalExit
	}
	return nil
}

func NewExitError(path string, code int) *ExitError {
	return &ExitError{
		Path: path,
		Code: code,
	}
}

func NewSignalError(path string, sig os.Signal) *ExitError {
	return &ExitError{
		Path:     path,
		Code:     -1,
		Signaled: true,
		Signal:   sig,
	}
}

type ConfigError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value: %v): %s", e.Field, e.Value, e.Message)
}

func NewConfigError(field string, value interface{}, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Is and As are re-exported so callers need a single errors import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
