// Package writer writes a single string to a file, replacing any previous content.
package writer

import (
	"fmt"
	"io"
	"os"

	"posixkit/pkg/logger"
)

// FileMode is used when the target file has to be created
const FileMode os.FileMode = 0644

type Writer struct {
	logger *logger.Logger
}

// New returns a Writer logging through l
func New(l *logger.Logger) *Writer {
	return &Writer{logger: l}
}

// Write creates or truncates path and writes text to it. The directory
// must already exist.
func (w *Writer) Write(path, text string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FileMode)
	if err != nil {
		w.logger.WithFields(logger.Fields{"path": path}).WithError(err).
			Errorf("Unable to create the requested file %s", path)
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w.logger.WithFields(logger.Fields{"path": path}).Debugf("Writing %s to %s", text, path)

	if _, err := io.WriteString(f, text); err != nil {
		f.Close()
		w.logger.WithFields(logger.Fields{"path": path}).WithError(err).
			Errorf("Unable to write to %s", path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		w.logger.WithFields(logger.Fields{"path": path}).WithError(err).
			Errorf("Unable to close %s", path)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
