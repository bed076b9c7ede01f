package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Follower copies bytes appended to a file to a writer as they arrive.
// The file does not need to exist when following starts, and truncation
// restarts copying from the beginning.
type Follower struct {
	path   string
	w      io.Writer
	mu     sync.Mutex
	offset int64
}

func NewFollower(path string, w io.Writer) *Follower {
	return &Follower{path: filepath.Clean(path), w: w}
}

// Follow watches the file's directory until ctx is done, then performs a
// final copy so everything written before cancellation reaches w.
func Follow(ctx context.Context, path string, w io.Writer) error {
	return NewFollower(path, w).Run(ctx)
}

// Run blocks until ctx is done
func (f *Follower) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(f.path)
	fileInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("directory does not exist: %s: %w", dir, err)
	}
	if !fileInfo.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Debugf("Following %s", f.path)

	if err := f.drain(); err != nil {
		log.Errorf("Error reading %s: %v", f.path, err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return f.drain()
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if err := f.drain(); err != nil {
				log.Errorf("Error reading %s: %v", f.path, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return f.drain()
			}
			log.Error(err)
		case <-ctx.Done():
			return f.drain()
		}
	}
}

// Offset returns how many bytes have been copied from the current file
func (f *Follower) Offset() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offset
}

func (f *Follower) drain() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer file.Close()

	fi, err := file.Stat()
	if err != nil {
		return err
	}
	if fi.Size() < f.offset {
		f.offset = 0
	}
	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return err
	}

	n, err := io.Copy(f.w, file)
	f.offset += n
	return err
}
