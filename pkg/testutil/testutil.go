// Package testutil provides testing utilities for the posixkit packages
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"posixkit/pkg/logger"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// MockCommandRunner implements runner.CommandRunner for testing
type MockCommandRunner struct {
	mu        sync.RWMutex
	commands  []ExecutedCommand
	responses map[string]CommandResponse
}

type ExecutedCommand struct {
	CommandLine string
	Context     context.Context
}

type CommandResponse struct {
	Error error
}

func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{
		responses: make(map[string]CommandResponse),
	}
}

func (m *MockCommandRunner) Run(ctx context.Context, commandLine string) error {
	m.mu.Lock()
	m.commands = append(m.commands, ExecutedCommand{
		CommandLine: commandLine,
		Context:     ctx,
	})
	m.mu.Unlock()

	m.mu.RLock()
	response, exists := m.responses[commandLine]
	m.mu.RUnlock()

	if exists {
		return response.Error
	}

	return nil
}

func (m *MockCommandRunner) SetResponse(commandLine string, response CommandResponse) {
	m.mu.Lock()
	m.responses[commandLine] = response
	m.mu.Unlock()
}

func (m *MockCommandRunner) GetExecutedCommands() []ExecutedCommand {
	m.mu.RLock()
	defer m.mu.RUnlock()

	commands := make([]ExecutedCommand, len(m.commands))
	copy(commands, m.commands)
	return commands
}

// FakeLock is a lock whose operations can be told to fail. It satisfies
// mutexdemo.RefLocker.
type FakeLock struct {
	mu         sync.Mutex
	LockErr    error
	UnlockErr  error
	RetainErr  error
	locks      int
	unlocks    int
	references int
}

func (f *FakeLock) Lock() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LockErr != nil {
		return f.LockErr
	}
	f.locks++
	return nil
}

func (f *FakeLock) Unlock() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UnlockErr != nil {
		return f.UnlockErr
	}
	f.unlocks++
	return nil
}

func (f *FakeLock) Retain() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RetainErr != nil {
		return f.RetainErr
	}
	f.references++
	return nil
}

func (f *FakeLock) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.references--
	return nil
}

// Counts returns how many successful locks, unlocks and outstanding references were seen
func (f *FakeLock) Counts() (locks, unlocks, references int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locks, f.unlocks, f.references
}

// NewTestLogger returns a debug-level logger that records entries instead of printing them
func NewTestLogger() (*logger.Logger, *test.Hook) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	return &logger.Logger{Logger: base}, hook
}

// CreateTestFile creates a test file with the given content
func CreateTestFile(t *testing.T, dir, filename, content string) string {
	t.Helper()

	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", filePath, err)
	}

	return filePath
}
