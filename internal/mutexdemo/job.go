// Package mutexdemo runs a single background worker that waits, takes a
// shared lock, waits again while holding it and releases it, recording
// whether every step succeeded.
package mutexdemo

import (
	"sync"
	"sync/atomic"
	"time"
)

// State is a step of the worker's linear lifecycle
type State int32

const (
	Created State = iota
	Validating
	SleepingPre
	Acquiring
	InCriticalSection
	SleepingPost
	Releasing
	Done
)

var stateNames = [...]string{
	Created:           "created",
	Validating:        "validating",
	SleepingPre:       "sleeping_pre",
	Acquiring:         "acquiring",
	InCriticalSection: "in_critical_section",
	SleepingPost:      "sleeping_post",
	Releasing:         "releasing",
	Done:              "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Job is the record handed to a worker. Only the worker mutates it; the
// caller reads it after Handle.Join.
type Job struct {
	ID            string
	WaitToObtain  time.Duration
	WaitToRelease time.Duration

	handle  *Handle
	lock    RefLocker
	state   atomic.Int32
	success atomic.Bool

	mu      sync.Mutex
	history []State
}

// Succeeded reports the completion flag
func (j *Job) Succeeded() bool {
	return j.success.Load()
}

// State returns the step the worker is currently in
func (j *Job) State() State {
	return State(j.state.Load())
}

// History returns every state the worker has entered, in order
func (j *Job) History() []State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]State(nil), j.history...)
}

func (j *Job) enter(s State) {
	j.mu.Lock()
	j.history = append(j.history, s)
	j.mu.Unlock()
	j.state.Store(int32(s))
}

// Handle identifies a launched worker and lets the caller join it
type Handle struct {
	mu      sync.Mutex
	started bool
	job     *Job
	done    chan struct{}
}

// NewHandle returns an unused handle
func NewHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

func (h *Handle) inUse() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started
}

func (h *Handle) claim(j *Job) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return false
	}
	if h.done == nil {
		h.done = make(chan struct{})
	}
	h.started = true
	h.job = j
	return true
}

// Done is closed once the worker has finished
func (h *Handle) Done() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done == nil {
		h.done = make(chan struct{})
	}
	return h.done
}

// Job returns the job without waiting; nil if the handle was never started
func (h *Handle) Job() *Job {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.job
}

// Join blocks until the worker finishes and returns its job. A handle that
// was never started returns nil immediately.
func (h *Handle) Join() *Job {
	h.mu.Lock()
	started, job := h.started, h.job
	h.mu.Unlock()
	if !started {
		return nil
	}
	<-h.Done()
	return job
}
