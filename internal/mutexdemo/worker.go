package mutexdemo

import (
	"fmt"
	"time"

	perrors "posixkit/pkg/errors"
	"posixkit/pkg/logger"

	"github.com/sirupsen/logrus"
)

type startOpts struct {
	logger *logger.Logger
	sleep  func(time.Duration)
}

// OptFunc configures Start
type OptFunc func(*startOpts)

func WithLogger(l *logger.Logger) OptFunc {
	return func(o *startOpts) {
		o.logger = l
	}
}

// WithSleep replaces time.Sleep for the two waits
func WithSleep(fn func(time.Duration)) OptFunc {
	return func(o *startOpts) {
		o.sleep = fn
	}
}

var defaultLogger = logger.NewLogger(logrus.InfoLevel)

// Start launches a worker that waits waitToObtainMs, locks lock, waits
// waitToReleaseMs and unlocks it. It returns as soon as the worker is
// running; the outcome is read from handle.Join().Succeeded().
//
// A nil handle or lock, a negative wait or a handle that was already
// started is rejected before anything is allocated.
func Start(handle *Handle, lock RefLocker, waitToObtainMs, waitToReleaseMs int, opts ...OptFunc) error {
	if handle == nil {
		return perrors.ErrNilHandle
	}
	if isNilLock(lock) {
		return perrors.ErrNilLock
	}
	if waitToObtainMs < 0 || waitToReleaseMs < 0 {
		return perrors.ErrNegativeWait
	}
	if handle.inUse() {
		return perrors.ErrHandleInUse
	}

	o := startOpts{logger: defaultLogger, sleep: time.Sleep}
	for _, fn := range opts {
		fn(&o)
	}

	job := &Job{
		ID:            logger.NewRunID(),
		WaitToObtain:  time.Duration(waitToObtainMs) * time.Millisecond,
		WaitToRelease: time.Duration(waitToReleaseMs) * time.Millisecond,
		handle:        handle,
		lock:          lock,
	}
	job.enter(Created)

	if !handle.claim(job) {
		return perrors.ErrHandleInUse
	}

	// The worker owns its own reference to the lock until it is done.
	if err := lock.Retain(); err != nil {
		o.logger.WithRun(job.ID, "mutex_demo").WithError(err).Error("Failed to retain lock")
		job.enter(Done)
		close(handle.done)
		return fmt.Errorf("failed to retain lock: %w", err)
	}

	o.logger.WithRun(job.ID, "mutex_demo").WithFields(logrus.Fields{
		"wait_to_obtain":  job.WaitToObtain.String(),
		"wait_to_release": job.WaitToRelease.String(),
	}).Debug("Starting worker")

	go run(job, o)
	return nil
}

func isNilLock(lock RefLocker) bool {
	if lock == nil {
		return true
	}
	sl, ok := lock.(*SharedLock)
	return ok && sl == nil
}

// run is the worker body. Every failure skips straight to Done with the
// completion flag left false.
func run(job *Job, o startOpts) {
	log := o.logger.WithRun(job.ID, "mutex_demo")

	defer func() {
		if err := job.lock.Release(); err != nil {
			log.WithError(err).Warn("Failed to release lock reference")
		}
		job.enter(Done)
		close(job.handle.done)
	}()

	job.enter(Validating)
	if err := job.validate(); err != nil {
		log.WithError(err).Error("Worker validation failed")
		return
	}

	job.enter(SleepingPre)
	log.WithField("wait", job.WaitToObtain.String()).Debug("Sleeping before acquiring lock")
	o.sleep(job.WaitToObtain)

	job.enter(Acquiring)
	if err := job.lock.Lock(); err != nil {
		log.WithError(err).Error("Failed to acquire lock")
		return
	}

	job.enter(InCriticalSection)
	log.Debug("Lock acquired")

	job.enter(SleepingPost)
	log.WithField("wait", job.WaitToRelease.String()).Debug("Sleeping before releasing lock")
	o.sleep(job.WaitToRelease)

	job.enter(Releasing)
	if err := job.lock.Unlock(); err != nil {
		log.WithError(err).Error("Failed to release lock")
		return
	}

	log.Debug("Lock released")
	job.success.Store(true)
}

func (j *Job) validate() error {
	if j.lock == nil {
		return perrors.ErrNilLock
	}
	if j.WaitToObtain < 0 || j.WaitToRelease < 0 {
		return perrors.ErrNegativeWait
	}
	return nil
}
