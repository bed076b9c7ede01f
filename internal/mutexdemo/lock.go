package mutexdemo

import (
	"sync"
	"sync/atomic"

	perrors "posixkit/pkg/errors"
)

// RefLocker is a blocking lock whose lifetime is governed by references.
// Lock and Unlock report errors instead of panicking.
type RefLocker interface {
	Lock() error
	Unlock() error
	Retain() error
	Release() error
}

// SharedLock is a reference-counted blocking mutex. The creator holds the
// first reference; every worker that uses the lock retains its own and
// releases it when done, so the lock stays valid for as long as anyone
// still refers to it regardless of which goroutine created it.
type SharedLock struct {
	mu   sync.Mutex
	held atomic.Bool
	refs atomic.Int32
}

// NewSharedLock returns a lock holding one reference for the caller
func NewSharedLock() *SharedLock {
	l := &SharedLock{}
	l.refs.Store(1)
	return l
}

// Retain adds a reference. It fails once the count has reached zero.
func (l *SharedLock) Retain() error {
	if l == nil {
		return perrors.ErrNilLock
	}
	for {
		n := l.refs.Load()
		if n <= 0 {
			return perrors.ErrLockClosed
		}
		if l.refs.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

// Release drops a reference
func (l *SharedLock) Release() error {
	if l == nil {
		return perrors.ErrNilLock
	}
	for {
		n := l.refs.Load()
		if n <= 0 {
			return perrors.ErrLockClosed
		}
		if l.refs.CompareAndSwap(n, n-1) {
			return nil
		}
	}
}

// Refs returns the current reference count
func (l *SharedLock) Refs() int {
	return int(l.refs.Load())
}

// Lock blocks until the lock is acquired. There is no timeout.
func (l *SharedLock) Lock() error {
	if l == nil {
		return perrors.ErrNilLock
	}
	if l.refs.Load() <= 0 {
		return perrors.ErrLockClosed
	}
	l.mu.Lock()
	l.held.Store(true)
	return nil
}

// TryLock acquires the lock only if it is free
func (l *SharedLock) TryLock() bool {
	if l == nil || l.refs.Load() <= 0 {
		return false
	}
	if !l.mu.TryLock() {
		return false
	}
	l.held.Store(true)
	return true
}

// Unlock releases the lock. Unlocking a lock that is not held is an error.
func (l *SharedLock) Unlock() error {
	if l == nil {
		return perrors.ErrNilLock
	}
	if !l.held.CompareAndSwap(true, false) {
		return perrors.ErrNotHeld
	}
	l.mu.Unlock()
	return nil
}
