// Package clock abstracts timers so debounce, frame coalescing and retry
// polling can run against wall-clock time in production and a virtual clock
// in tests.
package clock

import (
	"sync"
	"time"
)

// Timer is a scheduled callback.
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is a Clock backed by the time package.
type Real struct{}

// New returns the wall clock.
func New() Clock {
	return Real{}
}

// Now returns the current time.
func (Real) Now() time.Time {
	return time.Now()
}

// AfterFunc calls f in its own goroutine after d.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Serialized wraps a Clock so every callback runs while holding l.
// Components built on the single-threaded model share one lock so timer
// callbacks never interleave with host event handling.
func Serialized(c Clock, l sync.Locker) Clock {
	return serialized{inner: c, lock: l}
}

type serialized struct {
	inner Clock
	lock  sync.Locker
}

func (s serialized) Now() time.Time {
	return s.inner.Now()
}

func (s serialized) AfterFunc(d time.Duration, f func()) Timer {
	return s.inner.AfterFunc(d, func() {
		s.lock.Lock()
		defer s.lock.Unlock()
		f()
	})
}
