// Package retry polls for host widgets that appear lazily.
//
// A Task tries its finder once immediately and then once per interval until
// it succeeds or the retry budget runs out. It resolves exactly once, to the
// found value or to ErrWidgetNotReady.
package retry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dshills/previewsync/internal/clock"
)

// ErrWidgetNotReady is the terminal outcome when the finder never succeeds.
var ErrWidgetNotReady = errors.New("widget not ready")

// Default polling budget: 30 retries at 150ms.
const (
	DefaultRetries  = 30
	DefaultInterval = 150 * time.Millisecond
)

// Policy bounds a poll. Retries counts the attempts after the first one.
type Policy struct {
	Retries  int
	Interval time.Duration
}

// DefaultPolicy returns the default polling budget.
func DefaultPolicy() Policy {
	return Policy{Retries: DefaultRetries, Interval: DefaultInterval}
}

// Finder looks for the widget. ok reports whether it was found.
type Finder[T any] func() (value T, ok bool)

// Task is a pending poll.
type Task[T any] struct {
	clock  clock.Clock
	policy Policy
	find   Finder[T]

	mu       sync.Mutex
	attempts int
	timer    clock.Timer
	resolved bool
	canceled bool
	value    T
	err      error
	done     chan struct{}
	onDone   []func(T, error)
}

// Start begins polling. The first attempt runs synchronously.
func Start[T any](c clock.Clock, p Policy, find Finder[T]) *Task[T] {
	if c == nil {
		c = clock.New()
	}
	if p.Retries < 0 {
		p.Retries = 0
	}
	if p.Interval <= 0 {
		p.Interval = DefaultInterval
	}
	t := &Task[T]{
		clock:  c,
		policy: p,
		find:   find,
		done:   make(chan struct{}),
	}
	t.attempt()
	return t
}

func (t *Task[T]) attempt() {
	t.mu.Lock()
	if t.resolved || t.canceled {
		t.mu.Unlock()
		return
	}
	t.attempts++
	n := t.attempts
	t.mu.Unlock()

	if v, ok := t.find(); ok {
		t.resolve(v, nil)
		return
	}
	if n > t.policy.Retries {
		var zero T
		t.resolve(zero, ErrWidgetNotReady)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.canceled {
		return
	}
	t.timer = t.clock.AfterFunc(t.policy.Interval, t.attempt)
}

func (t *Task[T]) resolve(v T, err error) {
	t.mu.Lock()
	if t.resolved {
		t.mu.Unlock()
		return
	}
	t.resolved = true
	t.value = v
	t.err = err
	hooks := t.onDone
	t.onDone = nil
	close(t.done)
	t.mu.Unlock()

	for _, fn := range hooks {
		fn(v, err)
	}
}

// Then registers fn to run when the task resolves. If the task has already
// resolved, fn runs immediately.
func (t *Task[T]) Then(fn func(T, error)) *Task[T] {
	t.mu.Lock()
	if !t.resolved {
		t.onDone = append(t.onDone, fn)
		t.mu.Unlock()
		return t
	}
	v, err := t.value, t.err
	t.mu.Unlock()
	fn(v, err)
	return t
}

// Done is closed when the task resolves.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Resolved reports whether the task has an outcome.
func (t *Task[T]) Resolved() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resolved
}

// Result returns the outcome. It returns the zero value and a nil error
// while the task is still polling.
func (t *Task[T]) Result() (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.err
}

// Attempts returns how many times the finder ran.
func (t *Task[T]) Attempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}

// Cancel abandons the poll. The task resolves with context.Canceled.
func (t *Task[T]) Cancel() {
	t.mu.Lock()
	if t.resolved {
		t.mu.Unlock()
		return
	}
	t.canceled = true
	if t.timer != nil {
		t.timer.Stop()
	}
	t.mu.Unlock()

	var zero T
	t.resolve(zero, context.Canceled)
}

// Wait blocks until the task resolves or ctx is done. It must not be called
// while holding a lock that the task's clock callbacks need.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
