// Package debounce implements per-key pending syncs: at most one timer per
// key, restarted on every new event, with a force-flush path that runs the
// pending callback immediately.
package debounce

import (
	"sync"
	"time"

	"github.com/dshills/previewsync/internal/clock"
)

// DefaultDelay is the delay used when none is configured.
const DefaultDelay = 300 * time.Millisecond

// Debouncer coalesces bursts of events per key. Only the callback of the
// last Schedule call within the delay window runs.
type Debouncer[K comparable] struct {
	clock clock.Clock
	delay time.Duration

	mu      sync.Mutex
	pending map[K]*pendingSync
	fired   uint64
	flushed uint64
}

// pendingSync is the timer owned by one key.
type pendingSync struct {
	timer clock.Timer
	fn    func()
}

// New creates a debouncer. A nil clock uses wall-clock time.
func New[K comparable](c clock.Clock, delay time.Duration) *Debouncer[K] {
	if c == nil {
		c = clock.New()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[K]{
		clock:   c,
		delay:   delay,
		pending: make(map[K]*pendingSync),
	}
}

// Delay returns the configured delay.
func (d *Debouncer[K]) Delay() time.Duration {
	return d.delay
}

// Schedule cancels any pending callback for key and schedules fn after the
// delay.
func (d *Debouncer[K]) Schedule(key K, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}

	p := &pendingSync{fn: fn}
	p.timer = d.clock.AfterFunc(d.delay, func() {
		d.fire(key, p)
	})
	d.pending[key] = p
}

// fire runs p if it is still the pending sync for key. A timer that lost a
// race with Schedule or Cancel finds a different entry and does nothing.
func (d *Debouncer[K]) fire(key K, p *pendingSync) {
	d.mu.Lock()
	if d.pending[key] != p {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.fired++
	d.mu.Unlock()

	p.fn()
}

// Cancel drops the pending callback for key without running it. It reports
// whether a callback was pending.
func (d *Debouncer[K]) Cancel(key K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(d.pending, key)
	return true
}

// Flush runs the pending callback for key immediately. It reports whether a
// callback was pending.
func (d *Debouncer[K]) Flush(key K) bool {
	d.mu.Lock()
	p, ok := d.pending[key]
	if !ok {
		d.mu.Unlock()
		return false
	}
	p.timer.Stop()
	delete(d.pending, key)
	d.flushed++
	d.mu.Unlock()

	p.fn()
	return true
}

// FlushAll runs every pending callback immediately and returns how many ran.
func (d *Debouncer[K]) FlushAll() int {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.pending))
	for key, p := range d.pending {
		p.timer.Stop()
		fns = append(fns, p.fn)
		delete(d.pending, key)
	}
	d.flushed += uint64(len(fns))
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// CancelAll drops every pending callback.
func (d *Debouncer[K]) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
	}
}

// Pending reports whether key has a pending callback.
func (d *Debouncer[K]) Pending(key K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// PendingCount returns the number of pending callbacks.
func (d *Debouncer[K]) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stats reports how many callbacks ran from timers and from flushes.
func (d *Debouncer[K]) Stats() (fired, flushed uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fired, d.flushed
}
