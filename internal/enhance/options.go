package enhance

import (
	"time"

	"github.com/dshills/previewsync/internal/clock"
	"github.com/dshills/previewsync/internal/event"
	"github.com/dshills/previewsync/internal/retry"
	"github.com/dshills/previewsync/internal/source"
)

// Option configures an Enhancer.
type Option func(*Enhancer)

// WithClock sets the clock used for debounce and retry timers.
func WithClock(c clock.Clock) Option {
	return func(e *Enhancer) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithBus sets the bus that sync outcomes are published on.
func WithBus(b event.Bus) Option {
	return func(e *Enhancer) {
		e.bus = b
	}
}

// WithSyncDelay sets the debounce delay for text edits.
func WithSyncDelay(d time.Duration) Option {
	return func(e *Enhancer) {
		if d > 0 {
			e.delay = d
		}
	}
}

// WithRetryPolicy sets the polling budget of EnhanceContainer.
func WithRetryPolicy(p retry.Policy) Option {
	return func(e *Enhancer) {
		e.policy = p
	}
}

// WithDiagnostics sets the diagnostics sink.
func WithDiagnostics(d Diagnostics) Option {
	return func(e *Enhancer) {
		if d != nil {
			e.diag = d
		}
	}
}

// WithWriteHook sets fn to observe every write to a source buffer the
// enhancer creates.
func WithWriteHook(fn source.WriteFunc) Option {
	return func(e *Enhancer) {
		e.writeHook = fn
	}
}
