package app

import (
	"github.com/dshills/previewsync/internal/clock"
	"github.com/dshills/previewsync/internal/config"
	"github.com/dshills/previewsync/internal/event"
)

// Option configures a Session.
type Option func(*Session)

// WithConfig sets the configuration. The default is config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(s *Session) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets the logger. The default writes to stderr at the
// configured level.
func WithLogger(l *Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the clock. A *clock.Fake enables Advance.
func WithClock(c clock.Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.base = c
		}
	}
}

// WithBus sets the event bus shared by the document and the components.
func WithBus(b event.Bus) Option {
	return func(s *Session) {
		if b != nil {
			s.bus = b
		}
	}
}
