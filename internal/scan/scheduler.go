// Package scan schedules preview scans.
//
// Change notifications from the host are coalesced so that any number of
// them arriving within one frame produce a single scan. A fixed-interval
// sweep covers changes the host never reports. The scan itself must be
// idempotent; the scheduler only decides when it runs.
package scan

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/dshills/previewsync/internal/clock"
	"github.com/dshills/previewsync/internal/host"
)

// Default timings.
const (
	DefaultFrame    = 16 * time.Millisecond
	DefaultInterval = 1500 * time.Millisecond
)

// Diagnostics receives developer-facing reports.
type Diagnostics interface {
	Debug(msg string, args ...any)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithFrame sets the coalescing window.
func WithFrame(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.frame = d
		}
	}
}

// WithInterval sets the fallback sweep interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithFilter sets which changes warrant a scan. A batch with no matching
// change is ignored. By default every change does.
func WithFilter(fn func(host.Mutation) bool) Option {
	return func(s *Scheduler) {
		s.filter = fn
	}
}

// Relevant reports whether m can reveal something to enhance or restore:
// added children, or an attribute change such as a tab switch.
func Relevant(m host.Mutation) bool {
	switch m.Kind {
	case host.MutationChildList:
		return m.Added > 0
	case host.MutationAttributes:
		return true
	default:
		return false
	}
}

// WithDiagnostics sets the diagnostics sink.
func WithDiagnostics(d Diagnostics) Option {
	return func(s *Scheduler) {
		s.diag = d
	}
}

// Scheduler runs a scan function at most once per frame in response to
// change notifications, and periodically while started.
type Scheduler struct {
	mu       sync.Mutex
	clock    clock.Clock
	scan     func()
	frame    time.Duration
	interval time.Duration
	filter   func(host.Mutation) bool
	diag     Diagnostics

	// limiter hands out one scan token per frame.
	limiter     *rate.Limiter
	scheduled   bool
	frameTimer  clock.Timer
	reservation *rate.Reservation

	running bool
	sweep   clock.Timer

	scans         atomic.Uint64
	notifications atomic.Uint64
	coalesced     atomic.Uint64
	ignored       atomic.Uint64
}

// New creates a scheduler that calls scan. A nil clock means wall-clock
// time.
func New(c clock.Clock, scan func(), opts ...Option) *Scheduler {
	if c == nil {
		c = clock.New()
	}
	s := &Scheduler{
		clock:    c,
		scan:     scan,
		frame:    DefaultFrame,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.limiter = rate.NewLimiter(rate.Every(s.frame), 1)
	return s
}

// Frame returns the coalescing window.
func (s *Scheduler) Frame() time.Duration {
	return s.frame
}

// Interval returns the sweep interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// OnChangeNotification requests a scan for a batch of host changes. An
// empty batch, or one the filter rejects entirely, is ignored. If a scan
// is already scheduled the batch is folded into it.
func (s *Scheduler) OnChangeNotification(batch []host.Mutation) {
	if len(batch) == 0 {
		return
	}
	s.notifications.Add(1)
	if !s.relevant(batch) {
		s.ignored.Add(1)
		return
	}
	s.schedule()
}

func (s *Scheduler) relevant(batch []host.Mutation) bool {
	if s.filter == nil {
		return true
	}
	for _, m := range batch {
		if s.filter(m) {
			return true
		}
	}
	return false
}

// Ignored returns how many batches the filter rejected.
func (s *Scheduler) Ignored() uint64 {
	return s.ignored.Load()
}

// Request schedules a scan as if a change had been reported.
func (s *Scheduler) Request() {
	s.schedule()
}

func (s *Scheduler) schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduled {
		s.coalesced.Add(1)
		return
	}
	s.scheduled = true

	now := s.clock.Now()
	s.reservation = s.limiter.ReserveN(now, 1)
	delay := s.reservation.DelayFrom(now)
	s.frameTimer = s.clock.AfterFunc(delay, s.runFrame)
}

func (s *Scheduler) runFrame() {
	s.mu.Lock()
	if !s.scheduled {
		s.mu.Unlock()
		return
	}
	s.scheduled = false
	s.frameTimer = nil
	s.reservation = nil
	s.mu.Unlock()

	s.run("frame")
}

// Tick runs the fallback scan immediately.
func (s *Scheduler) Tick() {
	s.run("tick")
}

func (s *Scheduler) run(reason string) {
	s.scans.Add(1)
	if s.diag != nil {
		s.diag.Debug("scan: running (%s)", reason)
	}
	if s.scan != nil {
		s.scan()
	}
}

// Start runs an initial scan and arms the periodic sweep. Starting a
// started scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.Tick()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.sweep = s.clock.AfterFunc(s.interval, s.runSweep)
	}
}

func (s *Scheduler) runSweep() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.Tick()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.sweep = s.clock.AfterFunc(s.interval, s.runSweep)
	}
}

// Stop disarms the sweep and drops any scheduled frame scan.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	if s.sweep != nil {
		s.sweep.Stop()
		s.sweep = nil
	}
	if s.frameTimer != nil {
		s.frameTimer.Stop()
		s.frameTimer = nil
	}
	if s.reservation != nil {
		s.reservation.CancelAt(s.clock.Now())
		s.reservation = nil
	}
	s.scheduled = false
}

// Running reports whether the sweep is armed.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Scheduled reports whether a frame scan is waiting to run.
func (s *Scheduler) Scheduled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduled
}

// Scans returns how many scans have run.
func (s *Scheduler) Scans() uint64 {
	return s.scans.Load()
}

// Stats returns notification counters: batches received and requests that
// were folded into an already scheduled scan.
func (s *Scheduler) Stats() (notifications, coalesced uint64) {
	return s.notifications.Load(), s.coalesced.Load()
}
