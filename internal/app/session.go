package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/previewsync/internal/clock"
	"github.com/dshills/previewsync/internal/config"
	"github.com/dshills/previewsync/internal/enhance"
	"github.com/dshills/previewsync/internal/event"
	"github.com/dshills/previewsync/internal/host"
	"github.com/dshills/previewsync/internal/host/memhost"
	"github.com/dshills/previewsync/internal/retry"
	"github.com/dshills/previewsync/internal/scan"
	"github.com/dshills/previewsync/internal/source"
)

// Session is the process-scoped context: one rendered document, the
// enhancer wired to it, the scan scheduler and their shared clock, bus and
// logger.
//
// Session methods and every timer callback run under one lock, so the
// components observe a single-threaded world. On a fake clock callbacks run
// inside Advance instead.
type Session struct {
	mu sync.Mutex

	id      string
	cfg     *config.Config
	logger  *Logger
	metrics *Metrics
	bus     event.Bus
	base    clock.Clock
	clock   clock.Clock
	fake    *clock.Fake

	doc       *memhost.Document
	enhancer  *enhance.Enhancer
	scheduler *scan.Scheduler

	subs      []event.Subscription
	unobserve func()
	started   bool
	closed    bool
}

// New creates a session. Nothing is scanned until Start.
func New(opts ...Option) (*Session, error) {
	s := &Session{
		id:      uuid.NewString(),
		cfg:     config.Default(),
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.cfg.Validate(); err != nil {
		return nil, NewOperationError("configure", s.cfg.File(), err)
	}
	if s.logger == nil {
		level, _ := ParseLogLevel(s.cfg.Logging.Level)
		cfg := DefaultLoggerConfig()
		cfg.Level = level
		s.logger = NewLogger(cfg)
	}
	s.logger = s.logger.WithField("session", s.id[:8])
	if s.bus == nil {
		s.bus = event.NewBus(event.WithPanicHandler(func(ev any, r any) {
			s.logger.WithComponent("event").Error("handler panic on %T: %v", ev, r)
		}))
	}
	if s.base == nil {
		s.base = clock.New()
	}
	if fake, ok := s.base.(*clock.Fake); ok {
		s.fake = fake
		s.clock = fake
	} else {
		s.clock = clock.Serialized(s.base, &s.mu)
	}

	s.doc = memhost.New(s.bus)
	s.enhancer = enhance.New(s.doc,
		enhance.WithClock(s.clock),
		enhance.WithBus(s.bus),
		enhance.WithSyncDelay(s.cfg.Sync.Delay),
		enhance.WithRetryPolicy(retry.Policy{Retries: s.cfg.Retry.Attempts, Interval: s.cfg.Retry.Interval}),
		enhance.WithDiagnostics(s.logger.WithComponent("enhance")),
		enhance.WithWriteHook(func(n source.Notification, _ string) {
			if n == source.NotifyChange {
				s.metrics.RecordWrite()
			}
		}),
	)
	s.scheduler = scan.New(s.clock, s.scan,
		scan.WithFrame(s.cfg.Scan.Frame),
		scan.WithInterval(s.cfg.Scan.Interval),
		scan.WithFilter(scan.Relevant),
		scan.WithDiagnostics(s.logger.WithComponent("scan")),
	)

	if err := s.subscribe(); err != nil {
		return nil, NewOperationError("subscribe", "", err)
	}
	return s, nil
}

func (s *Session) subscribe() error {
	handlers := []struct {
		topic event.Topic
		fn    event.Handler
	}{
		{event.TopicSyncReconciled, event.AsHandlerFunc(func(_ context.Context, _ event.Event[enhance.SyncEvent]) error {
			s.metrics.RecordSync(true)
			return nil
		})},
		{event.TopicSyncFailed, event.AsHandlerFunc(func(_ context.Context, _ event.Event[enhance.SyncEvent]) error {
			s.metrics.RecordSync(false)
			return nil
		})},
		{event.TopicCheckboxToggled, event.AsHandlerFunc(func(_ context.Context, ev event.Event[enhance.ToggleEvent]) error {
			s.metrics.RecordToggle(ev.Payload.Err == "")
			return nil
		})},
		{event.TopicPreviewEnhanced, event.AsHandlerFunc(func(_ context.Context, _ event.Event[enhance.EnhancedEvent]) error {
			s.metrics.RecordEnhanced()
			return nil
		})},
	}
	for _, h := range handlers {
		sub, err := s.bus.Subscribe(h.topic, h.fn)
		if err != nil {
			return err
		}
		s.subs = append(s.subs, sub)
	}
	return nil
}

// scan is the scheduler's scan body. It runs with s.mu held.
func (s *Session) scan() {
	start := s.clock.Now()
	r := s.enhancer.Scan()
	s.metrics.RecordScan(s.clock.Now().Sub(start))
	if !r.Empty() {
		s.logger.WithComponent("scan").Debug("enhanced %d containers, %d checkboxes, %d editables",
			r.Containers, r.Checkboxes, r.Editables)
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Config returns the session configuration.
func (s *Session) Config() *config.Config { return s.cfg }

// Logger returns the session logger.
func (s *Session) Logger() *Logger { return s.logger }

// Metrics returns the session counters.
func (s *Session) Metrics() *Metrics { return s.metrics }

// Bus returns the event bus.
func (s *Session) Bus() event.Bus { return s.bus }

// Document returns the rendered document.
func (s *Session) Document() *memhost.Document { return s.doc }

// Enhancer returns the enhancer.
func (s *Session) Enhancer() *enhance.Enhancer { return s.enhancer }

// Scheduler returns the scan scheduler.
func (s *Session) Scheduler() *scan.Scheduler { return s.scheduler }

// Stats returns the counters kept by the enhancer's components and the
// scheduler.
func (s *Session) Stats() ComponentStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats()
}

func (s *Session) stats() ComponentStats {
	var st ComponentStats
	st.Notifications, st.Coalesced = s.scheduler.Stats()
	st.Fired, st.Flushed = s.enhancer.Pending().Stats()
	st.Reconciled, st.Unmatched = s.enhancer.Engine().Stats()
	st.Toggled, st.Dropped = s.enhancer.Mapper().Stats()
	st.GuardFlushes, st.GuardSynced = s.enhancer.Guard().Stats()
	return st
}

// Start observes the document and starts the scan scheduler, which scans
// once immediately.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.unobserve = s.doc.Observe(s.scheduler.OnChangeNotification)
	s.scheduler.Start()
	s.logger.Info("session started")
	return nil
}

// Close runs every pending sync, stops the scheduler and detaches from the
// document. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	flushed := s.enhancer.Flush()
	s.scheduler.Stop()
	if s.unobserve != nil {
		s.unobserve()
		s.unobserve = nil
	}
	for _, sub := range s.subs {
		_ = s.bus.Unsubscribe(sub)
	}
	s.subs = nil

	snap := s.metrics.Snapshot()
	st := s.stats()
	s.logger.WithFields(map[string]any{
		"flushed":  flushed,
		"synced":   snap.Synced,
		"unsynced": snap.Unsynced,
		"toggled":  snap.Toggled,
		"writes":   snap.Writes,
		"scans":    snap.Scans,
		"guarded":  st.GuardFlushes,
		"debounce": st.Fired,
	}).Info("session closed")
	return nil
}

// Reset cancels pending syncs and forgets everything enhanced, so the next
// scan enhances the current view from scratch.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enhancer.Reset()
	s.logger.Debug("session reset")
}

// Open adds a form holding markdown and switches it to preview mode.
func (s *Session) Open(markdown string) (*memhost.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	form := s.doc.AddForm(markdown)
	form.SelectPreview()
	return form, nil
}

// Form returns the i-th form.
func (s *Session) Form(i int) (*memhost.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	forms := s.doc.FormList()
	if i < 0 || i >= len(forms) {
		return nil, NewOperationError("form", fmt.Sprint(i), ErrFormNotFound)
	}
	return forms[i], nil
}

// Buffer returns the source buffer behind form.
func (s *Session) Buffer(form host.Form) *source.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enhancer.Buffer(form)
}

// Text returns form's markdown source.
func (s *Session) Text(form host.Form) string {
	return s.Buffer(form).Text()
}

// Scan runs a scan now, outside the scheduler.
func (s *Session) Scan() enhance.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock.Now()
	r := s.enhancer.Scan()
	s.metrics.RecordScan(s.clock.Now().Sub(start))
	return r
}

// EnhanceContainer enhances form's preview once it renders, polling with
// the configured retry budget.
func (s *Session) EnhanceContainer(form host.Form) *retry.Task[host.Container] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enhancer.EnhanceContainer(form)
}

// Edit types text into the editable element of form whose text is target.
func (s *Session) Edit(form *memhost.Form, target, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, err := s.find(form, "edit", target)
	if err != nil {
		return err
	}
	if !el.Type(text) {
		return NewOperationError("edit", target, ErrNotEditable)
	}
	return nil
}

// Blur blurs the editable element of form whose text is target, which
// reconciles it immediately.
func (s *Session) Blur(form *memhost.Form, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, err := s.find(form, "blur", target)
	if err != nil {
		return err
	}
	if !el.Editable() {
		return NewOperationError("blur", target, ErrNotEditable)
	}
	el.Blur()
	return nil
}

func (s *Session) find(form *memhost.Form, op, target string) (*memhost.Editable, error) {
	if s.closed {
		return nil, ErrClosed
	}
	el, ok := form.Body().Find(target)
	if !ok {
		return nil, NewOperationError(op, target, ErrElementNotFound)
	}
	return el, nil
}

// Click clicks the ordinal-th rendered checkbox of form.
func (s *Session) Click(form *memhost.Form, ordinal int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	boxes := form.Body().Checkboxes()
	if ordinal < 0 || ordinal >= len(boxes) {
		return NewOperationError("click", fmt.Sprintf("checkbox %d", ordinal), ErrElementNotFound)
	}
	cb, ok := boxes[ordinal].(*memhost.Checkbox)
	if !ok || !cb.Click() {
		return NewOperationError("click", fmt.Sprintf("checkbox %d", ordinal), ErrNotEditable)
	}
	return nil
}

// Checkboxes returns the checked state of form's rendered checkboxes.
func (s *Session) Checkboxes(form *memhost.Form) []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	boxes := form.Body().Checkboxes()
	out := make([]bool, len(boxes))
	for i, cb := range boxes {
		out[i] = cb.Checked()
	}
	return out
}

// Submit submits form through its submit button. The guard flushes
// pending edits before the host sees the submission.
func (s *Session) Submit(form *memhost.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := form.ClickSubmit(); err != nil {
		return NewOperationError("submit", form.ID(), err)
	}
	s.metrics.RecordSubmit()
	return nil
}

// Reload replaces form's source with text read from outside the preview.
// The rendered preview is left as is; edits that no longer match the new
// source are dropped by the engine.
func (s *Session) Reload(form host.Form, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := s.enhancer.Buffer(form)
	if buf.Text() == text {
		return
	}
	buf.SetText(text)
	s.metrics.RecordReload()
	s.logger.WithComponent("watch").Info("reloaded source (%d lines)", buf.LineCount())
}

// Rerender renders form's preview again from its current source. The old
// elements are detached and the scheduler enhances the new ones.
func (s *Session) Rerender(form *memhost.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	form.Rerender()
	return nil
}

// Flush runs every pending sync now.
func (s *Session) Flush() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enhancer.Flush()
}

// Advance moves a fake clock forward, running due timers.
func (s *Session) Advance(d time.Duration) error {
	if s.fake == nil {
		return ErrNotFakeClock
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fake.Advance(d)
	return nil
}
