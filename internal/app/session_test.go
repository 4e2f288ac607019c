package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dshills/previewsync/internal/clock"
	"github.com/dshills/previewsync/internal/config"
	"github.com/dshills/previewsync/internal/host"
	"github.com/dshills/previewsync/internal/host/memhost"
	"github.com/dshills/previewsync/internal/retry"
)

const sample = "# Title\n\nHello world\n\n- [ ] first\n- [x] second\n"

func newTestSession(t *testing.T) (*Session, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s, err := New(WithClock(fake), WithLogger(NullLogger))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, fake
}

func TestSession_StartScansOpenForms(t *testing.T) {
	s, _ := newTestSession(t)
	form, err := s.Open(sample)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !form.Body().Blocks()[0].Editable() {
		t.Error("heading not editable after Start")
	}
	if snap := s.Metrics().Snapshot(); snap.Containers != 1 || snap.Scans == 0 {
		t.Errorf("metrics = %+v, want 1 container scanned", snap)
	}
	if !errors.Is(s.Start(), ErrAlreadyStarted) {
		t.Error("second Start() should fail with ErrAlreadyStarted")
	}
}

func TestSession_MutationSchedulesScan(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	form, _ := s.Open(sample)
	if form.Body().Blocks()[0].Editable() {
		t.Fatal("enhanced before the frame elapsed")
	}

	if err := s.Advance(s.Config().Scan.Frame); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if !form.Body().Blocks()[0].Editable() {
		t.Error("heading not editable after one frame")
	}
}

func TestSession_DebouncedEditsReconcileOnce(t *testing.T) {
	s, _ := newTestSession(t)
	form, _ := s.Open(sample)
	_ = s.Start()

	steps := []struct{ from, to string }{
		{"Hello world", "Hello w"},
		{"Hello w", "Hello wo"},
		{"Hello wo", "Hello there"},
	}
	for _, step := range steps {
		if err := s.Edit(form, step.from, step.to); err != nil {
			t.Fatalf("Edit(%q) error = %v", step.from, err)
		}
		_ = s.Advance(100 * time.Millisecond)
	}
	if strings.Contains(s.Text(form), "Hello there") {
		t.Fatal("source written inside the debounce window")
	}

	_ = s.Advance(s.Config().Sync.Delay)
	if !strings.Contains(s.Text(form), "\nHello there\n") {
		t.Errorf("source = %q, want the edited paragraph", s.Text(form))
	}
	if snap := s.Metrics().Snapshot(); snap.Synced != 1 {
		t.Errorf("Synced = %d, want 1", snap.Synced)
	}
}

func TestSession_SubmitFlushesPendingEdit(t *testing.T) {
	s, _ := newTestSession(t)
	form, _ := s.Open(sample)
	_ = s.Start()

	if err := s.Edit(form, "Title", "New title"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if err := s.Submit(form); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !strings.HasPrefix(s.Text(form), "# New title\n") {
		t.Errorf("source = %q, want the heading written before submit", s.Text(form))
	}
	if s.Enhancer().Pending().PendingCount() != 0 {
		t.Error("pending syncs left after submit")
	}
}

func TestSession_SubmitCountsGuardedSync(t *testing.T) {
	s, _ := newTestSession(t)
	form, _ := s.Open(sample)
	_ = s.Start()

	_ = s.Edit(form, "Hello world", "Hello submit")
	if err := s.Submit(form); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	snap := s.Metrics().Snapshot()
	if snap.Synced != 1 || snap.Writes != 1 || snap.Submits != 1 {
		t.Errorf("metrics = %+v, want 1 synced edit, 1 write, 1 submit", snap)
	}
	// A submit button click fires both the click and the submit signal.
	st := s.Stats()
	if st.GuardFlushes != 2 || st.GuardSynced != 1 || st.Fired != 0 {
		t.Errorf("stats = %+v, want 2 guard flushes writing 1 edit, no debounced sync", st)
	}
}

func TestSession_Blur(t *testing.T) {
	s, _ := newTestSession(t)
	form, _ := s.Open(sample)
	_ = s.Start()

	_ = s.Edit(form, "Hello world", "Goodbye world")
	if err := s.Blur(form, "Goodbye world"); err != nil {
		t.Fatalf("Blur() error = %v", err)
	}
	if !strings.Contains(s.Text(form), "Goodbye world") {
		t.Errorf("source = %q, want blur to write immediately", s.Text(form))
	}
}

func TestSession_Click(t *testing.T) {
	s, _ := newTestSession(t)
	form, _ := s.Open(sample)
	_ = s.Start()

	if err := s.Click(form, 0); err != nil {
		t.Fatalf("Click() error = %v", err)
	}
	if err := s.Click(form, 1); err != nil {
		t.Fatalf("Click() error = %v", err)
	}
	text := s.Text(form)
	if !strings.Contains(text, "- [x] first") || !strings.Contains(text, "- [ ] second") {
		t.Errorf("source = %q, want both boxes flipped", text)
	}
	if got := s.Checkboxes(form); len(got) != 2 || !got[0] || got[1] {
		t.Errorf("Checkboxes() = %v, want [true false]", got)
	}
	if err := s.Click(form, 5); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("Click(5) error = %v, want ErrElementNotFound", err)
	}
}

func TestSession_EditErrors(t *testing.T) {
	s, _ := newTestSession(t)
	form, _ := s.Open(sample)

	if err := s.Edit(form, "Hello world", "x"); !errors.Is(err, ErrNotEditable) {
		t.Errorf("Edit() before scan error = %v, want ErrNotEditable", err)
	}
	_ = s.Start()
	if err := s.Edit(form, "Nowhere", "x"); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("Edit() unknown target error = %v, want ErrElementNotFound", err)
	}
	var opErr *OperationError
	if err := s.Edit(form, "Nowhere", "x"); !errors.As(err, &opErr) || opErr.Op != "edit" {
		t.Errorf("Edit() error = %v, want *OperationError", err)
	}
}

func TestSession_ReloadDriftDegradesSilently(t *testing.T) {
	s, _ := newTestSession(t)
	form, _ := s.Open(sample)
	_ = s.Start()

	s.Reload(form, "# Rewritten elsewhere\n")
	_ = s.Edit(form, "Hello world", "Hello there")
	_ = s.Advance(s.Config().Sync.Delay)

	if s.Text(form) != "# Rewritten elsewhere\n" {
		t.Errorf("source = %q, want the reloaded text untouched", s.Text(form))
	}
	snap := s.Metrics().Snapshot()
	if snap.Unsynced != 1 || snap.Reloads != 1 {
		t.Errorf("metrics = %+v, want 1 unsynced edit and 1 reload", snap)
	}
}

func TestSession_CloseFlushes(t *testing.T) {
	s, _ := newTestSession(t)
	form, _ := s.Open(sample)
	_ = s.Start()

	_ = s.Edit(form, "Hello world", "Hello closing")
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !strings.Contains(form.SourceField().Value(), "Hello closing") {
		t.Errorf("source = %q, want pending edit flushed on close", form.SourceField().Value())
	}
	if err := s.Edit(form, "Hello closing", "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Edit() after Close error = %v, want ErrClosed", err)
	}
	if _, err := s.Open("x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Open() after Close error = %v, want ErrClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestSession_Reset(t *testing.T) {
	s, _ := newTestSession(t)
	_, _ = s.Open(sample)
	_ = s.Start()

	before := s.Enhancer().Nodes()
	s.Reset()
	if s.Enhancer().Nodes() != 0 {
		t.Errorf("Nodes() = %d after Reset, want 0", s.Enhancer().Nodes())
	}
	if r := s.Scan(); r.Containers != 1 {
		t.Errorf("Scan() after Reset = %+v, want the form enhanced again", r)
	}
	if s.Enhancer().Nodes() != before {
		t.Errorf("Nodes() = %d, want %d", s.Enhancer().Nodes(), before)
	}
}

func TestSession_ResetRewiresOnce(t *testing.T) {
	s, _ := newTestSession(t)
	form, _ := s.Open(sample)
	_ = s.Start()

	s.Reset()
	s.Scan()

	if err := s.Click(form, 0); err != nil {
		t.Fatalf("Click() error = %v", err)
	}
	if snap := s.Metrics().Snapshot(); snap.Toggled != 1 {
		t.Errorf("Toggled = %d for one click, want 1", snap.Toggled)
	}
	if err := form.Submit(); err != nil {
		t.Fatal(err)
	}
	if st := s.Stats(); st.GuardFlushes != 1 {
		t.Errorf("GuardFlushes = %d for one submit, want 1", st.GuardFlushes)
	}
	if label, _ := form.Tab().Data(host.DataTabLabel); label != memhost.DefaultTabLabel {
		t.Errorf("stored tab label = %q, want %q", label, memhost.DefaultTabLabel)
	}
}

func TestSession_EnhanceContainerNotReady(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cfg := config.Default()
	cfg.Retry.Attempts = 2
	s, err := New(WithClock(fake), WithLogger(NullLogger), WithConfig(cfg))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	form := s.Document().AddForm("never previewed")

	task := s.EnhanceContainer(form)
	for i := 0; i < 3; i++ {
		_ = s.Advance(cfg.Retry.Interval)
	}
	if _, err := task.Result(); !errors.Is(err, retry.ErrWidgetNotReady) {
		t.Errorf("Result() error = %v, want ErrWidgetNotReady", err)
	}
}

func TestSession_AdvanceRealClock(t *testing.T) {
	s, err := New(WithLogger(NullLogger))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()
	if err := s.Advance(time.Second); !errors.Is(err, ErrNotFakeClock) {
		t.Errorf("Advance() error = %v, want ErrNotFakeClock", err)
	}
}

func TestSession_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Sync.Delay = 0
	if _, err := New(WithConfig(cfg)); !errors.Is(err, config.ErrValidationFailed) {
		t.Errorf("New() error = %v, want ErrValidationFailed", err)
	}
}

func TestSession_ReloadAndRerender(t *testing.T) {
	s, _ := newTestSession(t)
	form, _ := s.Open(sample)
	_ = s.Start()

	s.Reload(form, "# Fresh\n\nNew body\n")
	if err := s.Rerender(form); err != nil {
		t.Fatalf("Rerender() error = %v", err)
	}
	_ = s.Advance(s.Config().Scan.Frame)

	if err := s.Edit(form, "New body", "Newer body"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	_ = s.Flush()
	if s.Text(form) != "# Fresh\n\nNewer body\n" {
		t.Errorf("source = %q", s.Text(form))
	}
}
