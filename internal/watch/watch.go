// Package watch reloads a markdown file into a session when it changes on
// disk.
//
// The directory holding the file is watched rather than the file itself,
// so editors that save by writing a temporary file and renaming it over
// the original are still seen. Bursts of events are debounced into one
// read.
package watch

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/previewsync/internal/clock"
	"github.com/dshills/previewsync/internal/debounce"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed  = errors.New("watcher is closed")
	ErrAlreadyStarted = errors.New("watcher already started")
	ErrPathNotExist   = errors.New("path does not exist")
)

// DefaultDebounce is the quiet period before a changed file is read.
const DefaultDebounce = 100 * time.Millisecond

// ReloadFunc receives the new contents of the watched file.
type ReloadFunc func(text string)

// Diagnostics receives watcher problems.
type Diagnostics interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a read.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithClock sets the clock used for debouncing.
func WithClock(c clock.Clock) Option {
	return func(w *Watcher) {
		if c != nil {
			w.clock = c
		}
	}
}

// WithDiagnostics sets the diagnostics sink.
func WithDiagnostics(d Diagnostics) Option {
	return func(w *Watcher) {
		w.diag = d
	}
}

// Stats reports watcher activity.
type Stats struct {
	Events  int64
	Reloads int64
	Errors  int64
}

// Watcher watches one file.
type Watcher struct {
	path   string
	reload ReloadFunc
	delay  time.Duration
	clock  clock.Clock
	diag   Diagnostics

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	pending  *debounce.Debouncer[string]
	last     string
	started  bool
	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup

	events  atomic.Int64
	reloads atomic.Int64
	errors  atomic.Int64
}

// New creates a watcher of path that passes new contents to reload.
func New(path string, reload ReloadFunc, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:    abs,
		reload:  reload,
		delay:   DefaultDebounce,
		clock:   clock.New(),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.pending = debounce.New[string](w.clock, w.delay)
	return w, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string { return w.path }

// Start reads the current contents as the baseline and begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.started {
		return ErrAlreadyStarted
	}

	data, err := os.ReadFile(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}
	w.last = string(data)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return err
	}
	w.fsw = fsw
	w.started = true

	w.closedWg.Add(1)
	go w.processLoop()
	return nil
}

// Written records text as the file's contents, so a write made by the
// caller itself does not come back as a reload.
func (w *Watcher) Written(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = text
}

// Close stops the watcher. Pending reads are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	fsw := w.fsw
	w.mu.Unlock()

	w.closedWg.Wait()
	w.pending.CancelAll()

	if fsw == nil {
		return nil
	}
	return fsw.Close()
}

// Stats returns watcher statistics.
func (w *Watcher) Stats() Stats {
	return Stats{
		Events:  w.events.Load(),
		Reloads: w.reloads.Load(),
		Errors:  w.errors.Load(),
	}
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.recordError("watch: %v", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}
	w.events.Add(1)
	if w.diag != nil {
		w.diag.Debug("watch: %s %s", ev.Op, ev.Name)
	}
	w.pending.Schedule(w.path, w.read)
}

// read loads the file and reports it when it differs from the last
// contents seen. A file that vanished mid-rename is skipped; the Create
// that follows schedules another read.
func (w *Watcher) read() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.recordError("watch: read %s: %v", w.path, err)
		}
		return
	}
	text := string(data)

	w.mu.Lock()
	if w.closed || text == w.last {
		w.mu.Unlock()
		return
	}
	w.last = text
	w.mu.Unlock()

	w.reloads.Add(1)
	if w.reload != nil {
		w.reload(text)
	}
}

func (w *Watcher) recordError(msg string, args ...any) {
	w.errors.Add(1)
	if w.diag != nil {
		w.diag.Warn(msg, args...)
	}
}
