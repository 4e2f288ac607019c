// Package enhance turns rendered previews into editable views of their
// source.
//
// A scan walks the document's preview bodies. Each body whose form shows
// its preview gets its checkboxes enabled and mapped to source lines by
// ordinal, its paragraphs, headings and list items made editable with a
// snapshot of their text as reconciliation anchor, and its task item text
// wrapped into editable spans. The form's preview tab is labelled and its
// submit guarded. Every node is enhanced once; scans are idempotent.
package enhance

import (
	"strings"
	"sync"
	"time"

	"github.com/dshills/previewsync/internal/checkbox"
	"github.com/dshills/previewsync/internal/clock"
	"github.com/dshills/previewsync/internal/debounce"
	"github.com/dshills/previewsync/internal/event"
	"github.com/dshills/previewsync/internal/guard"
	"github.com/dshills/previewsync/internal/host"
	"github.com/dshills/previewsync/internal/reconcile"
	"github.com/dshills/previewsync/internal/registry"
	"github.com/dshills/previewsync/internal/retry"
	"github.com/dshills/previewsync/internal/source"
)

// Diagnostics receives developer-facing reports.
type Diagnostics interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopDiagnostics struct{}

func (nopDiagnostics) Debug(string, ...any) {}
func (nopDiagnostics) Info(string, ...any)  {}
func (nopDiagnostics) Warn(string, ...any)  {}

// Result counts what one scan enhanced.
type Result struct {
	Containers int
	Checkboxes int
	Editables  int
}

// Empty reports whether the scan enhanced nothing.
func (r Result) Empty() bool {
	return r.Checkboxes == 0 && r.Editables == 0
}

// Enhancer wires rendered previews to their source buffers.
type Enhancer struct {
	doc    host.Document
	clock  clock.Clock
	bus    event.Bus
	delay  time.Duration
	policy retry.Policy
	diag   Diagnostics

	editables  *registry.Registry[host.Node]
	checkboxes *registry.Registry[host.Node]
	tabs       *registry.Registry[host.Node]

	pending *debounce.Debouncer[*host.Node]
	engine  *reconcile.Engine
	mapper  *checkbox.Mapper
	guard   *guard.Guard

	mu        sync.Mutex
	buffers   map[host.Form]*source.Buffer
	wired     map[*host.Node]wiring
	writeHook source.WriteFunc
}

// wiring holds the listeners attached to one enhanced element.
type wiring struct {
	el      host.Element
	cancels []func()
}

// New creates an enhancer over doc.
func New(doc host.Document, opts ...Option) *Enhancer {
	e := &Enhancer{
		doc:        doc,
		clock:      clock.New(),
		delay:      debounce.DefaultDelay,
		policy:     retry.DefaultPolicy(),
		diag:       nopDiagnostics{},
		editables:  registry.New[host.Node](),
		checkboxes: registry.New[host.Node](),
		tabs:       registry.New[host.Node](),
		buffers:    make(map[host.Form]*source.Buffer),
		wired:      make(map[*host.Node]wiring),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.pending = debounce.New[*host.Node](e.clock, e.delay)
	e.engine = reconcile.NewEngine(e.diag)
	e.mapper = checkbox.NewMapper(e.diag)
	e.guard = guard.New(e.engine, e.pending, e.diag)
	e.guard.OnReconcile(func(form host.Form, el host.Editable, res reconcile.Result, err error) {
		e.report(form.Node().ID(), el, res, err)
	})
	return e
}

// Engine returns the reconciliation engine.
func (e *Enhancer) Engine() *reconcile.Engine { return e.engine }

// Mapper returns the checkbox mapper.
func (e *Enhancer) Mapper() *checkbox.Mapper { return e.mapper }

// Guard returns the submit guard.
func (e *Enhancer) Guard() *guard.Guard { return e.guard }

// Pending returns the debounced syncs.
func (e *Enhancer) Pending() *debounce.Debouncer[*host.Node] { return e.pending }

// Scan enhances every preview body whose form is in preview mode and
// restores the tab label of forms that left it.
func (e *Enhancer) Scan() Result {
	e.prune()

	for _, form := range e.doc.Forms() {
		if !form.InPreview() {
			e.restoreTab(form)
		}
	}

	var total Result
	for _, body := range e.doc.PreviewBodies() {
		if body == nil || !body.HasContent() {
			continue
		}
		form := body.Form()
		if form == nil || !form.InPreview() || form.Field() == nil {
			continue
		}
		r := e.makeEditable(body, form)
		total.Containers++
		total.Checkboxes += r.Checkboxes
		total.Editables += r.Editables
	}
	return total
}

// EnhanceContainer waits for form's preview body to render and enhances it.
// The task resolves to the body, or to retry.ErrWidgetNotReady when the
// body stays empty for the whole polling budget.
func (e *Enhancer) EnhanceContainer(form host.Form) *retry.Task[host.Container] {
	find := func() (host.Container, bool) {
		if form == nil || form.Field() == nil {
			return nil, false
		}
		for _, body := range e.doc.PreviewBodies() {
			f := body.Form()
			if f != nil && f.Node() == form.Node() && body.HasContent() {
				return body, true
			}
		}
		return nil, false
	}
	task := retry.Start(e.clock, e.policy, find)
	task.Then(func(body host.Container, err error) {
		if err != nil {
			e.diag.Debug("enhance: preview body not ready: %v", err)
			return
		}
		e.makeEditable(body, form)
	})
	return task
}

func (e *Enhancer) makeEditable(body host.Container, form host.Form) Result {
	buf := e.Buffer(form)
	r := Result{Containers: 1}
	formID := form.Node().ID()

	for _, a := range e.mapper.Enumerate(body.Checkboxes(), e.checkboxes) {
		ordinal := a.Ordinal
		a.Checkbox.Enable()
		e.track(a.Checkbox, a.Checkbox.OnChange(func(checked bool) {
			e.toggle(formID, buf, ordinal, checked)
		}))
		r.Checkboxes++
	}

	for _, el := range body.TextBlocks() {
		if !e.editables.TryMark(el.Node()) {
			continue
		}
		e.wire(el, formID, buf)
		r.Editables++
	}

	for _, item := range body.TaskItems() {
		if !e.editables.TryMark(item.Node()) {
			continue
		}
		span, ok := item.TextSpan()
		if !ok {
			continue
		}
		e.editables.MarkEnhanced(span.Node())
		e.wire(span, formID, buf)
		r.Editables++
	}

	e.labelTab(form)
	e.guard.RegisterBuffer(form, buf)

	if !r.Empty() {
		e.diag.Info("enhance: form %s: %d checkboxes, %d editables", formID, r.Checkboxes, r.Editables)
		e.publish(event.TopicPreviewEnhanced, EnhancedEvent{FormID: formID, Checkboxes: r.Checkboxes, Editables: r.Editables})
	}
	return r
}

// wire makes el editable and routes its edits into buf.
func (e *Enhancer) wire(el host.Editable, formID string, buf *source.Buffer) {
	el.SetEditable(true)
	el.SetData(host.DataOriginalText, strings.TrimSpace(el.Text()))
	input := el.OnInput(func() {
		e.pending.Schedule(el.Node(), func() { e.sync(formID, buf, el) })
	})
	blur := el.OnBlur(func() {
		e.pending.Cancel(el.Node())
		e.sync(formID, buf, el)
	})
	e.track(el, input, blur)
}

// track records listeners attached to el so Reset can remove them.
func (e *Enhancer) track(el host.Element, cancels ...func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	w := e.wired[el.Node()]
	w.el = el
	w.cancels = append(w.cancels, cancels...)
	e.wired[el.Node()] = w
}

func (e *Enhancer) sync(formID string, buf *source.Buffer, el host.Editable) {
	res, err := e.engine.Reconcile(buf, reconcile.ElementNode{Element: el})
	e.report(formID, el, res, err)
}

// report publishes the outcome of a reconcile. Unchanged successes are
// not published.
func (e *Enhancer) report(formID string, el host.Editable, res reconcile.Result, err error) {
	ev := SyncEvent{FormID: formID, NodeID: el.Node().ID(), Line: res.Line, Mode: res.Mode.String()}
	switch {
	case err != nil:
		ev.Err = err.Error()
		e.publish(event.TopicSyncFailed, ev)
	case res.Changed():
		e.publish(event.TopicSyncReconciled, ev)
	}
}

func (e *Enhancer) toggle(formID string, buf *source.Buffer, ordinal int, checked bool) error {
	err := e.mapper.Toggle(buf, ordinal, checked)
	ev := ToggleEvent{FormID: formID, Ordinal: ordinal, Checked: checked}
	if err != nil {
		ev.Err = err.Error()
	}
	e.publish(event.TopicCheckboxToggled, ev)
	return err
}

// Edit schedules a debounced sync of el, as an input event does.
func (e *Enhancer) Edit(form host.Form, el host.Editable) {
	buf := e.Buffer(form)
	formID := form.Node().ID()
	e.pending.Schedule(el.Node(), func() { e.sync(formID, buf, el) })
}

// Blur cancels el's pending sync and reconciles it immediately.
func (e *Enhancer) Blur(form host.Form, el host.Editable) {
	e.pending.Cancel(el.Node())
	e.sync(form.Node().ID(), e.Buffer(form), el)
}

// Toggle sets the ordinal-th checkbox line of form's source. An ordinal
// past the last checkbox line leaves the source untouched and returns an
// error wrapping checkbox.ErrOrdinalOutOfRange.
func (e *Enhancer) Toggle(form host.Form, ordinal int, checked bool) error {
	return e.toggle(form.Node().ID(), e.Buffer(form), ordinal, checked)
}

// Flush runs every pending sync now and returns how many ran.
func (e *Enhancer) Flush() int {
	return e.pending.FlushAll()
}

// Nodes returns the number of enhanced editables and checkboxes still
// alive.
func (e *Enhancer) Nodes() int {
	return e.editables.Len() + e.checkboxes.Len()
}

// Buffer returns the source buffer of form, creating it on first use.
func (e *Enhancer) Buffer(form host.Form) *source.Buffer {
	e.mu.Lock()
	defer e.mu.Unlock()
	if buf, ok := e.buffers[form]; ok {
		return buf
	}
	var buf *source.Buffer
	var opts []source.Option
	if e.writeHook != nil {
		opts = append(opts, source.WithWriteHook(e.writeHook))
	}
	if field := form.Field(); field != nil {
		buf, _ = source.NewBuffer(fieldStore{field}, opts...)
	} else {
		buf = source.NewBufferFromString("", opts...)
	}
	e.buffers[form] = buf
	return buf
}

// prune drops buffers and wiring of elements that left the document.
func (e *Enhancer) prune() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for form := range e.buffers {
		if !form.Attached() {
			delete(e.buffers, form)
		}
	}
	for node, w := range e.wired {
		if !w.el.Attached() {
			delete(e.wired, node)
		}
	}
}

func (e *Enhancer) labelTab(form host.Form) {
	tab := form.PreviewTab()
	if tab == nil || !e.tabs.TryMark(tab.Node()) {
		return
	}
	if !tab.HasIndicator() {
		tab.SetData(host.DataTabLabel, strings.TrimSpace(tab.Text()))
	}
	tab.SetIndicator(true)
}

func (e *Enhancer) restoreTab(form host.Form) {
	tab := form.PreviewTab()
	if tab == nil || (!e.tabs.IsEnhanced(tab.Node()) && !tab.HasIndicator()) {
		return
	}
	tab.SetIndicator(false)
	e.tabs.Forget(tab.Node())
}

// Reset cancels pending syncs, removes every listener the enhancer
// attached and forgets every enhanced node, labelled tab, guarded form and
// buffer. Shown tab indicators are kept and taken over by the next scan.
func (e *Enhancer) Reset() {
	e.pending.CancelAll()
	e.guard.Reset()
	e.mu.Lock()
	wired := e.wired
	e.wired = make(map[*host.Node]wiring)
	e.buffers = make(map[host.Form]*source.Buffer)
	e.mu.Unlock()
	for _, w := range wired {
		for _, cancel := range w.cancels {
			cancel()
		}
	}
	e.editables.Reset()
	e.checkboxes.Reset()
	e.tabs.Reset()
}

// fieldStore adapts a host field to a source store. Write notifications are
// forwarded to the field so the host's own change detection sees them.
type fieldStore struct {
	field host.Field
}

func (s fieldStore) Value() string         { return s.field.Value() }
func (s fieldStore) SetValue(value string) { s.field.SetValue(value) }

func (s fieldStore) Dispatch(n source.Notification) {
	s.field.Dispatch(string(n))
}
