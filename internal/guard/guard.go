// Package guard makes sure every rendered edit reaches the source buffer
// before a form is finalized.
//
// A registered form gets one capture-phase submit listener. When it runs,
// pending debounced syncs in the form are cancelled and every dirty
// editable is reconciled synchronously, so whatever reads the buffer after
// the submit sees all edits made before it.
package guard

import (
	"sync/atomic"

	"github.com/dshills/previewsync/internal/host"
	"github.com/dshills/previewsync/internal/reconcile"
	"github.com/dshills/previewsync/internal/registry"
)

// Pending is the set of debounced syncs, keyed by node.
type Pending interface {
	Cancel(key *host.Node) bool
}

// Diagnostics receives developer-facing reports.
type Diagnostics interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// ReportFunc observes every reconcile a flush runs.
type ReportFunc func(form host.Form, el host.Editable, res reconcile.Result, err error)

type attachment struct {
	form   host.Form
	cancel func()
}

// Guard attaches flush-on-submit listeners to forms.
type Guard struct {
	forms    *registry.Registry[host.Node]
	attached map[*host.Node]attachment
	engine   *reconcile.Engine
	pending  Pending
	diag     Diagnostics
	report   ReportFunc

	flushes atomic.Uint64
	synced  atomic.Uint64
}

// New creates a guard. pending and diag may be nil.
func New(engine *reconcile.Engine, pending Pending, diag Diagnostics) *Guard {
	return &Guard{
		forms:    registry.New[host.Node](),
		attached: make(map[*host.Node]attachment),
		engine:   engine,
		pending:  pending,
		diag:     diag,
	}
}

// OnReconcile sets fn to observe the outcome of every reconcile run by a
// flush, failures included.
func (g *Guard) OnReconcile(fn ReportFunc) {
	g.report = fn
}

// RegisterBuffer attaches the guard to form, flushing into buf. It reports
// whether a listener was attached; registering a form again is a no-op.
func (g *Guard) RegisterBuffer(form host.Form, buf reconcile.Buffer) bool {
	if form == nil || buf == nil {
		return false
	}
	g.prune()
	if !g.forms.TryMark(form.Node()) {
		return false
	}
	cancel := form.AddSubmitListener(func() { g.Flush(form, buf) }, true)
	g.attached[form.Node()] = attachment{form: form, cancel: cancel}
	if g.diag != nil {
		g.diag.Debug("guard: registered scope %s", form.Node().ID())
	}
	return true
}

// Registered reports whether form has a guard attached.
func (g *Guard) Registered(form host.Form) bool {
	return form != nil && g.forms.IsEnhanced(form.Node())
}

// Flush cancels pending syncs for the form's editables and reconciles every
// dirty one into buf, in document order. It returns the number of
// editables that were written.
func (g *Guard) Flush(form host.Form, buf reconcile.Buffer) int {
	g.flushes.Add(1)

	n := 0
	for _, el := range form.Editables() {
		if g.pending != nil {
			g.pending.Cancel(el.Node())
		}
		if !reconcile.Dirty(el) {
			continue
		}
		res, err := g.engine.Reconcile(buf, reconcile.ElementNode{Element: el})
		if g.report != nil {
			g.report(form, el, res, err)
		}
		if err != nil || !res.Changed() {
			continue
		}
		n++
	}
	g.synced.Add(uint64(n))
	if g.diag != nil {
		g.diag.Debug("guard: flushed %d editables in scope %s", n, form.Node().ID())
	}
	return n
}

// Stats returns how many flushes ran and how many editables they wrote.
func (g *Guard) Stats() (flushes, synced uint64) {
	return g.flushes.Load(), g.synced.Load()
}

// Reset detaches the guard from every registered form and forgets them.
func (g *Guard) Reset() {
	for node, a := range g.attached {
		if a.cancel != nil {
			a.cancel()
		}
		delete(g.attached, node)
	}
	g.forms.Reset()
}

// prune drops attachments of forms that left the document.
func (g *Guard) prune() {
	for node, a := range g.attached {
		if !a.form.Attached() {
			delete(g.attached, node)
		}
	}
}
