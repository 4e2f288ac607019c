package memhost

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dshills/previewsync/internal/host"
)

// Kind is the rendered element type.
type Kind string

// Element kinds.
const (
	KindForm      Kind = "form"
	KindBody      Kind = "preview-body"
	KindTab       Kind = "preview-tab"
	KindParagraph Kind = "p"
	KindHeading   Kind = "h"
	KindListItem  Kind = "li"
	KindTaskItem  Kind = "task-list-item"
	KindCheckbox  Kind = "checkbox"
	KindTaskText  Kind = "checkbox-text-span"
)

func newID(kind Kind) string {
	return fmt.Sprintf("%s-%s", kind, uuid.NewString()[:8])
}

// element is the state shared by every rendered element.
type element struct {
	doc      *Document
	node     *host.Node
	kind     Kind
	text     string
	data     map[string]string
	attached bool
}

func newElement(doc *Document, kind Kind, text string) element {
	return element{
		doc:      doc,
		node:     host.NewNode(newID(kind)),
		kind:     kind,
		text:     text,
		data:     make(map[string]string),
		attached: true,
	}
}

// Node returns the element identity.
func (e *element) Node() *host.Node { return e.node }

// ID returns the element identifier.
func (e *element) ID() string { return e.node.ID() }

// Kind returns the element kind.
func (e *element) Kind() Kind { return e.kind }

// Text returns the element's text content.
func (e *element) Text() string { return e.text }

// Data returns a data attribute.
func (e *element) Data(key string) (string, bool) {
	v, ok := e.data[key]
	return v, ok
}

// SetData sets a data attribute.
func (e *element) SetData(key, value string) {
	e.data[key] = value
}

// Attached reports whether the element is in the rendered tree.
func (e *element) Attached() bool { return e.attached }

func (e *element) detach() { e.attached = false }

// listeners is an ordered list of callbacks that can be removed
// individually.
type listeners[F any] struct {
	next    int
	entries []listenerEntry[F]
}

type listenerEntry[F any] struct {
	id int
	fn F
}

func (l *listeners[F]) add(fn F) (cancel func()) {
	l.next++
	id := l.next
	l.entries = append(l.entries, listenerEntry[F]{id: id, fn: fn})
	return func() {
		l.entries = slices.DeleteFunc(slices.Clone(l.entries), func(e listenerEntry[F]) bool {
			return e.id == id
		})
	}
}

// list returns a snapshot, so listeners may cancel themselves while
// running.
func (l *listeners[F]) list() []F {
	out := make([]F, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.fn
	}
	return out
}

func (l *listeners[F]) len() int { return len(l.entries) }

func noop() {}

// Editable is a paragraph, heading, list item or task text span.
type Editable struct {
	element
	level    int
	editable bool
	input    listeners[func()]
	blur     listeners[func()]
}

func newEditable(doc *Document, kind Kind, text string) *Editable {
	return &Editable{element: newElement(doc, kind, text)}
}

// Level returns the heading level, or 0.
func (e *Editable) Level() int { return e.level }

// SetEditable turns inline editing on or off.
func (e *Editable) SetEditable(on bool) { e.editable = on }

// Editable reports whether inline editing is on.
func (e *Editable) Editable() bool { return e.editable }

// OnInput registers an input listener.
func (e *Editable) OnInput(fn func()) (cancel func()) {
	if fn == nil {
		return noop
	}
	return e.input.add(fn)
}

// OnBlur registers a blur listener.
func (e *Editable) OnBlur(fn func()) (cancel func()) {
	if fn == nil {
		return noop
	}
	return e.blur.add(fn)
}

// Listeners returns the number of input and blur listeners attached.
func (e *Editable) Listeners() (input, blur int) {
	return e.input.len(), e.blur.len()
}

// Type replaces the element's text as a user edit and fires input
// listeners. It reports false when the element is not editable.
func (e *Editable) Type(text string) bool {
	if !e.editable || !e.attached {
		return false
	}
	e.text = text
	for _, fn := range e.input.list() {
		fn()
	}
	return true
}

// Blur fires blur listeners.
func (e *Editable) Blur() {
	if !e.attached {
		return
	}
	for _, fn := range e.blur.list() {
		fn()
	}
}

// Checkbox is a task list checkbox. It renders disabled.
type Checkbox struct {
	element
	checked bool
	enabled bool
	change  listeners[func(bool)]
}

// Checked reports the checkbox state.
func (c *Checkbox) Checked() bool { return c.checked }

// Enable makes the checkbox clickable.
func (c *Checkbox) Enable() { c.enabled = true }

// Enabled reports whether the checkbox is clickable.
func (c *Checkbox) Enabled() bool { return c.enabled }

// OnChange registers a change listener.
func (c *Checkbox) OnChange(fn func(checked bool)) (cancel func()) {
	if fn == nil {
		return noop
	}
	return c.change.add(fn)
}

// Listeners returns the number of change listeners attached.
func (c *Checkbox) Listeners() int { return c.change.len() }

// Click flips an enabled checkbox and fires change listeners. It reports
// false when the checkbox is disabled.
func (c *Checkbox) Click() bool {
	if !c.enabled || !c.attached {
		return false
	}
	c.checked = !c.checked
	for _, fn := range c.change.list() {
		fn(c.checked)
	}
	return true
}

// TaskItem is a task list item: a checkbox followed by text.
type TaskItem struct {
	element
	checkbox *Checkbox
	span     *Editable
}

// Text returns the item's text after the checkbox.
func (t *TaskItem) Text() string {
	if t.span != nil {
		return t.span.Text()
	}
	return t.text
}

// Checkbox returns the item's checkbox, or nil.
func (t *TaskItem) Checkbox() host.Checkbox {
	if t.checkbox == nil {
		return nil
	}
	return t.checkbox
}

// Span returns the wrapped text span, or nil before TextSpan was called.
func (t *TaskItem) Span() *Editable { return t.span }

// TextSpan wraps the text after the checkbox in an editable span. The span
// is created once; later calls return it.
func (t *TaskItem) TextSpan() (host.Editable, bool) {
	if t.checkbox == nil {
		return nil, false
	}
	if t.span != nil {
		return t.span, true
	}
	if strings.TrimSpace(t.text) == "" {
		return nil, false
	}
	t.span = newEditable(t.doc, KindTaskText, t.text)
	if !t.attached {
		t.span.detach()
	}
	t.doc.emit(host.Mutation{Kind: host.MutationChildList, TargetID: t.ID(), Added: 1})
	return t.span, true
}

func (t *TaskItem) detach() {
	t.element.detach()
	if t.checkbox != nil {
		t.checkbox.detach()
	}
	if t.span != nil {
		t.span.detach()
	}
}

// Tab is a form's preview tab.
type Tab struct {
	element
	label     string
	selected  bool
	indicator bool
}

// Indicator is appended to a tab's label while it is marked editable.
const Indicator = " ✏️"

// Label returns the tab's label.
func (t *Tab) Label() string { return t.label }

// Text returns the label including the indicator.
func (t *Tab) Text() string {
	if t.indicator {
		return t.label + Indicator
	}
	return t.label
}

// Selected reports whether the preview tab is selected.
func (t *Tab) Selected() bool { return t.selected }

// SetIndicator shows or hides the indicator.
func (t *Tab) SetIndicator(on bool) { t.indicator = on }

// HasIndicator reports whether the indicator is shown.
func (t *Tab) HasIndicator() bool { return t.indicator }
