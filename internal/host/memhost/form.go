package memhost

import (
	"context"
	"slices"

	"github.com/dshills/previewsync/internal/event"
	"github.com/dshills/previewsync/internal/host"
)

// SubmitEvent is the payload of form.submit and form.submit.click.
type SubmitEvent struct {
	FormID string
}

// FieldEvent is the payload of buffer.input and buffer.change.
type FieldEvent struct {
	FormID string
	Length int
}

// Field is a form's source text control.
type Field struct {
	form  *Form
	value string
}

// Value returns the field text.
func (f *Field) Value() string { return f.value }

// SetValue replaces the field text without notifying anyone.
func (f *Field) SetValue(value string) { f.value = value }

// Dispatch publishes an "input" or "change" notification for the field.
func (f *Field) Dispatch(kind string) {
	topic := event.TopicBufferChange
	if kind == "input" {
		topic = event.TopicBufferInput
	}
	d := f.form.doc
	_ = d.bus.Publish(context.Background(), event.NewEvent(topic, FieldEvent{FormID: f.form.ID(), Length: len(f.value)}, d.source))
}

// Type replaces the field text as a user would in write mode.
func (f *Field) Type(value string) {
	f.value = value
	f.Dispatch("input")
}

// Form is an editing scope: a source field, a preview tab and a preview
// body.
type Form struct {
	element
	field   *Field
	tab     *Tab
	body    *Container
	preview bool
	subs    []event.Subscription
}

// InPreview reports whether the preview is shown.
func (f *Form) InPreview() bool { return f.preview }

// Field returns the source field.
func (f *Form) Field() host.Field { return f.field }

// SourceField returns the source field with its concrete type.
func (f *Form) SourceField() *Field { return f.field }

// PreviewTab returns the preview tab.
func (f *Form) PreviewTab() host.Tab { return f.tab }

// Tab returns the preview tab with its concrete type.
func (f *Form) Tab() *Tab { return f.tab }

// Body returns the preview body.
func (f *Form) Body() *Container { return f.body }

// Editables returns the attached editable elements in document order.
func (f *Form) Editables() []host.Editable {
	return f.body.editables()
}

// AddSubmitListener registers fn for both submit signals of this form.
// Capture listeners run at event.PriorityCapture, others at
// event.PriorityNormal.
func (f *Form) AddSubmitListener(fn func(), capture bool) (cancel func()) {
	if fn == nil {
		return noop
	}
	priority := event.PriorityNormal
	if capture {
		priority = event.PriorityCapture
	}
	id := f.ID()
	filter := func(ev any) bool {
		e, ok := ev.(event.Event[SubmitEvent])
		return ok && e.Payload.FormID == id
	}
	handler := func(context.Context, any) error {
		fn()
		return nil
	}
	var added []event.Subscription
	for _, topic := range []event.Topic{event.TopicFormSubmit, event.TopicFormSubmitClick} {
		sub, err := f.doc.bus.SubscribeFunc(topic, handler, event.WithPriority(priority), event.WithFilter(filter))
		if err == nil {
			added = append(added, sub)
		}
	}
	f.subs = append(f.subs, added...)
	return func() {
		for _, sub := range added {
			_ = f.doc.bus.Unsubscribe(sub)
		}
		f.subs = slices.DeleteFunc(f.subs, func(s event.Subscription) bool {
			return slices.Contains(added, s)
		})
	}
}

// SubmitListeners returns the number of submit subscriptions, two per
// listener.
func (f *Form) SubmitListeners() int { return len(f.subs) }

// SelectPreview switches the form to its preview and renders the field.
// Selecting an already selected preview does nothing.
func (f *Form) SelectPreview() {
	if f.preview {
		return
	}
	f.preview = true
	f.tab.selected = true
	f.body.clear()
	f.doc.render(f.body, []byte(f.field.value))
	f.doc.emit(
		host.Mutation{Kind: host.MutationAttributes, TargetID: f.tab.ID(), Attribute: "aria-selected"},
		host.Mutation{Kind: host.MutationChildList, TargetID: f.body.ID(), Added: len(f.body.items)},
	)
}

// SelectWrite leaves the preview. Rendered elements stay in place, hidden,
// until the next SelectPreview replaces them.
func (f *Form) SelectWrite() {
	if !f.preview {
		return
	}
	f.preview = false
	f.tab.selected = false
	f.doc.emit(host.Mutation{Kind: host.MutationAttributes, TargetID: f.tab.ID(), Attribute: "aria-selected"})
}

// Rerender replaces the preview with a fresh rendering of the field, as a
// host does when it refreshes the preview.
func (f *Form) Rerender() {
	f.body.clear()
	f.doc.render(f.body, []byte(f.field.value))
	f.doc.emit(host.Mutation{Kind: host.MutationChildList, TargetID: f.body.ID(), Added: len(f.body.items)})
}

// Submit publishes form.submit.
func (f *Form) Submit() error {
	return f.doc.bus.Publish(context.Background(), event.NewEvent(event.TopicFormSubmit, SubmitEvent{FormID: f.ID()}, f.doc.source))
}

// ClickSubmit publishes form.submit.click followed by form.submit, the
// order a browser uses for a submit button.
func (f *Form) ClickSubmit() error {
	if err := f.doc.bus.Publish(context.Background(), event.NewEvent(event.TopicFormSubmitClick, SubmitEvent{FormID: f.ID()}, f.doc.source)); err != nil {
		return err
	}
	return f.Submit()
}

func (f *Form) detach() {
	f.element.detach()
	f.tab.detach()
	f.body.detach()
	f.body.clear()
	for _, sub := range f.subs {
		_ = f.doc.bus.Unsubscribe(sub)
	}
	f.subs = nil
}
