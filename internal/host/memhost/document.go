package memhost

import (
	"context"

	"github.com/yuin/goldmark"

	"github.com/dshills/previewsync/internal/event"
	"github.com/dshills/previewsync/internal/host"
)

// DefaultTabLabel is the label of a new preview tab.
const DefaultTabLabel = "Preview"

// Document is an in-memory host.Document.
type Document struct {
	bus    event.Bus
	md     goldmark.Markdown
	source string
	forms  []*Form
}

// New creates an empty document publishing on bus. A nil bus gets a
// private one.
func New(bus event.Bus) *Document {
	if bus == nil {
		bus = event.NewBus()
	}
	return &Document{
		bus:    bus,
		md:     newMarkdown(),
		source: "memhost",
	}
}

// Bus returns the document's event bus.
func (d *Document) Bus() event.Bus { return d.bus }

// AddForm adds a form whose field holds markdown. The form starts in write
// mode with an empty preview.
func (d *Document) AddForm(markdown string) *Form {
	f := &Form{element: newElement(d, KindForm, "")}
	f.field = &Field{form: f, value: markdown}
	f.tab = &Tab{element: newElement(d, KindTab, DefaultTabLabel), label: DefaultTabLabel}
	f.body = &Container{element: newElement(d, KindBody, ""), form: f}
	d.forms = append(d.forms, f)
	d.emit(host.Mutation{Kind: host.MutationChildList, TargetID: "document", Added: 1})
	return f
}

// RemoveForm detaches f and everything rendered in it.
func (d *Document) RemoveForm(f *Form) bool {
	for i, cur := range d.forms {
		if cur == f {
			d.forms = append(d.forms[:i], d.forms[i+1:]...)
			f.detach()
			d.emit(host.Mutation{Kind: host.MutationChildList, TargetID: "document"})
			return true
		}
	}
	return false
}

// Forms returns the forms in document order.
func (d *Document) Forms() []host.Form {
	out := make([]host.Form, 0, len(d.forms))
	for _, f := range d.forms {
		out = append(out, f)
	}
	return out
}

// FormList returns the forms with their concrete type.
func (d *Document) FormList() []*Form {
	return append([]*Form(nil), d.forms...)
}

// PreviewBodies returns every form's preview body.
func (d *Document) PreviewBodies() []host.Container {
	out := make([]host.Container, 0, len(d.forms))
	for _, f := range d.forms {
		out = append(out, f.body)
	}
	return out
}

// Observe subscribes fn to mutation batches.
func (d *Document) Observe(fn func(batch []host.Mutation)) (cancel func()) {
	sub, err := d.bus.Subscribe(event.TopicHostMutation, event.AsHandlerFunc(func(_ context.Context, ev event.Event[[]host.Mutation]) error {
		fn(ev.Payload)
		return nil
	}))
	if err != nil {
		return func() {}
	}
	return func() { _ = d.bus.Unsubscribe(sub) }
}

func (d *Document) emit(batch ...host.Mutation) {
	if len(batch) == 0 {
		return
	}
	_ = d.bus.Publish(context.Background(), event.NewEvent(event.TopicHostMutation, batch, d.source))
}

var _ host.Document = (*Document)(nil)
var _ host.Form = (*Form)(nil)
var _ host.Container = (*Container)(nil)
var _ host.Editable = (*Editable)(nil)
var _ host.TaskItem = (*TaskItem)(nil)
var _ host.Checkbox = (*Checkbox)(nil)
var _ host.Tab = (*Tab)(nil)
var _ host.Field = (*Field)(nil)
