package memhost

import "github.com/dshills/previewsync/internal/host"

// Container is a form's preview body.
type Container struct {
	element
	form  *Form
	items []any // *Editable or *TaskItem, in document order
}

// Form returns the enclosing form, or nil.
func (c *Container) Form() host.Form {
	if c.form == nil {
		return nil
	}
	return c.form
}

// HasContent reports whether anything is rendered.
func (c *Container) HasContent() bool {
	return len(c.items) > 0
}

func (c *Container) add(item any) {
	c.items = append(c.items, item)
}

// clear detaches and drops every rendered element.
func (c *Container) clear() {
	for _, item := range c.items {
		switch it := item.(type) {
		case *Editable:
			it.detach()
		case *TaskItem:
			it.detach()
		}
	}
	c.items = nil
}

// Checkboxes returns the task checkboxes in document order.
func (c *Container) Checkboxes() []host.Checkbox {
	var out []host.Checkbox
	for _, item := range c.items {
		if t, ok := item.(*TaskItem); ok && t.checkbox != nil {
			out = append(out, t.checkbox)
		}
	}
	return out
}

// TextBlocks returns paragraphs, headings and plain list items in document
// order.
func (c *Container) TextBlocks() []host.Editable {
	var out []host.Editable
	for _, item := range c.items {
		if e, ok := item.(*Editable); ok {
			out = append(out, e)
		}
	}
	return out
}

// TaskItems returns the task list items in document order.
func (c *Container) TaskItems() []host.TaskItem {
	var out []host.TaskItem
	for _, item := range c.items {
		if t, ok := item.(*TaskItem); ok {
			out = append(out, t)
		}
	}
	return out
}

// Blocks returns the rendered text blocks with their concrete type.
func (c *Container) Blocks() []*Editable {
	var out []*Editable
	for _, item := range c.items {
		if e, ok := item.(*Editable); ok {
			out = append(out, e)
		}
	}
	return out
}

// Tasks returns the task items with their concrete type.
func (c *Container) Tasks() []*TaskItem {
	var out []*TaskItem
	for _, item := range c.items {
		if t, ok := item.(*TaskItem); ok {
			out = append(out, t)
		}
	}
	return out
}

// editables returns the elements made editable, in document order.
func (c *Container) editables() []host.Editable {
	var out []host.Editable
	for _, item := range c.items {
		switch it := item.(type) {
		case *Editable:
			if it.editable && it.attached {
				out = append(out, it)
			}
		case *TaskItem:
			if it.span != nil && it.span.editable && it.span.attached {
				out = append(out, it.span)
			}
		}
	}
	return out
}

// Find returns the first editable element whose text equals text,
// including task text spans and task items not yet wrapped.
func (c *Container) Find(text string) (*Editable, bool) {
	for _, item := range c.items {
		switch it := item.(type) {
		case *Editable:
			if it.text == text {
				return it, true
			}
		case *TaskItem:
			if it.span != nil && it.span.text == text {
				return it.span, true
			}
		}
	}
	return nil, false
}
