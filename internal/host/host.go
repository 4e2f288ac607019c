// Package host defines the capabilities the sync engine needs from the
// document that renders markdown: enumerating preview containers, forms and
// their nodes, observing structural changes, and reading or writing node
// text. The engine never implements these itself; a host adapter is
// injected.
package host

// Node is the identity of a rendered element. Elements hand out the same
// *Node for their whole lifetime, and the engine tracks elements only
// through weak references to it.
type Node struct {
	id string
}

// NewNode creates a node identity.
func NewNode(id string) *Node {
	return &Node{id: id}
}

// ID returns the node's identifier.
func (n *Node) ID() string {
	if n == nil {
		return ""
	}
	return n.id
}

// Data attribute keys written by the engine.
const (
	// DataOriginalText holds the reconciliation anchor of an editable node.
	DataOriginalText = "originalText"
	// DataTabLabel holds a preview tab's label before it was decorated.
	DataTabLabel = "tabLabel"
)

// Element is a rendered element.
type Element interface {
	// Node returns the element's stable identity.
	Node() *Node

	// Text returns the element's text content.
	Text() string

	// Data returns a data attribute.
	Data(key string) (string, bool)

	// SetData sets a data attribute.
	SetData(key, value string)

	// Attached reports whether the element is still in the rendered tree.
	Attached() bool
}

// Editable is an element that can be made user-editable.
type Editable interface {
	Element

	// SetEditable turns inline editing on or off and marks the element as
	// owned by the sync engine.
	SetEditable(on bool)

	// Editable reports whether SetEditable(true) was called.
	Editable() bool

	// OnInput registers a listener for text edits. The returned function
	// removes it.
	OnInput(fn func()) (cancel func())

	// OnBlur registers a listener for focus loss. The returned function
	// removes it.
	OnBlur(fn func()) (cancel func())
}

// Checkbox is a rendered task list checkbox.
type Checkbox interface {
	Element

	Checked() bool

	// Enable makes a read-only rendered checkbox clickable.
	Enable()

	// OnChange registers a listener for toggles. The returned function
	// removes it.
	OnChange(fn func(checked bool)) (cancel func())
}

// TaskItem is a rendered task list item.
type TaskItem interface {
	Element

	// Checkbox returns the item's checkbox, or nil.
	Checkbox() Checkbox

	// TextSpan wraps everything after the checkbox into an editable span,
	// creating it on the first call. ok is false when the item has no
	// checkbox or no content after it.
	TextSpan() (span Editable, ok bool)
}

// Field is the source text control of a form. It doubles as the store of
// a source buffer.
type Field interface {
	Value() string
	SetValue(value string)

	// Dispatch delivers an "input" or "change" notification to the host's
	// own listeners.
	Dispatch(kind string)
}

// Tab is a form's preview tab.
type Tab interface {
	Element

	Selected() bool

	// SetIndicator shows or hides the "editable" indicator.
	SetIndicator(on bool)

	// HasIndicator reports whether the indicator is shown.
	HasIndicator() bool
}

// Form is a logical editing scope: one source field plus its preview.
type Form interface {
	Element

	// InPreview reports whether the form shows its rendered preview.
	InPreview() bool

	// Field returns the source field, or nil.
	Field() Field

	// PreviewTab returns the preview tab, or nil.
	PreviewTab() Tab

	// Editables returns the attached elements in the form that were made
	// editable, in document order.
	Editables() []Editable

	// AddSubmitListener registers fn for the form's finalize signal, both
	// the submit itself and clicks on submit buttons. Capture listeners run
	// before every non-capture listener. The returned function removes fn.
	AddSubmitListener(fn func(), capture bool) (cancel func())
}

// Container is a rendered preview body.
type Container interface {
	Element

	// Form returns the enclosing form, or nil.
	Form() Form

	// HasContent reports whether anything has been rendered.
	HasContent() bool

	// Checkboxes returns the task checkboxes in document order.
	Checkboxes() []Checkbox

	// TextBlocks returns paragraphs, headings and non-task list items in
	// document order.
	TextBlocks() []Editable

	// TaskItems returns task list items in document order.
	TaskItems() []TaskItem
}

// MutationKind classifies a structural change.
type MutationKind int

const (
	// MutationChildList reports added or removed children.
	MutationChildList MutationKind = iota
	// MutationAttributes reports an attribute change.
	MutationAttributes
)

// String returns the mutation kind name.
func (k MutationKind) String() string {
	switch k {
	case MutationChildList:
		return "childList"
	case MutationAttributes:
		return "attributes"
	default:
		return "unknown"
	}
}

// Mutation describes one structural change.
type Mutation struct {
	Kind      MutationKind
	TargetID  string
	Added     int
	Attribute string
}

// Document is the host capability set.
type Document interface {
	// PreviewBodies enumerates candidate preview containers.
	PreviewBodies() []Container

	// Forms enumerates editing forms.
	Forms() []Form

	// Observe subscribes fn to batches of structural changes. The returned
	// function cancels the subscription.
	Observe(fn func(batch []Mutation)) (cancel func())
}
