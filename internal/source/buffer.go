package source

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/previewsync/internal/markdown"
)

// Errors returned by buffer operations.
var (
	ErrLineOutOfRange = errors.New("line out of range")
	ErrNilStore       = errors.New("nil store")
)

// Notification is emitted after every write, in order.
type Notification string

const (
	// NotifyInput mirrors an input event with inputType insertReplacementText.
	NotifyInput Notification = "input"
	// NotifyChange mirrors a change event.
	NotifyChange Notification = "change"
)

// Store holds the authoritative text.
type Store interface {
	Value() string
	SetValue(value string)
}

// Dispatcher is implemented by stores that need to see write notifications,
// such as host text fields with their own change detection.
type Dispatcher interface {
	Dispatch(n Notification)
}

// WriteFunc observes completed writes.
type WriteFunc func(n Notification, text string)

// RevisionID identifies a buffer state. A new ID is generated on every write.
type RevisionID string

// NewRevisionID returns a fresh revision ID.
func NewRevisionID() RevisionID {
	return RevisionID(uuid.NewString())
}

// Buffer is a line-oriented view over a Store.
type Buffer struct {
	mu       sync.Mutex
	store    Store
	revision RevisionID
	writes   uint64
	onWrite  []WriteFunc
}

// NewBuffer creates a buffer over store.
func NewBuffer(store Store, opts ...Option) (*Buffer, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	b := &Buffer{
		store:    store,
		revision: NewRevisionID(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// NewBufferFromString creates a buffer backed by an in-memory store.
func NewBufferFromString(text string, opts ...Option) *Buffer {
	b, _ := NewBuffer(NewMemoryStore(text), opts...)
	return b
}

// Store returns the backing store.
func (b *Buffer) Store() Store {
	return b.store
}

// Text returns the full buffer content.
func (b *Buffer) Text() string {
	return b.store.Value()
}

// Lines returns the buffer split on "\n". The slice is a fresh copy and may
// be modified by the caller.
func (b *Buffer) Lines() []string {
	return markdown.SplitLines(b.store.Value())
}

// LineCount returns the number of lines. An empty buffer has one line.
func (b *Buffer) LineCount() int {
	return len(b.Lines())
}

// Line returns a single line.
func (b *Buffer) Line(i int) (string, error) {
	lines := b.Lines()
	if i < 0 || i >= len(lines) {
		return "", ErrLineOutOfRange
	}
	return lines[i], nil
}

// SetText replaces the buffer content and emits write notifications.
func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	b.store.SetValue(text)
	b.revision = NewRevisionID()
	b.writes++
	hooks := append([]WriteFunc(nil), b.onWrite...)
	b.mu.Unlock()

	b.notify(NotifyInput, text, hooks)
	b.notify(NotifyChange, text, hooks)
}

// WriteLines joins lines with "\n" and writes them as the new content.
func (b *Buffer) WriteLines(lines []string) error {
	b.SetText(markdown.JoinLines(lines))
	return nil
}

// Revision returns the current revision ID.
func (b *Buffer) Revision() RevisionID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revision
}

// Writes returns the number of writes performed through this buffer.
func (b *Buffer) Writes() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

func (b *Buffer) notify(n Notification, text string, hooks []WriteFunc) {
	if d, ok := b.store.(Dispatcher); ok {
		d.Dispatch(n)
	}
	for _, fn := range hooks {
		fn(n, text)
	}
}
