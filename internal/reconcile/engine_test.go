package reconcile

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

type memBuffer struct {
	text   string
	writes int
	err    error
}

func (b *memBuffer) Lines() []string { return strings.Split(b.text, "\n") }

func (b *memBuffer) WriteLines(lines []string) error {
	if b.err != nil {
		return b.err
	}
	b.writes++
	b.text = strings.Join(lines, "\n")
	return nil
}

type fakeNode struct {
	text   string
	anchor string
}

func (n *fakeNode) Text() string          { return n.text }
func (n *fakeNode) Anchor() string        { return n.anchor }
func (n *fakeNode) SetAnchor(text string) { n.anchor = text }

type recordingDiag struct {
	debug []string
	warn  []string
}

func (d *recordingDiag) Debug(msg string, args ...any) { d.debug = append(d.debug, fmt.Sprintf(msg, args...)) }
func (d *recordingDiag) Warn(msg string, args ...any)  { d.warn = append(d.warn, fmt.Sprintf(msg, args...)) }

func TestEngineReconcile(t *testing.T) {
	buf := &memBuffer{text: "# Notes\nThis is **bold** text\n"}
	node := &fakeNode{text: "  This is bold word  ", anchor: "This is bold text"}
	diag := &recordingDiag{}
	e := NewEngine(diag)

	res, err := e.Reconcile(buf, node)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if res.Mode != ModeSpan || res.Line != 1 {
		t.Errorf("Result = %+v", res)
	}
	if buf.text != "# Notes\nThis is **bold** word\n" {
		t.Errorf("buffer = %q", buf.text)
	}
	if node.anchor != "This is bold word" {
		t.Errorf("anchor = %q, want trimmed current text", node.anchor)
	}
	if len(diag.debug) != 1 {
		t.Errorf("debug diagnostics = %v", diag.debug)
	}
}

func TestEngineReconcileIdempotent(t *testing.T) {
	buf := &memBuffer{text: "Hello world"}
	node := &fakeNode{text: "Hello there", anchor: "Hello world"}
	e := NewEngine(nil)

	if _, err := e.Reconcile(buf, node); err != nil {
		t.Fatal(err)
	}
	res, err := e.Reconcile(buf, node)
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed() {
		t.Error("second Reconcile changed the buffer")
	}
	if buf.writes != 1 {
		t.Errorf("writes = %d, want 1", buf.writes)
	}
	synced, failed := e.Stats()
	if synced != 1 || failed != 0 {
		t.Errorf("Stats() = %d, %d; want 1, 0", synced, failed)
	}
}

func TestEngineReconcileNoMatch(t *testing.T) {
	buf := &memBuffer{text: "unrelated"}
	node := &fakeNode{text: "edited", anchor: "missing"}
	diag := &recordingDiag{}
	e := NewEngine(diag)

	_, err := e.Reconcile(buf, node)
	if !errors.Is(err, ErrNoMatchFound) {
		t.Fatalf("err = %v, want ErrNoMatchFound", err)
	}
	if buf.writes != 0 || buf.text != "unrelated" {
		t.Errorf("buffer modified on failure: %q", buf.text)
	}
	if node.anchor != "missing" {
		t.Errorf("anchor advanced on failure: %q", node.anchor)
	}
	if len(diag.warn) != 1 {
		t.Errorf("warn diagnostics = %v, want one", diag.warn)
	}
	if _, failed := e.Stats(); failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
}

func TestEngineReconcileWriteError(t *testing.T) {
	boom := errors.New("read-only")
	buf := &memBuffer{text: "a", err: boom}
	node := &fakeNode{text: "b", anchor: "a"}

	if _, err := NewEngine(nil).Reconcile(buf, node); !errors.Is(err, boom) {
		t.Errorf("err = %v, want write error", err)
	}
	if node.anchor != "a" {
		t.Errorf("anchor advanced after failed write: %q", node.anchor)
	}
}
