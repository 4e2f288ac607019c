package reconcile

import (
	"strings"
	"sync/atomic"
)

// Buffer is the source the engine reads and writes.
type Buffer interface {
	Lines() []string
	WriteLines(lines []string) error
}

// Node is an editable rendered node. Anchor is the text as of the last
// successful sync.
type Node interface {
	Text() string
	Anchor() string
	SetAnchor(text string)
}

// Diagnostics receives developer-facing reports. Reconciliation failures
// never surface to the user.
type Diagnostics interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Engine reconciles rendered edits into source buffers.
type Engine struct {
	diag Diagnostics

	synced atomic.Uint64
	failed atomic.Uint64
}

// NewEngine creates an engine. diag may be nil.
func NewEngine(diag Diagnostics) *Engine {
	return &Engine{diag: diag}
}

// Reconcile writes the node's current text into buf. Current text is
// trimmed. A node whose text equals its anchor is a no-op, so calling
// Reconcile twice without an edit in between writes at most once. On
// success the anchor advances to the current text.
func (e *Engine) Reconcile(buf Buffer, node Node) (Result, error) {
	anchor := node.Anchor()
	current := strings.TrimSpace(node.Text())

	lines, res, err := Lines(buf.Lines(), anchor, current)
	if err != nil {
		e.failed.Add(1)
		if e.diag != nil {
			e.diag.Warn("reconcile: no match found for %q", anchor)
		}
		return res, err
	}
	if !res.Changed() {
		return res, nil
	}

	if err := buf.WriteLines(lines); err != nil {
		e.failed.Add(1)
		return Result{Mode: ModeNone, Line: -1}, err
	}
	node.SetAnchor(current)
	e.synced.Add(1)
	if e.diag != nil {
		e.diag.Debug("reconcile: synced line %d (%s match)", res.Line, res.Mode)
	}
	return res, nil
}

// Stats returns the number of successful and failed reconciliations.
func (e *Engine) Stats() (synced, failed uint64) {
	return e.synced.Load(), e.failed.Load()
}
