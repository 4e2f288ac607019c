// Package checkbox maps rendered task checkboxes onto source lines by
// ordinal: the Nth checkbox in a preview corresponds to the Nth line of the
// source that matches the task line pattern.
package checkbox

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dshills/previewsync/internal/host"
	"github.com/dshills/previewsync/internal/markdown"
	"github.com/dshills/previewsync/internal/registry"
)

// ErrOrdinalOutOfRange is returned when the source has fewer checkbox lines
// than the ordinal requires.
var ErrOrdinalOutOfRange = errors.New("checkbox ordinal out of range")

// ToggleError reports a dropped toggle.
type ToggleError struct {
	Ordinal int
	Count   int // checkbox lines present in the source
}

// Error implements the error interface.
func (e *ToggleError) Error() string {
	return fmt.Sprintf("%v: ordinal %d, %d checkbox lines", ErrOrdinalOutOfRange, e.Ordinal, e.Count)
}

// Unwrap returns ErrOrdinalOutOfRange.
func (e *ToggleError) Unwrap() error {
	return ErrOrdinalOutOfRange
}

// Buffer is the source a toggle rewrites.
type Buffer interface {
	Lines() []string
	WriteLines(lines []string) error
}

// Diagnostics receives developer-facing reports.
type Diagnostics interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// ToggleLines sets the marker of the ordinal-th checkbox line and returns
// the new lines along with the index of the rewritten line. Only the marker
// changes; the prefix and trailing text are kept verbatim. lines is not
// modified.
func ToggleLines(lines []string, ordinal int, checked bool) ([]string, int, error) {
	if ordinal < 0 {
		return lines, -1, &ToggleError{Ordinal: ordinal}
	}

	count := 0
	for i, line := range lines {
		updated, ok := markdown.SetCheckbox(line, checked)
		if !ok {
			continue
		}
		if count == ordinal {
			out := make([]string, len(lines))
			copy(out, lines)
			out[i] = updated
			return out, i, nil
		}
		count++
	}
	return lines, -1, &ToggleError{Ordinal: ordinal, Count: count}
}

// Assignment pairs a checkbox with the ordinal it was given.
type Assignment struct {
	Ordinal  int
	Checkbox host.Checkbox
}

// Mapper assigns ordinals and applies toggles.
type Mapper struct {
	diag Diagnostics

	toggled atomic.Uint64
	dropped atomic.Uint64
}

// NewMapper creates a mapper. diag may be nil.
func NewMapper(diag Diagnostics) *Mapper {
	return &Mapper{diag: diag}
}

// Enumerate gives every checkbox its position in boxes as ordinal and
// returns the ones not yet marked in reg, marking them. A checkbox is
// returned at most once for the lifetime of its node, so its ordinal is
// never reassigned.
func (m *Mapper) Enumerate(boxes []host.Checkbox, reg *registry.Registry[host.Node]) []Assignment {
	var out []Assignment
	for i, cb := range boxes {
		if cb == nil || !reg.TryMark(cb.Node()) {
			continue
		}
		out = append(out, Assignment{Ordinal: i, Checkbox: cb})
	}
	return out
}

// Toggle sets the ordinal-th checkbox line of buf. An out-of-range ordinal
// leaves buf untouched and returns a *ToggleError.
func (m *Mapper) Toggle(buf Buffer, ordinal int, checked bool) error {
	lines, line, err := ToggleLines(buf.Lines(), ordinal, checked)
	if err != nil {
		m.dropped.Add(1)
		if m.diag != nil {
			m.diag.Debug("checkbox: dropped toggle: %v", err)
		}
		return err
	}
	if err := buf.WriteLines(lines); err != nil {
		m.dropped.Add(1)
		return err
	}
	m.toggled.Add(1)
	if m.diag != nil {
		m.diag.Debug("checkbox: ordinal %d -> line %d checked=%t", ordinal, line, checked)
	}
	return nil
}

// Stats returns the number of applied and dropped toggles.
func (m *Mapper) Stats() (toggled, dropped uint64) {
	return m.toggled.Load(), m.dropped.Load()
}
