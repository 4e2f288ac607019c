package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/previewsync/internal/markdown"
)

// ErrNoMatchFound is returned when no source line corresponds to the edit.
var ErrNoMatchFound = errors.New("no matching source line")

// MatchError carries the anchor that could not be located.
type MatchError struct {
	Anchor string
}

// Error implements the error interface.
func (e *MatchError) Error() string {
	return fmt.Sprintf("%v for %q", ErrNoMatchFound, e.Anchor)
}

// Unwrap returns ErrNoMatchFound.
func (e *MatchError) Unwrap() error {
	return ErrNoMatchFound
}

// Mode records how a line was matched.
type Mode int

const (
	// ModeNone means nothing was written.
	ModeNone Mode = iota
	// ModeDirect is a verbatim anchor match.
	ModeDirect
	// ModeSpan is a decorated match where only the changed span was
	// replaced.
	ModeSpan
	// ModeFallback is a decorated match where the content after the
	// structural prefix was rewritten.
	ModeFallback
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeDirect:
		return "direct"
	case ModeSpan:
		return "span"
	case ModeFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Result describes a reconciliation.
type Result struct {
	Mode    Mode
	Line    int // index of the rewritten line, -1 if none
	OldLine string
	NewLine string
}

// Changed reports whether a line was rewritten.
func (r Result) Changed() bool {
	return r.Mode != ModeNone
}

// Lines applies an edit of anchor into current to lines. The input slice is
// not modified. When the anchor is empty or equals current, lines is
// returned unchanged with ModeNone.
func Lines(lines []string, anchor, current string) ([]string, Result, error) {
	none := Result{Mode: ModeNone, Line: -1}
	if anchor == "" || anchor == current {
		return lines, none, nil
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.Contains(trimmed, anchor) {
			return replaceLine(lines, i, strings.Replace(line, anchor, current, 1), ModeDirect)
		}

		stripped := markdown.StripInline(trimmed)
		if stripped != anchor && !strings.Contains(stripped, anchor) {
			continue
		}

		oldSub, newSub := markdown.ChangedSpan(anchor, current)
		if oldSub != "" && strings.Contains(line, oldSub) {
			return replaceLine(lines, i, strings.Replace(line, oldSub, newSub, 1), ModeSpan)
		}
		return replaceLine(lines, i, markdown.StructuralPrefix(line)+current, ModeFallback)
	}

	return lines, none, &MatchError{Anchor: anchor}
}

func replaceLine(lines []string, i int, newLine string, mode Mode) ([]string, Result, error) {
	out := make([]string, len(lines))
	copy(out, lines)
	out[i] = newLine
	return out, Result{Mode: mode, Line: i, OldLine: lines[i], NewLine: newLine}, nil
}
