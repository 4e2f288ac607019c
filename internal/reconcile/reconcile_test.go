package reconcile

import (
	"errors"
	"strings"
	"testing"
)

func TestLines(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		anchor   string
		current  string
		wantLine int
		want     string
		mode     Mode
	}{
		{
			name:     "direct match in plain paragraph",
			lines:    []string{"# Title", "", "Hello world"},
			anchor:   "Hello world",
			current:  "Hello there",
			wantLine: 2,
			want:     "Hello there",
			mode:     ModeDirect,
		},
		{
			name:     "direct match keeps heading prefix",
			lines:    []string{"## Old Heading"},
			anchor:   "Old Heading",
			current:  "New Heading",
			wantLine: 0,
			want:     "## New Heading",
			mode:     ModeDirect,
		},
		{
			name:     "decorated match replaces only the changed token",
			lines:    []string{"intro", "This is **bold** text"},
			anchor:   "This is bold text",
			current:  "This is bold word",
			wantLine: 1,
			want:     "This is **bold** word",
			mode:     ModeSpan,
		},
		{
			name:     "decorated match inside a link",
			lines:    []string{"- see [the docs](https://x.dev) now"},
			anchor:   "see the docs now",
			current:  "see the guide now",
			wantLine: 0,
			want:     "- see [the guide](https://x.dev) now",
			mode:     ModeSpan,
		},
		{
			name:     "pure insertion falls back to structural prefix",
			lines:    []string{"## **Old** Heading"},
			anchor:   "Old Heading",
			current:  "Old Heading!",
			wantLine: 0,
			want:     "## Old Heading!",
			mode:     ModeFallback,
		},
		{
			name:     "changed span absent from raw line falls back",
			lines:    []string{"> a *b*c d"},
			anchor:   "a bc d",
			current:  "a x d",
			wantLine: 0,
			want:     "> a x d",
			mode:     ModeFallback,
		},
		{
			name:     "task line fallback keeps checkbox",
			lines:    []string{"- [x] ship *it*"},
			anchor:   "ship it",
			current:  "ship it!",
			wantLine: 0,
			want:     "- [x] ship it!",
			mode:     ModeFallback,
		},
		{
			name:     "first matching line wins",
			lines:    []string{"repeat", "repeat"},
			anchor:   "repeat",
			current:  "changed",
			wantLine: 0,
			want:     "changed",
			mode:     ModeDirect,
		},
		{
			name:     "blank lines are skipped",
			lines:    []string{"   ", "\t", "text"},
			anchor:   "text",
			current:  "more text",
			wantLine: 2,
			want:     "more text",
			mode:     ModeDirect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := append([]string(nil), tt.lines...)
			got, res, err := Lines(tt.lines, tt.anchor, tt.current)
			if err != nil {
				t.Fatalf("Lines() error = %v", err)
			}
			if res.Mode != tt.mode {
				t.Errorf("Mode = %v, want %v", res.Mode, tt.mode)
			}
			if res.Line != tt.wantLine {
				t.Fatalf("Line = %d, want %d", res.Line, tt.wantLine)
			}
			if got[tt.wantLine] != tt.want {
				t.Errorf("line = %q, want %q", got[tt.wantLine], tt.want)
			}
			for i := range got {
				if i != tt.wantLine && got[i] != before[i] {
					t.Errorf("unrelated line %d changed: %q -> %q", i, before[i], got[i])
				}
			}
			if strings.Join(tt.lines, "\n") != strings.Join(before, "\n") {
				t.Error("input slice was modified")
			}
		})
	}
}

func TestLinesFirstLineWins(t *testing.T) {
	// A decorated match on an earlier line beats a verbatim one later.
	lines := []string{"**Buy** milk", "Buy milk"}
	got, res, err := Lines(lines, "Buy milk", "Buy bread")
	if err != nil {
		t.Fatal(err)
	}
	if res.Line != 0 || res.Mode != ModeSpan || got[0] != "**Buy** bread" {
		t.Errorf("got line %d mode %v %q", res.Line, res.Mode, got[res.Line])
	}
	if got[1] != "Buy milk" {
		t.Errorf("later line changed: %q", got[1])
	}
}

func TestLinesDirectBeforeDecoratedOnSameLine(t *testing.T) {
	lines := []string{"plain *x* plain"}
	got, res, err := Lines(lines, "plain", "PLAIN")
	if err != nil {
		t.Fatal(err)
	}
	if res.Mode != ModeDirect || got[0] != "PLAIN *x* plain" {
		t.Errorf("got mode %v %q, want direct", res.Mode, got[0])
	}
}

func TestLinesNoop(t *testing.T) {
	lines := []string{"a"}
	for _, tc := range []struct{ anchor, current string }{{"", "x"}, {"a", "a"}} {
		got, res, err := Lines(lines, tc.anchor, tc.current)
		if err != nil || res.Changed() || res.Line != -1 || got[0] != "a" {
			t.Errorf("Lines(%q, %q) = %v, %+v, %v; want no-op", tc.anchor, tc.current, got, res, err)
		}
	}
}

func TestLinesNoMatch(t *testing.T) {
	lines := []string{"one", "two"}
	got, res, err := Lines(lines, "three", "four")
	if !errors.Is(err, ErrNoMatchFound) {
		t.Fatalf("err = %v, want ErrNoMatchFound", err)
	}
	var me *MatchError
	if !errors.As(err, &me) || me.Anchor != "three" {
		t.Errorf("err = %v, want MatchError for anchor three", err)
	}
	if res.Changed() || got[0] != "one" || got[1] != "two" {
		t.Errorf("lines changed on failure: %v", got)
	}
}
