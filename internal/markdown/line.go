package markdown

import (
	"regexp"
	"strings"
)

var (
	// checkboxLine matches a task list line. Group 1 is the list prefix,
	// group 2 the marker state and group 3 the trailing text.
	checkboxLine = regexp.MustCompile(`^(\s*[-*]\s+)\[([ xX])\](\s*.*)$`)

	// structuralPrefix matches the block-level prefix of a line.
	structuralPrefix = regexp.MustCompile(`^(\s*(?:#{1,6}\s+|[-*]\s+(?:\[[xX ]\]\s*)?|>\s*))`)
)

// Checkbox is a parsed checkbox line.
type Checkbox struct {
	Prefix  string // list bullet and indentation, e.g. "  - "
	Checked bool
	Marker  byte // ' ', 'x' or 'X'
	Rest    string
}

// String reassembles the line.
func (c Checkbox) String() string {
	return c.Prefix + "[" + string(c.Marker) + "]" + c.Rest
}

// MatchCheckbox parses line as a checkbox line.
func MatchCheckbox(line string) (Checkbox, bool) {
	m := checkboxLine.FindStringSubmatch(line)
	if m == nil {
		return Checkbox{}, false
	}
	marker := m[2][0]
	return Checkbox{
		Prefix:  m[1],
		Checked: marker == 'x' || marker == 'X',
		Marker:  marker,
		Rest:    m[3],
	}, true
}

// IsCheckboxLine reports whether line matches the checkbox pattern.
func IsCheckboxLine(line string) bool {
	return checkboxLine.MatchString(line)
}

// SetCheckbox rewrites only the marker token of a checkbox line. Checked
// lines are written as "[x]". The prefix and trailing text are preserved
// byte for byte. ok is false when line is not a checkbox line.
func SetCheckbox(line string, checked bool) (string, bool) {
	cb, ok := MatchCheckbox(line)
	if !ok {
		return line, false
	}
	cb.Marker = ' '
	if checked {
		cb.Marker = 'x'
	}
	cb.Checked = checked
	return cb.String(), true
}

// CheckboxLines returns the indexes of all checkbox lines in document order.
func CheckboxLines(lines []string) []int {
	var idx []int
	for i, line := range lines {
		if checkboxLine.MatchString(line) {
			idx = append(idx, i)
		}
	}
	return idx
}

// StructuralPrefix returns the heading, list (with optional checkbox) or
// quote prefix of line, or "" when the line has none.
func StructuralPrefix(line string) string {
	m := structuralPrefix.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}

// SplitLines splits buffer text on "\n".
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// JoinLines joins lines with "\n".
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
