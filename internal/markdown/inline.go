package markdown

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// inlineRules are applied in order. Bold runs before italic so "**x**" is
// not consumed as two italics.
var inlineRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\*\*(.+?)\*\*`), "$1"},
	{regexp.MustCompile(`__(.+?)__`), "$1"},
	{regexp.MustCompile(`\*(.+?)\*`), "$1"},
	{regexp.MustCompile(`_(.+?)_`), "$1"},
	{regexp.MustCompile(`~~(.+?)~~`), "$1"},
	{regexp.MustCompile("`([^`]+)`"), "$1"},
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "$1"},
}

// StripInline removes common inline decorations from text and trims the
// result: **bold**, __bold__, *italic*, _italic_, ~~strike~~, `code` and
// [text](url) links.
func StripInline(text string) string {
	for _, r := range inlineRules {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	return strings.TrimSpace(text)
}

// CommonPrefixLen returns the byte length of the longest common prefix of
// a and b. The result never splits a UTF-8 sequence.
func CommonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) {
		ra, sa := utf8.DecodeRuneInString(a[n:])
		rb, sb := utf8.DecodeRuneInString(b[n:])
		if ra != rb || sa != sb {
			break
		}
		n += sa
	}
	return n
}

// CommonSuffixLen returns the byte length of the longest common suffix of
// a and b that does not overlap the first prefixLen bytes of either string.
func CommonSuffixLen(a, b string, prefixLen int) int {
	n := 0
	for n < len(a)-prefixLen && n < len(b)-prefixLen {
		ra, sa := utf8.DecodeLastRuneInString(a[:len(a)-n])
		rb, sb := utf8.DecodeLastRuneInString(b[:len(b)-n])
		if ra != rb || sa != sb {
			break
		}
		if n+sa > len(a)-prefixLen || n+sb > len(b)-prefixLen {
			break
		}
		n += sa
	}
	return n
}

// ChangedSpan narrows an edit of original into current to the span that
// actually differs. The shared prefix and suffix are assumed unedited.
func ChangedSpan(original, current string) (oldSub, newSub string) {
	p := CommonPrefixLen(original, current)
	s := CommonSuffixLen(original, current, p)
	return original[p : len(original)-s], current[p : len(current)-s]
}
