// Package reconcile maps an edit made on rendered text back onto the source
// line it came from.
//
// Rendered text has lost its inline decoration, so an exact search against
// the source usually fails. Lines are scanned in document order and the
// first line that matches wins:
//
//  1. Direct match: the trimmed line contains the anchor verbatim. The first
//     occurrence of the anchor is replaced with the new text.
//  2. Decorated match: the line with inline decoration stripped equals or
//     contains the anchor. The edit is narrowed to the span between the
//     common prefix and suffix of anchor and new text; when that span occurs
//     in the raw line only it is replaced, leaving decoration markers alone.
//     Otherwise everything after the line's structural prefix is replaced
//     with the new text.
//
// When no line matches, the buffer is left untouched and ErrNoMatchFound is
// returned for diagnostics.
package reconcile
