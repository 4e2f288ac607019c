// Package markdown holds the line-level markdown syntax used to map rendered
// preview content back onto source lines.
//
// Nothing here parses a document. The helpers operate on single lines:
//
//   - checkbox lines ("- [ ] task", "* [x] done") and their marker token
//   - the structural prefix of a line (heading hashes, list bullets with an
//     optional checkbox, blockquote markers)
//   - inline decoration stripping (bold, italic, strikethrough, code, links)
//   - rune-aware common prefix/suffix lengths between two strings
package markdown
