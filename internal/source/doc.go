// Package source provides the markdown source buffer that rendered edits are
// written back into.
//
// A Buffer is a line view over a Store, the authoritative text holder (an
// in-memory string or a host text field). Reads always go to the store so
// edits made directly in the host field are never shadowed by a stale copy.
//
// Writes are wholesale: callers read every line, compute the full new line
// set and write it back in one call. After each write the buffer emits an
// "input" and then a "change" notification so host-side change detection
// observes the new value.
//
// Basic usage:
//
//	buf := source.NewBufferFromString("- [ ] one\n- [ ] two")
//	lines := buf.Lines()
//	lines[1] = "- [x] two"
//	buf.WriteLines(lines)
package source
