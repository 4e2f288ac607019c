// Package script runs Lua edit scripts against a session's rendered
// preview.
//
// Scripts act like a user of the preview: they type into rendered
// elements, click checkboxes, blur and submit, and move the session's
// virtual clock. Every function works on the current form, the first one
// unless form(n) selected another.
//
//	edit(target, text)   type text into the element whose text is target
//	blur(target)         blur that element, writing it back at once
//	toggle(n)            click the n-th rendered checkbox (1-based)
//	submit()             submit the form; pending edits are flushed first
//	advance(d)           move the clock by d ("300ms" or milliseconds)
//	flush()              write back every pending edit now
//	scan()               run a scan; returns {containers, checkboxes, editables}
//	text()               the form's markdown source
//	elements()           texts of the rendered text elements
//	checkboxes()         checked states of the rendered checkboxes
//	nodes()              number of enhanced nodes alive
//	form(n)              select the n-th form (1-based)
//	log(msg)             write msg to the session log
//
// Scripts run in a sandbox: only the base, string, table and math
// libraries are open, and file loading functions are removed.
//
// Example:
//
//	edit("Hello world", "Hello there")
//	advance("300ms")
//	toggle(1)
//	assert(text():find("- %[x%]"))
//	submit()
package script
