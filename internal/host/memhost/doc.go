// Package memhost is an in-memory host document.
//
// A Document holds editing forms. Each form owns a source field, a preview
// tab and a preview body. Selecting the preview renders the field's
// markdown with goldmark (GitHub flavoured, with task lists) into a flat,
// document-ordered set of elements: paragraphs, headings, list items and
// task items with their checkboxes.
//
// Structural changes, submits and field notifications are published on an
// event bus, which is how the sync engine observes the document. The
// document is not safe for concurrent use; callers serialize access.
package memhost
