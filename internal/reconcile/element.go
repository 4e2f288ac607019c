package reconcile

import (
	"strings"

	"github.com/dshills/previewsync/internal/host"
)

// ElementNode adapts a rendered element to Node. The anchor lives in the
// element's DataOriginalText attribute, so the engine keeps no state of its
// own per element.
type ElementNode struct {
	host.Element
}

// Anchor returns the last synced text.
func (n ElementNode) Anchor() string {
	v, _ := n.Data(host.DataOriginalText)
	return v
}

// SetAnchor records text as the last synced text.
func (n ElementNode) SetAnchor(text string) {
	n.SetData(host.DataOriginalText, text)
}

// Dirty reports whether the element's trimmed text differs from a
// non-empty anchor.
func Dirty(el host.Element) bool {
	anchor, _ := el.Data(host.DataOriginalText)
	return anchor != "" && anchor != strings.TrimSpace(el.Text())
}
