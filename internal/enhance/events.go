package enhance

import (
	"context"

	"github.com/dshills/previewsync/internal/event"
)

// EventSource is the Metadata.Source of events published by the enhancer.
const EventSource = "enhance"

// SyncEvent is the payload of sync.reconciled and sync.failed.
type SyncEvent struct {
	FormID string
	NodeID string
	Line   int
	Mode   string
	Err    string
}

// ToggleEvent is the payload of checkbox.toggled.
type ToggleEvent struct {
	FormID  string
	Ordinal int
	Checked bool
	Err     string
}

// EnhancedEvent is the payload of preview.enhanced.
type EnhancedEvent struct {
	FormID     string
	Checkboxes int
	Editables  int
}

func (e *Enhancer) publish(topic event.Topic, payload any) {
	if e.bus == nil {
		return
	}
	var ev any
	switch p := payload.(type) {
	case SyncEvent:
		ev = event.NewEvent(topic, p, EventSource)
	case ToggleEvent:
		ev = event.NewEvent(topic, p, EventSource)
	case EnhancedEvent:
		ev = event.NewEvent(topic, p, EventSource)
	default:
		ev = event.Envelope{Topic: topic, Payload: payload}
	}
	if err := e.bus.Publish(context.Background(), ev); err != nil {
		e.diag.Warn("enhance: publish %s: %v", topic, err)
	}
}
