// Package event provides the synchronous event bus that connects the host
// document to the sync engine.
//
// Host tree mutations, form submission and buffer write notifications are
// all published as events. Delivery is synchronous, in the publisher's
// goroutine, which preserves the single-threaded model the engine relies on.
//
// # Topics
//
// Events use hierarchical topics with dot notation:
//
//	host.mutation         - the rendered tree changed
//	form.submit           - a form is being finalized
//	form.submit.click     - a submit button was clicked
//	buffer.input          - a source buffer was written (input notification)
//	buffer.change         - a source buffer was written (change notification)
//
// Subscriptions may use wildcards: "*" matches one segment and "**" matches
// zero or more segments, so "form.**" sees both submit topics.
//
// # Priority Ordering
//
// Handlers run in priority order, lowest value first, and in subscription
// order within a priority:
//
//   - Capture (-100): finalize guards that must see an event before anyone
//     else, like a DOM listener registered in the capture phase
//   - Critical (0)
//   - High (100)
//   - Normal (200): host consumers, default
//   - Low (300): diagnostics
//
// # Basic Usage
//
//	bus := event.NewBus()
//	bus.SubscribeFunc("form.submit", func(ctx context.Context, ev any) error {
//	    flushPendingEdits()
//	    return nil
//	}, event.WithPriority(event.PriorityCapture))
//
//	bus.Publish(ctx, event.NewEvent("form.submit", formID, "host"))
package event
