package event

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Bus is the event bus interface.
type Bus interface {
	// Publish delivers event to every matching subscription, in priority
	// order, before returning. Handler errors are joined into the result;
	// a failing handler does not stop delivery to the rest.
	Publish(ctx context.Context, event any) error

	Subscribe(pattern Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error)
	SubscribeFunc(pattern Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error)
	Unsubscribe(sub Subscription) error

	Stats() Stats
}

// bus is the default Bus implementation.
type bus struct {
	mu   sync.RWMutex
	subs []*subscription
	seq  uint64

	panicHandler PanicHandler

	eventsPublished  atomic.Uint64
	handlersExecuted atomic.Uint64
	handlerErrors    atomic.Uint64
	handlerPanics    atomic.Uint64
}

// PanicHandler is called when a handler panics.
type PanicHandler func(event any, recovered any)

// BusOption configures an event Bus.
type BusOption func(*bus)

// WithPanicHandler sets the panic handler for the bus.
func WithPanicHandler(h PanicHandler) BusOption {
	return func(b *bus) {
		b.panicHandler = h
	}
}

// NewBus creates a new event bus.
func NewBus(opts ...BusOption) Bus {
	b := &bus{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers an event synchronously.
func (b *bus) Publish(ctx context.Context, event any) error {
	eventTopic := extractTopic(event)
	if eventTopic == "" {
		return ErrInvalidEvent
	}

	subs := b.match(eventTopic)
	b.eventsPublished.Add(1)

	var errs []error
	for _, sub := range subs {
		if !sub.shouldDeliver(event) {
			continue
		}
		err := b.dispatch(ctx, event, sub)
		b.handlersExecuted.Add(1)
		if err != nil {
			b.handlerErrors.Add(1)
			errs = append(errs, &HandlerError{SubscriptionID: sub.id, Topic: eventTopic, Err: err})
			continue
		}
		if sub.config.Once {
			sub.Cancel()
			b.remove(sub.id)
		}
	}
	return errors.Join(errs...)
}

// dispatch runs one handler, converting a panic into an error.
func (b *bus) dispatch(ctx context.Context, event any, sub *subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			if b.panicHandler != nil {
				b.panicHandler(event, r)
			}
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return sub.handler.Handle(ctx, event)
}

// match returns the active subscriptions for t in delivery order. The
// returned slice is a snapshot, so handlers may subscribe or publish.
func (b *bus) match(t Topic) []*subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*subscription
	for _, sub := range b.subs {
		if sub.IsActive() && t.Matches(sub.topic) {
			out = append(out, sub)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].config.Priority != out[j].config.Priority {
			return out[i].config.Priority < out[j].config.Priority
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Subscribe creates a new subscription for the given topic pattern.
func (b *bus) Subscribe(pattern Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if pattern == "" {
		return nil, ErrInvalidTopic
	}

	config := DefaultSubscriptionConfig()
	for _, opt := range opts {
		opt(&config)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	sub := &subscription{
		id:      uuid.NewString(),
		seq:     b.seq,
		topic:   pattern,
		handler: handler,
		config:  config,
	}
	b.subs = append(b.subs, sub)
	return sub, nil
}

// SubscribeFunc is a convenience method for subscribing with a function handler.
func (b *bus) SubscribeFunc(pattern Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, fn, opts...)
}

// Unsubscribe removes a subscription.
func (b *bus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return ErrInvalidSubscription
	}
	sub.Cancel()
	if !b.remove(sub.ID()) {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (b *bus) remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Stats returns current bus statistics.
func (b *bus) Stats() Stats {
	b.mu.RLock()
	active := 0
	for _, sub := range b.subs {
		if sub.IsActive() {
			active++
		}
	}
	b.mu.RUnlock()

	return Stats{
		EventsPublished:   b.eventsPublished.Load(),
		HandlersExecuted:  b.handlersExecuted.Load(),
		HandlerErrors:     b.handlerErrors.Load(),
		HandlerPanics:     b.handlerPanics.Load(),
		ActiveSubscribers: active,
	}
}

// extractTopic extracts the topic from an event.
func extractTopic(event any) Topic {
	if tp, ok := event.(TopicProvider); ok {
		return tp.EventTopic()
	}
	return ""
}
