package transport

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// HandlerID identifies a single subscription so it can be removed later.
type HandlerID uint64

// Handler receives the typed payload of a published event.
type Handler func(payload any)

// EventBus is a named-event publish/subscribe hub. Multiple handlers may be
// registered per event; every registered handler receives every published
// payload (at-least-once delivery to subscribers). Registration and removal
// are symmetric: Subscribe returns an ID accepted by Unsubscribe, and Close
// drops every handler so none can run after its owner is torn down.
type EventBus struct {
	mu       sync.RWMutex
	nextID   HandlerID
	handlers map[string]map[HandlerID]Handler
	closed   bool
}

// NewEventBus creates an empty event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		nextID:   1,
		handlers: make(map[string]map[HandlerID]Handler),
	}
}

// Subscribe registers a handler for the named event and returns its ID.
func (b *EventBus) Subscribe(event string, handler Handler) HandlerID {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || handler == nil {
		return 0
	}

	id := b.nextID
	b.nextID++

	if b.handlers[event] == nil {
		b.handlers[event] = make(map[HandlerID]Handler)
	}
	b.handlers[event][id] = handler

	logrus.WithFields(logrus.Fields{
		"function":   "Subscribe",
		"event":      event,
		"handler_id": id,
	}).Debug("Event handler registered")

	return id
}

// Unsubscribe removes a previously registered handler. Unknown IDs are
// ignored so teardown paths can unconditionally unsubscribe.
func (b *EventBus) Unsubscribe(event string, id HandlerID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if set, ok := b.handlers[event]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(b.handlers, event)
		}
	}
}

// Publish delivers the payload to every handler registered for the event.
// Handlers run synchronously on the caller's goroutine, which keeps inbound
// backend events on a single serialized timeline.
func (b *EventBus) Publish(event string, payload any) {
	b.mu.RLock()
	set := b.handlers[event]
	handlers := make([]Handler, 0, len(set))
	for _, h := range set {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
}

// HandlerCount returns the number of handlers registered for an event.
func (b *EventBus) HandlerCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}

// Close drops all handlers and rejects further subscriptions.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.handlers = make(map[string]map[HandlerID]Handler)

	logrus.WithFields(logrus.Fields{
		"function": "Close",
	}).Debug("Event bus closed")
}
