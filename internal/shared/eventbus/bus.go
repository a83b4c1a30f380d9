package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"franchise-catalog/internal/shared/logger"

	"go.uber.org/zap"
)

// Wildcard subscribes a handler to every event type
const Wildcard = "*"

// Event is anything the bus can route by type
type Event interface {
	Type() string
	Data() interface{}
	Timestamp() time.Time
	Source() string
}

// Handler reacts to one published event
type Handler func(ctx context.Context, event Event) error

// Bus is the contract consumers of the event bus depend on
type Bus interface {
	Subscribe(eventType string, handler Handler)
	Publish(ctx context.Context, event Event) error
	Unsubscribe(eventType string)
	SubscriberCount(eventType string) int
}

// Option tunes an EventBus
type Option func(*EventBus)

// WithRetry retries a failing handler up to retries more times, waiting delay between attempts
func WithRetry(retries int, delay time.Duration) Option {
	return func(eb *EventBus) {
		if retries > 0 {
			eb.retries = retries
			eb.retryDelay = delay
		}
	}
}

// EventBus is a synchronous in-process bus.
// Every handler sees every event it subscribed to, even when an earlier handler fails.
// Wildcard handlers run after the typed ones.
type EventBus struct {
	mu         sync.RWMutex
	handlers   map[string][]Handler
	retries    int
	retryDelay time.Duration
	logger     logger.Logger
}

// NewEventBus creates a bus; a nil log discards the bus's own diagnostics
func NewEventBus(log logger.Logger, opts ...Option) *EventBus {
	if log == nil {
		log = logger.NewZapLoggerFrom(zap.NewNop())
	}
	eb := &EventBus{
		handlers: make(map[string][]Handler),
		logger:   log.WithComponent("eventbus"),
	}
	for _, opt := range opts {
		opt(eb)
	}
	return eb
}

func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.mu.Unlock()
	eb.logger.Debugf("Subscribed handler for %s", eventType)
}

// Publish runs the handlers in subscription order and joins their failures
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	handlers := append([]Handler(nil), eb.handlers[event.Type()]...)
	if event.Type() != Wildcard {
		handlers = append(handlers, eb.handlers[Wildcard]...)
	}
	eb.mu.RUnlock()

	var errs []error
	for i, handler := range handlers {
		if err := eb.deliver(ctx, event, handler); err != nil {
			eb.logger.WithFields(map[string]interface{}{
				"event_type": event.Type(),
				"handler":    i,
				"error":      err.Error(),
			}).Error("Event handler failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (eb *EventBus) deliver(ctx context.Context, event Event, handler Handler) error {
	err := handler(ctx, event)
	for attempt := 1; err != nil && attempt <= eb.retries; attempt++ {
		timer := time.NewTimer(eb.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		eb.logger.Warnf("Retrying %s handler (attempt %d/%d)", event.Type(), attempt+1, eb.retries+1)
		err = handler(ctx, event)
	}
	if err != nil {
		return fmt.Errorf("%s handler failed after %d attempt(s): %w", event.Type(), eb.retries+1, err)
	}
	return nil
}

// Unsubscribe removes every handler registered under eventType
func (eb *EventBus) Unsubscribe(eventType string) {
	eb.mu.Lock()
	delete(eb.handlers, eventType)
	eb.mu.Unlock()
}

func (eb *EventBus) SubscriberCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventType])
}

// BasicEvent carries an arbitrary payload under a given type
type BasicEvent struct {
	eventType string
	data      interface{}
	timestamp time.Time
	source    string
}

// NewBasicEvent creates an event stamped now
func NewBasicEvent(eventType string, data interface{}, source string) Event {
	return &BasicEvent{eventType: eventType, data: data, timestamp: time.Now().UTC(), source: source}
}

func (e *BasicEvent) Type() string         { return e.eventType }
func (e *BasicEvent) Data() interface{}    { return e.data }
func (e *BasicEvent) Timestamp() time.Time { return e.timestamp }
func (e *BasicEvent) Source() string       { return e.source }
