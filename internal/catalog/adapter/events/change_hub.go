package events

import (
	"context"
	"sync"

	"franchise-catalog/internal/catalog/domain/model"
	"franchise-catalog/internal/shared/eventbus"
	"franchise-catalog/internal/shared/logger"
	"franchise-catalog/internal/shared/metrics"
)

// DefaultHubBuffer is the per-subscriber queue length
const DefaultHubBuffer = 64

// ChangeHub fans change events published on the bus out to live subscribers. Each subscriber gets
// its own copy of the event. A subscriber whose queue is full misses events rather than stalling
// the publisher.
type ChangeHub struct {
	mu          sync.RWMutex
	subscribers map[string]chan *model.ChangeEvent
	buffer      int
	logger      logger.Logger
}

// NewChangeHub creates a hub and subscribes it to every event on bus
func NewChangeHub(bus eventbus.Bus, buffer int, log logger.Logger) *ChangeHub {
	if buffer <= 0 {
		buffer = DefaultHubBuffer
	}
	hub := &ChangeHub{
		subscribers: make(map[string]chan *model.ChangeEvent),
		buffer:      buffer,
		logger:      log.WithComponent("change_hub"),
	}
	bus.Subscribe(eventbus.Wildcard, hub.handle)
	return hub
}

func (h *ChangeHub) handle(ctx context.Context, event eventbus.Event) error {
	change, ok := ChangeEventOf(event)
	if !ok {
		return nil
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subscribers {
		copied := *change
		select {
		case ch <- &copied:
		default:
			metrics.LiveEventsDropped.Inc()
			h.logger.WithFields(map[string]interface{}{
				"subscriber_id": id,
				"event_type":    change.EventType(),
			}).Warn("Live subscriber is behind, dropping change event")
		}
	}
	return nil
}

// Subscribe registers id and returns its event channel and a cancel func.
// Cancel closes the channel; calling it more than once is safe.
func (h *ChangeHub) Subscribe(id string) (<-chan *model.ChangeEvent, func()) {
	ch := make(chan *model.ChangeEvent, h.buffer)

	h.mu.Lock()
	if previous, exists := h.subscribers[id]; exists {
		close(previous)
	} else {
		metrics.LiveSubscribers.Inc()
	}
	h.subscribers[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if current, ok := h.subscribers[id]; ok && current == ch {
				delete(h.subscribers, id)
				close(ch)
				metrics.LiveSubscribers.Dec()
			}
		})
	}
	return ch, cancel
}

// Count returns the number of live subscribers
func (h *ChangeHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close drops every subscriber
func (h *ChangeHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
		metrics.LiveSubscribers.Dec()
	}
}
