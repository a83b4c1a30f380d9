package events

import (
	"context"
	"fmt"
	"time"

	"franchise-catalog/internal/catalog/domain/model"
	"franchise-catalog/internal/catalog/domain/repository"
	"franchise-catalog/internal/shared/eventbus"
	"franchise-catalog/internal/shared/logger"
)

const eventSource = "catalog"

var _ repository.EventPublisher = (*BusPublisher)(nil)

// ChangeMessage carries a ChangeEvent over the event bus
type ChangeMessage struct {
	event *model.ChangeEvent
}

// NewChangeMessage wraps event for the bus
func NewChangeMessage(event *model.ChangeEvent) *ChangeMessage {
	return &ChangeMessage{event: event}
}

func (m *ChangeMessage) Type() string         { return m.event.EventType() }
func (m *ChangeMessage) Data() interface{}    { return m.event }
func (m *ChangeMessage) Timestamp() time.Time { return m.event.OccurredAt }
func (m *ChangeMessage) Source() string       { return eventSource }

// ChangeEventOf unwraps the ChangeEvent carried by a bus event
func ChangeEventOf(event eventbus.Event) (*model.ChangeEvent, bool) {
	change, ok := event.Data().(*model.ChangeEvent)
	return change, ok
}

// BusPublisher publishes catalog changes on the in-process event bus
type BusPublisher struct {
	bus    eventbus.Bus
	logger logger.Logger
}

// NewBusPublisher creates a publisher over bus
func NewBusPublisher(bus eventbus.Bus, log logger.Logger) *BusPublisher {
	return &BusPublisher{bus: bus, logger: log.WithComponent("change_publisher")}
}

func (p *BusPublisher) Publish(ctx context.Context, event *model.ChangeEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := p.bus.Publish(ctx, NewChangeMessage(event)); err != nil {
		return fmt.Errorf("publishing %s: %w", event.EventType(), err)
	}
	return nil
}

// AttachStore subscribes the store to every change published on bus
func AttachStore(bus eventbus.Bus, store repository.EventPublisher, log logger.Logger) {
	bus.Subscribe(eventbus.Wildcard, func(ctx context.Context, event eventbus.Event) error {
		change, ok := ChangeEventOf(event)
		if !ok {
			log.WithFields(map[string]interface{}{"event_type": event.Type()}).
				Debug("Ignoring non-catalog event")
			return nil
		}
		return store.Publish(ctx, change)
	})
}
