package events

import (
	"context"
	"errors"
	"testing"

	"franchise-catalog/internal/catalog/domain/model"
	"franchise-catalog/internal/shared/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []*model.ChangeEvent
	err    error
}

func (r *recordingPublisher) Publish(ctx context.Context, event *model.ChangeEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func TestBusPublisher_RoutesByEventType(t *testing.T) {
	bus := eventbus.NewEventBus(testLogger(t))
	publisher := NewBusPublisher(bus, testLogger(t))

	var seen *model.ChangeEvent
	bus.Subscribe("branch.deleted", func(ctx context.Context, event eventbus.Event) error {
		change, ok := ChangeEventOf(event)
		require.True(t, ok)
		seen = change
		assert.Equal(t, "catalog", event.Source())
		return nil
	})

	event := &model.ChangeEvent{Entity: model.EntityBranch, Action: model.ActionDeleted, EntityID: "b-1"}
	require.NoError(t, publisher.Publish(context.Background(), event))
	require.NotNil(t, seen)
	assert.Equal(t, "b-1", seen.EntityID)
	assert.False(t, seen.OccurredAt.IsZero())
}

func TestAttachStore_ForwardsEveryChange(t *testing.T) {
	bus := eventbus.NewEventBus(testLogger(t))
	store := &recordingPublisher{}
	AttachStore(bus, store, testLogger(t))
	publisher := NewBusPublisher(bus, testLogger(t))
	ctx := context.Background()

	require.NoError(t, publisher.Publish(ctx, &model.ChangeEvent{Entity: model.EntityFranchise, Action: model.ActionCreated}))
	require.NoError(t, publisher.Publish(ctx, &model.ChangeEvent{Entity: model.EntityProduct, Action: model.ActionUpdated}))
	require.NoError(t, bus.Publish(ctx, eventbus.NewBasicEvent("other", "x", "test")))

	require.Len(t, store.events, 2)
	assert.Equal(t, "franchise.created", store.events[0].EventType())
	assert.Equal(t, "product.updated", store.events[1].EventType())
}

func TestAttachStore_StoreFailureSurfaces(t *testing.T) {
	bus := eventbus.NewEventBus(testLogger(t))
	AttachStore(bus, &recordingPublisher{err: errors.New("down")}, testLogger(t))
	publisher := NewBusPublisher(bus, testLogger(t))

	err := publisher.Publish(context.Background(), &model.ChangeEvent{Entity: model.EntityProduct, Action: model.ActionDeleted})
	assert.Error(t, err)
}

func TestAttachStore_WithRedis(t *testing.T) {
	_, client := setupRedis(t)
	store := NewRedisChangeStore(client, "catalog:changes", 10, testLogger(t))
	bus := eventbus.NewEventBus(testLogger(t))
	AttachStore(bus, store, testLogger(t))
	ctx := context.Background()

	require.NoError(t, NewBusPublisher(bus, testLogger(t)).Publish(ctx,
		&model.ChangeEvent{Entity: model.EntityProduct, Action: model.ActionCreated, EntityID: "p-1"}))

	events, err := store.Since(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "p-1", events[0].EntityID)
}
