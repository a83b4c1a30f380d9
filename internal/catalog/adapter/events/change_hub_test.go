package events

import (
	"context"
	"testing"

	"franchise-catalog/internal/catalog/domain/model"
	"franchise-catalog/internal/shared/eventbus"
	"franchise-catalog/internal/shared/logger"
	"franchise-catalog/internal/shared/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestChangeHub_FansOutToEverySubscriber(t *testing.T) {
	log := logger.NewZapLoggerFrom(zaptest.NewLogger(t))
	bus := eventbus.NewEventBus(log)
	hub := NewChangeHub(bus, 4, log)

	first, cancelFirst := hub.Subscribe("a")
	defer cancelFirst()
	second, cancelSecond := hub.Subscribe("b")
	defer cancelSecond()
	assert.Equal(t, 2, hub.Count())

	event := productEvent(model.ActionUpdated, "p-1")
	require.NoError(t, bus.Publish(context.Background(), NewChangeMessage(event)))

	a, b := <-first, <-second
	assert.Equal(t, *event, *a)
	assert.Equal(t, *event, *b)
	assert.NotSame(t, event, a)
	assert.NotSame(t, a, b)
}

func TestChangeHub_IgnoresForeignEvents(t *testing.T) {
	log := logger.NewZapLoggerFrom(zaptest.NewLogger(t))
	bus := eventbus.NewEventBus(log)
	hub := NewChangeHub(bus, 1, log)
	ch, cancel := hub.Subscribe("a")
	defer cancel()

	require.NoError(t, bus.Publish(context.Background(), eventbus.NewBasicEvent("user.created", nil, "auth")))
	assert.Empty(t, ch)
}

func TestChangeHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	log := logger.NewZapLoggerFrom(zaptest.NewLogger(t))
	bus := eventbus.NewEventBus(log)
	hub := NewChangeHub(bus, 1, log)
	ch, cancel := hub.Subscribe("slow")
	defer cancel()

	dropped := testutil.ToFloat64(metrics.LiveEventsDropped)
	require.NoError(t, bus.Publish(context.Background(), NewChangeMessage(productEvent(model.ActionCreated, "p-1"))))
	require.NoError(t, bus.Publish(context.Background(), NewChangeMessage(productEvent(model.ActionCreated, "p-2"))))

	assert.Equal(t, dropped+1, testutil.ToFloat64(metrics.LiveEventsDropped))
	got := <-ch
	assert.Equal(t, "p-1", got.EntityID)
}

func TestChangeHub_CancelClosesChannelOnce(t *testing.T) {
	log := logger.NewZapLoggerFrom(zaptest.NewLogger(t))
	hub := NewChangeHub(eventbus.NewEventBus(log), 1, log)
	gauge := testutil.ToFloat64(metrics.LiveSubscribers)

	ch, cancel := hub.Subscribe("a")
	assert.Equal(t, gauge+1, testutil.ToFloat64(metrics.LiveSubscribers))
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, hub.Count())
	assert.Equal(t, gauge, testutil.ToFloat64(metrics.LiveSubscribers))
}

func TestChangeHub_ResubscribeReplacesChannel(t *testing.T) {
	log := logger.NewZapLoggerFrom(zaptest.NewLogger(t))
	hub := NewChangeHub(eventbus.NewEventBus(log), 1, log)

	old, cancelOld := hub.Subscribe("a")
	fresh, cancelFresh := hub.Subscribe("a")
	defer cancelFresh()

	_, open := <-old
	assert.False(t, open)

	cancelOld()
	assert.Equal(t, 1, hub.Count())

	hub.Close()
	_, open = <-fresh
	assert.False(t, open)
	assert.Zero(t, hub.Count())
}
