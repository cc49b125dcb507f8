package eventbus_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/spendflow/pkg/eventbus"
)

type createdEvent struct {
	ID int
}

type deletedEvent struct {
	ID int
}

func newBus() eventbus.EventBus {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return eventbus.NewEventPublisher(logger)
}

func TestMatchSignature(t *testing.T) {
	onCreated := func(e *createdEvent) {}
	onPair := func(e *createdEvent, n int) {}

	assert.True(t, eventbus.MatchSignature(onCreated, []interface{}{&createdEvent{}}))
	assert.False(t, eventbus.MatchSignature(onCreated, []interface{}{&deletedEvent{}}))
	assert.False(t, eventbus.MatchSignature(onCreated, []interface{}{&createdEvent{}, 1}))
	assert.True(t, eventbus.MatchSignature(onPair, []interface{}{&createdEvent{}, 1}))
	assert.True(t, eventbus.MatchSignature(onCreated, []interface{}{nil}))
	assert.False(t, eventbus.MatchSignature("not a func", []interface{}{&createdEvent{}}))
}

func TestPublishRoutesByType(t *testing.T) {
	bus := newBus()

	var created, deleted int
	bus.Subscribe(func(e *createdEvent) { created = e.ID })
	bus.Subscribe(func(e *deletedEvent) { deleted = e.ID })

	bus.Publish(&createdEvent{ID: 7})
	assert.Equal(t, 7, created)
	assert.Zero(t, deleted)

	bus.Publish(&deletedEvent{ID: 3})
	assert.Equal(t, 3, deleted)
}

func TestPublishSurvivesPanickingHandler(t *testing.T) {
	bus := newBus()

	var delivered bool
	bus.Subscribe(func(e *createdEvent) { panic("boom") })
	bus.Subscribe(func(e *createdEvent) { delivered = true })

	require.NotPanics(t, func() {
		bus.Publish(&createdEvent{ID: 1})
	})
	assert.True(t, delivered)
}

func TestUnsubscribeAndClear(t *testing.T) {
	bus := newBus()

	var count int
	handler := func(e *createdEvent) { count++ }
	bus.Subscribe(handler)
	require.Equal(t, 1, bus.SubscribersCount())

	bus.Publish(&createdEvent{})
	bus.Unsubscribe(handler)
	bus.Publish(&createdEvent{})
	assert.Equal(t, 1, count)

	bus.Subscribe(handler)
	bus.Clear()
	assert.Zero(t, bus.SubscribersCount())
}
