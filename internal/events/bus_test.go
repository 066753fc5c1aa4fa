package events_test

import (
	"testing"
	"time"

	"github.com/quantpit/pitboss/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_DeliversToSubscriber(t *testing.T) {
	bus := events.NewBus(10)
	ch, cancel := bus.Subscribe(4)
	defer cancel()

	bus.Publish(events.Event{Type: events.TypeSignal, Symbol: "AAPL"})

	select {
	case evt := <-ch:
		assert.Equal(t, events.TypeSignal, evt.Type)
		assert.Equal(t, "AAPL", evt.Symbol)
		assert.False(t, evt.Time.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublish_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := events.NewBus(10)
	_, cancel := bus.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			bus.Publish(events.Event{Type: events.TypeScanCycle})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestRecent_ReturnsOldestFirstAndBounded(t *testing.T) {
	bus := events.NewBus(3)

	for _, sym := range []string{"A", "B", "C", "D", "E"} {
		bus.Publish(events.Event{Type: events.TypeSignal, Symbol: sym})
	}

	recent := bus.Recent(10)
	require.Len(t, recent, 3)
	assert.Equal(t, "C", recent[0].Symbol)
	assert.Equal(t, "E", recent[2].Symbol)

	last := bus.Recent(1)
	require.Len(t, last, 1)
	assert.Equal(t, "E", last[0].Symbol)
}

func TestSubscribe_CancelStopsDelivery(t *testing.T) {
	bus := events.NewBus(10)
	ch, cancel := bus.Subscribe(4)

	cancel()
	bus.Publish(events.Event{Type: events.TypeSignal})

	_, open := <-ch
	assert.False(t, open)
}

func TestPublish_PreservesExplicitTimestamp(t *testing.T) {
	bus := events.NewBus(10)
	when := time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC)

	bus.Publish(events.Event{Type: events.TypeSignal, Time: when})

	recent := bus.Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, when, recent[0].Time)
}
