package events

import (
	"testing"
	"time"

	"slotify/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversInPublishOrder(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	ch := bus.Subscribe("orders", 16)

	for i := int64(1); i <= 5; i++ {
		bus.Publish(models.Event{Type: models.EventBookingHeld, BookingID: i})
	}

	var lastCorrelation uint64
	for i := int64(1); i <= 5; i++ {
		ev := <-ch
		assert.Equal(t, i, ev.BookingID)
		assert.Greater(t, ev.CorrelationID, lastCorrelation, "correlation ids are monotonic")
		lastCorrelation = ev.CorrelationID
		assert.False(t, ev.OccurredAt.IsZero(), "publish stamps the timestamp")
	}
}

func TestBusKeepsCallerTimestamp(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	ch := bus.Subscribe("ts", 1)

	at := time.Date(2026, 4, 7, 10, 0, 0, 0, time.UTC)
	bus.Publish(models.Event{Type: models.EventReminderDue, OccurredAt: at})
	ev := <-ch
	assert.Equal(t, at, ev.OccurredAt)
}

func TestBusFansOutToEverySubscriber(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	a := bus.Subscribe("a", 4)
	b := bus.Subscribe("b", 4)

	bus.Publish(models.Event{Type: models.EventBookingConfirmed, BookingID: 7})

	eva, evb := <-a, <-b
	assert.Equal(t, int64(7), eva.BookingID)
	assert.Equal(t, int64(7), evb.BookingID)
	assert.Equal(t, eva.CorrelationID, evb.CorrelationID, "one publish, one id")
}

func TestBusDropsWhenSubscriberBufferIsFull(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	slow := bus.Subscribe("slow", 2)
	keeper := bus.Subscribe("keeper", 8)

	for i := int64(1); i <= 4; i++ {
		bus.Publish(models.Event{Type: models.EventBookingHeld, BookingID: i})
	}

	// The slow subscriber kept the first two and lost the rest; the publisher
	// never blocked, and the healthy subscriber saw everything.
	assert.Equal(t, int64(1), (<-slow).BookingID)
	assert.Equal(t, int64(2), (<-slow).BookingID)
	select {
	case ev := <-slow:
		t.Fatalf("expected overflow to be dropped, got booking %d", ev.BookingID)
	default:
	}
	for i := int64(1); i <= 4; i++ {
		assert.Equal(t, i, (<-keeper).BookingID)
	}
}

func TestBusUnsubscribeClosesTheChannel(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	ch := bus.Subscribe("leaver", 1)

	bus.Unsubscribe("leaver")
	_, open := <-ch
	assert.False(t, open)

	// Publishing afterwards must not panic on the removed channel.
	bus.Publish(models.Event{Type: models.EventBookingHeld, BookingID: 1})
}

func TestBusResubscribeReplacesTheOldChannel(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	old := bus.Subscribe("worker", 1)
	fresh := bus.Subscribe("worker", 4)

	_, open := <-old
	require.False(t, open, "the replaced channel is closed")

	bus.Publish(models.Event{Type: models.EventBookingHeld, BookingID: 9})
	assert.Equal(t, int64(9), (<-fresh).BookingID)
}

func TestBusCloseIsIdempotentAndStopsPublishing(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe("c", 4)

	bus.Close()
	bus.Close()

	_, open := <-ch
	assert.False(t, open)

	// No panic, no delivery.
	bus.Publish(models.Event{Type: models.EventBookingHeld, BookingID: 1})
}

func TestBusDefaultsTinyBuffers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	ch := bus.Subscribe("dflt", 0)

	// A zero buffer would make the non-blocking send drop everything; the
	// bus substitutes its default instead.
	bus.Publish(models.Event{Type: models.EventBookingHeld, BookingID: 3})
	select {
	case ev := <-ch:
		assert.Equal(t, int64(3), ev.BookingID)
	default:
		t.Fatal("event should have been buffered")
	}
}
