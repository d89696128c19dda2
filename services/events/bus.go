package events

import (
	"sync"
	"sync/atomic"
	"time"

	"slotify/models"
	"slotify/utils"

	"go.uber.org/zap"
)

// Bus is the in-process fan-out from the state machine to subscribers.
// Publish is called strictly after the originating transaction commits, so
// the correlation ids it assigns follow commit order. Each subscriber owns a
// bounded channel; a subscriber that stops draining loses events (logged and
// counted) rather than stalling booking requests.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]chan models.Event
	seq    atomic.Uint64
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]chan models.Event)}
}

// Subscribe registers a named subscriber with its own buffer. Subscribing
// twice under one name replaces the old channel.
func (b *Bus) Subscribe(name string, buffer int) <-chan models.Event {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan models.Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.subs[name]; ok {
		close(old)
	}
	b.subs[name] = ch
	return ch
}

// Unsubscribe closes and removes the named subscriber channel.
func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[name]; ok {
		close(ch)
		delete(b.subs, name)
	}
}

// Publish stamps the event with a monotonic correlation id and fans it out.
func (b *Bus) Publish(ev models.Event) {
	ev.CorrelationID = b.seq.Add(1)
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	utils.EventsPublished.WithLabelValues(string(ev.Type)).Inc()
	for name, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			utils.GetLogger().Warn("event dropped, subscriber buffer full",
				zap.String("subscriber", name),
				zap.String("type", string(ev.Type)),
				zap.Uint64("correlationID", ev.CorrelationID),
				zap.Int64("bookingID", ev.BookingID))
		}
	}
}

// Close shuts every subscriber channel; further publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = map[string]chan models.Event{}
}
