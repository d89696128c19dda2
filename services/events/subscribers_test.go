package events

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"slotify/models"
	"slotify/services/catalog"
	"slotify/services/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentNotification struct {
	audience string
	template string
	data     map[string]string
	key      string
}

type recorderNotifier struct {
	mu    sync.Mutex
	calls []sentNotification
}

func (r *recorderNotifier) Send(ctx context.Context, audience, templateID string, data map[string]string, idempotencyKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, sentNotification{audience: audience, template: templateID, data: data, key: idempotencyKey})
	return nil
}

func (r *recorderNotifier) sent() []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sentNotification, len(r.calls))
	copy(out, r.calls)
	return out
}

func TestNotificationDispatch(t *testing.T) {
	starts := time.Date(2026, 4, 7, 11, 0, 0, 0, time.UTC)
	snap := &models.PricingSnapshot{FinalMinor: 2700, Currency: "USD"}

	tests := []struct {
		name     string
		ev       models.Event
		template string
		key      string
		data     map[string]string
	}{
		{
			name:     "confirmed carries the amount",
			ev:       models.Event{Type: models.EventBookingConfirmed, BookingID: 42, ClientID: "cli-1", StartsAt: starts, Pricing: snap},
			template: TemplateBookingConfirmed,
			key:      "confirmed:42",
			data: map[string]string{
				"booking_id": "42", "starts_at": "2026-04-07 11:00",
				"amount_minor": "2700", "currency": "USD",
			},
		},
		{
			name:     "invoice carries the payment link",
			ev:       models.Event{Type: models.EventInvoiceIssued, BookingID: 42, ClientID: "cli-1", StartsAt: starts, InvoiceURL: "https://pay.example.test/i/42"},
			template: TemplateInvoiceIssued,
			key:      "invoice:42",
			data: map[string]string{
				"booking_id": "42", "starts_at": "2026-04-07 11:00",
				"invoice_url": "https://pay.example.test/i/42",
			},
		},
		{
			name:     "hold expiry",
			ev:       models.Event{Type: models.EventHoldExpired, BookingID: 42, ClientID: "cli-1"},
			template: TemplateHoldExpired,
			key:      "expired:42",
			data:     map[string]string{"booking_id": "42"},
		},
		{
			name:     "cancellation names the reason",
			ev:       models.Event{Type: models.EventBookingCancelled, BookingID: 42, ClientID: "cli-1", Reason: models.CancelReasonClient},
			template: TemplateBookingCancelled,
			key:      "cancelled:42",
			data:     map[string]string{"booking_id": "42", "reason": "client"},
		},
		{
			name:     "payment failure reuses the cancellation template",
			ev:       models.Event{Type: models.EventPaymentFailed, BookingID: 42, ClientID: "cli-1", Reason: models.CancelReasonPaymentFailed},
			template: TemplateBookingCancelled,
			key:      "cancelled:42",
			data:     map[string]string{"booking_id": "42", "reason": "payment_failed"},
		},
		{
			name:     "reminder key includes the lead",
			ev:       models.Event{Type: models.EventReminderDue, BookingID: 42, ClientID: "cli-1", StartsAt: starts, LeadMinutes: 60},
			template: TemplateReminder,
			key:      "reminder:42:60",
			data:     map[string]string{"booking_id": "42", "starts_at": "2026-04-07 11:00"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorderNotifier{}
			sub := &NotificationSubscriber{Notifier: rec}
			require.NoError(t, sub.dispatch(context.Background(), tc.ev))

			calls := rec.sent()
			require.Len(t, calls, 1)
			assert.Equal(t, "cli-1", calls[0].audience)
			assert.Equal(t, tc.template, calls[0].template)
			assert.Equal(t, tc.key, calls[0].key)
			assert.Equal(t, tc.data, calls[0].data)
		})
	}
}

func TestNotificationDispatchSkipsAnonymousEvents(t *testing.T) {
	rec := &recorderNotifier{}
	sub := &NotificationSubscriber{Notifier: rec}

	// No client on the event, nobody to notify.
	require.NoError(t, sub.dispatch(context.Background(), models.Event{
		Type: models.EventBookingConfirmed, BookingID: 42,
	}))
	// Catalog chatter is not client-facing.
	require.NoError(t, sub.dispatch(context.Background(), models.Event{
		Type: models.EventCatalogInvalidated, ClientID: "cli-1",
	}))
	assert.Empty(t, rec.sent())
}

func TestNotificationSubscriberRunDrainsTheBus(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	rec := &recorderNotifier{}
	sub := &NotificationSubscriber{Bus: bus, Notifier: rec, Buffer: 8}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sub.Run(ctx)

	assert.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		_, ok := bus.subs["notifications"]
		return ok
	}, time.Second, 5*time.Millisecond)

	bus.Publish(models.Event{Type: models.EventBookingConfirmed, BookingID: 7, ClientID: "cli-1"})
	assert.Eventually(t, func() bool { return len(rec.sent()) == 1 }, time.Second, 5*time.Millisecond)
}

// catalogSpy counts invalidations; the embedded interface covers the methods
// the subscriber never touches.
type catalogSpy struct {
	catalog.Service
	invalidations atomic.Int32
}

func (c *catalogSpy) Invalidate() { c.invalidations.Add(1) }

type settingsSpy struct {
	settings.Service
	invalidations atomic.Int32
}

func (s *settingsSpy) Invalidate() { s.invalidations.Add(1) }

func TestCatalogSubscriberInvalidatesBothCaches(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	cat := &catalogSpy{}
	set := &settingsSpy{}
	sub := &CatalogSubscriber{Bus: bus, Catalog: cat, Settings: set, Buffer: 8}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sub.Run(ctx)

	assert.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		_, ok := bus.subs["catalog"]
		return ok
	}, time.Second, 5*time.Millisecond)

	// Booking traffic is not a catalog change.
	bus.Publish(models.Event{Type: models.EventBookingHeld, BookingID: 1})
	bus.Publish(models.Event{Type: models.EventCatalogInvalidated})

	assert.Eventually(t, func() bool {
		return cat.invalidations.Load() == 1 && set.invalidations.Load() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), cat.invalidations.Load())
}
