package events

import (
	"context"
	"fmt"
	"strconv"

	"slotify/models"
	"slotify/services/catalog"
	"slotify/services/notifier"
	"slotify/services/settings"
	"slotify/utils"

	"go.uber.org/zap"
)

// Notification template ids consumed by the delivery layer.
const (
	TemplateBookingConfirmed = "booking_confirmed"
	TemplateInvoiceIssued    = "invoice_issued"
	TemplateBookingCancelled = "booking_cancelled"
	TemplateHoldExpired      = "hold_expired"
	TemplateReminder         = "booking_reminder"
)

// NotificationSubscriber turns domain events into notifier sends. Dedup keys
// derive from the business fact, so a replay anywhere upstream collapses at
// the queue instead of reaching the client twice.
type NotificationSubscriber struct {
	Bus      *Bus
	Notifier notifier.Service
	Buffer   int
}

// Run consumes events until ctx is cancelled or the bus closes.
func (s *NotificationSubscriber) Run(ctx context.Context) {
	ch := s.Bus.Subscribe("notifications", s.Buffer)
	logger := utils.GetLogger()

	for {
		select {
		case <-ctx.Done():
			s.Bus.Unsubscribe("notifications")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := s.dispatch(ctx, ev); err != nil {
				logger.Warn("notification dispatch failed",
					zap.String("type", string(ev.Type)),
					zap.Int64("bookingID", ev.BookingID),
					zap.Error(err))
			}
		}
	}
}

func (s *NotificationSubscriber) dispatch(ctx context.Context, ev models.Event) error {
	if ev.ClientID == "" {
		return nil
	}
	data := map[string]string{
		"booking_id": strconv.FormatInt(ev.BookingID, 10),
	}
	if !ev.StartsAt.IsZero() {
		data["starts_at"] = ev.StartsAt.Format("2006-01-02 15:04")
	}

	switch ev.Type {
	case models.EventBookingConfirmed:
		if ev.Pricing != nil {
			data["amount_minor"] = strconv.FormatInt(ev.Pricing.FinalMinor, 10)
			data["currency"] = ev.Pricing.Currency
		}
		return s.Notifier.Send(ctx, ev.ClientID, TemplateBookingConfirmed, data,
			fmt.Sprintf("confirmed:%d", ev.BookingID))

	case models.EventInvoiceIssued:
		data["invoice_url"] = ev.InvoiceURL
		return s.Notifier.Send(ctx, ev.ClientID, TemplateInvoiceIssued, data,
			fmt.Sprintf("invoice:%d", ev.BookingID))

	case models.EventHoldExpired:
		return s.Notifier.Send(ctx, ev.ClientID, TemplateHoldExpired, data,
			fmt.Sprintf("expired:%d", ev.BookingID))

	case models.EventBookingCancelled, models.EventPaymentFailed:
		data["reason"] = ev.Reason
		return s.Notifier.Send(ctx, ev.ClientID, TemplateBookingCancelled, data,
			fmt.Sprintf("cancelled:%d", ev.BookingID))

	case models.EventReminderDue:
		return s.Notifier.Send(ctx, ev.ClientID, TemplateReminder, data,
			fmt.Sprintf("reminder:%d:%d", ev.BookingID, ev.LeadMinutes))
	}
	return nil
}

// CatalogSubscriber drops the cached catalog lists and the cached policy
// snapshot whenever an admin flow announces a change.
type CatalogSubscriber struct {
	Bus      *Bus
	Catalog  catalog.Service
	Settings settings.Service
	Buffer   int
}

func (s *CatalogSubscriber) Run(ctx context.Context) {
	ch := s.Bus.Subscribe("catalog", s.Buffer)
	for {
		select {
		case <-ctx.Done():
			s.Bus.Unsubscribe("catalog")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Type == models.EventCatalogInvalidated {
				s.Catalog.Invalidate()
				if s.Settings != nil {
					s.Settings.Invalidate()
				}
			}
		}
	}
}

// AuditSubscriber writes one structured log line per domain event; commit
// order is preserved by the correlation id.
type AuditSubscriber struct {
	Bus    *Bus
	Buffer int
}

func (s *AuditSubscriber) Run(ctx context.Context) {
	ch := s.Bus.Subscribe("audit", s.Buffer)
	logger := utils.GetLogger()
	for {
		select {
		case <-ctx.Done():
			s.Bus.Unsubscribe("audit")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			logger.Info("domain event",
				zap.String("type", string(ev.Type)),
				zap.Uint64("correlationID", ev.CorrelationID),
				zap.Int64("bookingID", ev.BookingID),
				zap.String("staffID", ev.StaffID),
				zap.String("status", string(ev.Status)),
				zap.String("reason", ev.Reason))
		}
	}
}
