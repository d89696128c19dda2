package models

import "time"

// EventType names a domain event published on the in-process bus.
type EventType string

const (
	EventBookingHeld        EventType = "booking.held"
	EventBookingConfirmed   EventType = "booking.confirmed"
	EventBookingCancelled   EventType = "booking.cancelled"
	EventBookingRescheduled EventType = "booking.rescheduled"
	EventHoldExpired        EventType = "booking.hold_expired"
	EventInvoiceIssued      EventType = "booking.invoice_issued"
	EventPaymentFailed      EventType = "booking.payment_failed"
	EventReminderDue        EventType = "booking.reminder_due"
	EventCatalogInvalidated EventType = "catalog.invalidated"
)

// Event is the envelope published after the originating transaction commits.
// CorrelationID is monotonic within the process; subscribers must be
// idempotent (delivery is at-least-once).
type Event struct {
	Type          EventType        `json:"type"`
	CorrelationID uint64           `json:"correlation_id"`
	BookingID     int64            `json:"booking_id,omitempty"`
	StaffID       string           `json:"staff_id,omitempty"`
	ClientID      string           `json:"client_id,omitempty"`
	Status        BookingStatus    `json:"status,omitempty"`
	Pricing       *PricingSnapshot `json:"pricing,omitempty"`
	StartsAt      time.Time        `json:"starts_at,omitempty"`
	Reason        string           `json:"reason,omitempty"` // cancel reason tag, when applicable
	InvoiceURL    string           `json:"invoice_url,omitempty"`
	LeadMinutes   int              `json:"lead_minutes,omitempty"` // reminder lead, on ReminderDue
	OccurredAt    time.Time        `json:"occurred_at"`
}
