package models

import "time"

// BookingStatus enumerates the booking lifecycle states.
type BookingStatus string

const (
	StatusReserved       BookingStatus = "RESERVED"
	StatusPendingPayment BookingStatus = "PENDING_PAYMENT"
	StatusConfirmed      BookingStatus = "CONFIRMED"
	StatusPaid           BookingStatus = "PAID"
	StatusDone           BookingStatus = "DONE"
	StatusNoShow         BookingStatus = "NO_SHOW"
	StatusExpired        BookingStatus = "EXPIRED"
	StatusCancelled      BookingStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed out of s.
// (Rate mutates a DONE booking but is not a transition.)
func (s BookingStatus) Terminal() bool {
	switch s {
	case StatusExpired, StatusCancelled, StatusDone, StatusNoShow:
		return true
	}
	return false
}

// HoldStatuses are the states carrying a hold expiry.
func HoldStatuses() []BookingStatus {
	return []BookingStatus{StatusReserved, StatusPendingPayment}
}

// OccupyingStatuses are the states whose [start, end) interval must stay
// disjoint per staff member.
func OccupyingStatuses() []BookingStatus {
	return []BookingStatus{StatusReserved, StatusPendingPayment, StatusConfirmed, StatusPaid, StatusDone}
}

// Payment methods accepted by Quote, Hold and Finalize.
const (
	PaymentCash   = "cash"
	PaymentOnline = "online"
)

// Cancellation reason tags carried on CANCELLED/EXPIRED bookings and their events.
const (
	CancelReasonClient        = "client"
	CancelReasonAdmin         = "admin"
	CancelReasonExpired       = "expired"
	CancelReasonPaymentFailed = "payment_failed"
)

// Caller roles carried in the identity token.
const (
	RoleClient = "client"
	RoleStaff  = "staff"
	RoleAdmin  = "admin"
)

// PricingSnapshot is the immutable price record bound to a booking at hold
// time. All amounts are integer minor units.
type PricingSnapshot struct {
	OriginalMinor            int64  `bson:"original_minor" json:"original_minor"`
	DiscountMinor            int64  `bson:"discount_minor" json:"discount_minor"`
	FinalMinor               int64  `bson:"final_minor" json:"final_minor"`
	DiscountPercent          int    `bson:"discount_percent" json:"discount_percent"`
	Currency                 string `bson:"currency" json:"currency"`
	PaymentMethod            string `bson:"payment_method" json:"payment_method"` // "cash" | "online"
	EffectiveDurationMinutes int    `bson:"effective_duration_minutes" json:"effective_duration_minutes"`
}

// Booking is one appointment on one staff member. All timestamps are UTC.
type Booking struct {
	ID              int64           `bson:"id" json:"id"` // Monotonic identifier from the counters collection
	StaffID         string          `bson:"staff_id" json:"staff_id"`
	ClientID        string          `bson:"client_id" json:"client_id"`
	ServiceIDs      []string        `bson:"service_ids" json:"service_ids"` // Ordered bundle, performed back-to-back
	StartsAt        time.Time       `bson:"starts_at" json:"starts_at"`
	EndsAt          time.Time       `bson:"ends_at" json:"ends_at"` // StartsAt + effective duration
	Status          BookingStatus   `bson:"status" json:"status"`
	Pricing         PricingSnapshot `bson:"pricing" json:"pricing"`
	HoldExpiresAt   *time.Time      `bson:"hold_expires_at,omitempty" json:"hold_expires_at,omitempty"` // Non-nil iff RESERVED/PENDING_PAYMENT
	InvoiceRef      string          `bson:"invoice_ref,omitempty" json:"invoice_ref,omitempty"`
	InvoiceURL      string          `bson:"invoice_url,omitempty" json:"invoice_url,omitempty"`
	Rating          *int            `bson:"rating,omitempty" json:"rating,omitempty"` // 1..5, settable once after DONE
	RatingComment   string          `bson:"rating_comment,omitempty" json:"rating_comment,omitempty"`
	RescheduleCount int             `bson:"reschedule_count" json:"reschedule_count"`
	CancelReason    string          `bson:"cancel_reason,omitempty" json:"cancel_reason,omitempty"`
	ReminderSentAt  *time.Time      `bson:"reminder_sent_at,omitempty" json:"reminder_sent_at,omitempty"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
	InvoiceIssuedAt *time.Time      `bson:"invoice_issued_at,omitempty" json:"invoice_issued_at,omitempty"`
	ConfirmedAt     *time.Time      `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
	PaidAt          *time.Time      `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	FinishedAt      *time.Time      `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
	CancelledAt     *time.Time      `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
}

// HoldActive reports whether the booking occupies its slot purely by virtue
// of an unexpired hold.
func (b *Booking) HoldActive(now time.Time) bool {
	if b.Status != StatusReserved && b.Status != StatusPendingPayment {
		return false
	}
	return b.HoldExpiresAt != nil && b.HoldExpiresAt.After(now)
}

// Occupies reports whether the booking blocks [b.StartsAt, b.EndsAt) on its
// staff member at the given instant: confirmed-or-later states always do,
// hold states only while the hold is alive.
func (b *Booking) Occupies(now time.Time) bool {
	switch b.Status {
	case StatusConfirmed, StatusPaid, StatusDone:
		return true
	case StatusReserved, StatusPendingPayment:
		return b.HoldActive(now)
	}
	return false
}

// BookingEvent is one append-only audit row recording a transition.
type BookingEvent struct {
	BookingID int64         `bson:"booking_id" json:"booking_id"`
	From      BookingStatus `bson:"from,omitempty" json:"from,omitempty"`
	To        BookingStatus `bson:"to" json:"to"`
	Reason    string        `bson:"reason,omitempty" json:"reason,omitempty"`
	Actor     string        `bson:"actor,omitempty" json:"actor,omitempty"` // client | admin | staff | worker
	At        time.Time     `bson:"at" json:"at"`
}
