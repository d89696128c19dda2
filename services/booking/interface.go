package booking

import (
	"context"
	"time"

	"slotify/models"
)

// HoldRequest is the input of the Hold operation. An empty StaffID selects
// any-staff mode; the machine picks the staff member.
type HoldRequest struct {
	ClientID      string
	StaffID       string
	ServiceIDs    []string
	Start         time.Time
	PaymentMethod string
}

// HoldResult is returned to the client holding a slot.
type HoldResult struct {
	BookingID int64                  `json:"booking_id"`
	StaffID   string                 `json:"staff_id"`
	ExpiresAt time.Time              `json:"expires_at"`
	Snapshot  models.PricingSnapshot `json:"snapshot"`
}

// FinalizeResult reports the post-finalize state; InvoiceURL is set on the
// online path.
type FinalizeResult struct {
	Status     models.BookingStatus `json:"status"`
	InvoiceURL string               `json:"invoice_url,omitempty"`
}

// Service is the booking state machine. Every write runs inside one store
// transaction under the advisory slot lock; domain events are published
// strictly after commit.
type Service interface {
	// Hold reserves a slot: advisory lock, overlap re-check, policy gate,
	// RESERVED row with an expiry and a pricing snapshot.
	Hold(ctx context.Context, req HoldRequest) (*HoldResult, error)

	// Finalize settles a hold: cash confirms immediately, online opens an
	// invoice and parks the booking in PENDING_PAYMENT.
	Finalize(ctx context.Context, clientID string, bookingID int64, paymentMethod string) (*FinalizeResult, error)

	// SettlePayment polls the payments port for a PENDING_PAYMENT booking and
	// drives it to PAID or CANCELLED. Used by the reconciler and the
	// client-facing "I have paid" route.
	SettlePayment(ctx context.Context, bookingID int64) (*models.Booking, error)

	// Reschedule moves a booking to a new start, same bundle, same staff.
	Reschedule(ctx context.Context, clientID string, bookingID int64, newStart time.Time) (*models.Booking, error)

	// Cancel transitions any non-terminal booking to CANCELLED, subject to
	// the policy lock window for clients.
	Cancel(ctx context.Context, callerID, role string, bookingID int64) (*models.Booking, error)

	// MarkDone and MarkNoShow close out CONFIRMED/PAID bookings (admin).
	MarkDone(ctx context.Context, bookingID int64) (*models.Booking, error)
	MarkNoShow(ctx context.Context, bookingID int64) (*models.Booking, error)

	// Rate stores the one-shot rating on a DONE booking.
	Rate(ctx context.Context, clientID string, bookingID int64, rating int, comment string) error

	// GetBooking returns one materialized view, owner or admin only.
	GetBooking(ctx context.Context, callerID, role string, bookingID int64) (*models.BookingView, error)

	// ListBookings returns the caller's bookings, mode upcoming or history.
	ListBookings(ctx context.Context, clientID, mode string) ([]models.BookingView, error)

	// Worker sweeps; each returns the number of rows it transitioned.
	ExpireDueHolds(ctx context.Context, batch int) (int, error)
	DispatchDueReminders(ctx context.Context, batch int) (int, error)
	ReconcilePendingPayments(ctx context.Context, grace time.Duration, batch int) (int, error)
}

// Sequencer hands out booking ids.
type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
}
