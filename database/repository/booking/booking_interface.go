package bookingRepo

import (
	"context"
	"errors"
	"time"

	"slotify/models"
)

// Sentinel errors surfaced to the state machine, which maps them onto the
// caller-facing taxonomy.
var (
	// ErrNotFound means no booking carries the requested id.
	ErrNotFound = errors.New("booking not found")
	// ErrStaffConflict means the proposed interval overlaps an occupying
	// booking on the same staff member.
	ErrStaffConflict = errors.New("staff already booked for this interval")
	// ErrClientConflict means the client already holds an overlapping booking.
	ErrClientConflict = errors.New("client already booked for this interval")
	// ErrNoTransition means the conditional status filter matched no row:
	// the booking is not in any of the expected source states.
	ErrNoTransition = errors.New("booking not in an eligible state")
	// ErrAlreadyRated means the booking carries a rating already.
	ErrAlreadyRated = errors.New("booking already rated")
)

// Repository mediates all booking reads and writes. Mutations run inside
// mongo session transactions and append an audit row per transition.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*models.Booking, error)

	// ListOccupying returns the bookings on a staff member that block
	// calendar time and whose [starts_at, ends_at) intersects [from, to).
	// Hold states count only while the hold is alive at now.
	ListOccupying(ctx context.Context, staffID string, from, to, now time.Time) ([]models.Booking, error)

	// FindStaffConflict / FindClientConflict return the first occupying
	// booking overlapping span, or nil. excludeID skips one booking id
	// (reschedule re-checks exclude the booking itself).
	FindStaffConflict(ctx context.Context, staffID string, span models.TimeRange, excludeID int64, now time.Time) (*models.Booking, error)
	FindClientConflict(ctx context.Context, clientID string, span models.TimeRange, excludeID int64, now time.Time) (*models.Booking, error)

	// CreateHold re-checks both conflict predicates and inserts the RESERVED
	// row, all inside one transaction.
	CreateHold(ctx context.Context, booking *models.Booking, now time.Time) error

	// Reschedule re-checks the staff conflict for the new span (excluding
	// the booking itself) and moves the interval, bumping the counter.
	Reschedule(ctx context.Context, id int64, span models.TimeRange, now time.Time) (*models.Booking, error)

	// Status transitions; each is a conditional update guarded by the
	// expected source states and appends an audit row transactionally.
	ConfirmCash(ctx context.Context, id int64, actor string, now time.Time) (*models.Booking, error)
	MarkPendingPayment(ctx context.Context, id int64, invoiceRef, invoiceURL, actor string, now time.Time) (*models.Booking, error)
	MarkPaid(ctx context.Context, id int64, actor string, now time.Time) (*models.Booking, error)
	Finish(ctx context.Context, id int64, to models.BookingStatus, actor string, now time.Time) (*models.Booking, error)
	Cancel(ctx context.Context, id int64, to models.BookingStatus, reason, actor string, now time.Time) (*models.Booking, error)
	SetRating(ctx context.Context, id int64, rating int, comment string, now time.Time) (*models.Booking, error)

	// MarkReminderSent flips the reminder flag once; false means another
	// replica got there first or the booking left a reminded state.
	MarkReminderSent(ctx context.Context, id int64, now time.Time) (bool, error)

	// Lifecycle sweeps, bounded by limit.
	DueHolds(ctx context.Context, now time.Time, limit int64) ([]models.Booking, error)
	DueReminders(ctx context.Context, now time.Time, lead time.Duration, limit int64) ([]models.Booking, error)
	PendingPayments(ctx context.Context, issuedBefore time.Time, limit int64) ([]models.Booking, error)

	ListByClient(ctx context.Context, clientID, mode string, now time.Time, limit int64) ([]models.Booking, error)
	ListEvents(ctx context.Context, bookingID int64) ([]models.BookingEvent, error)
}
