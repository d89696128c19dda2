package policy

import (
	"fmt"
	"time"

	"slotify/models"
)

// The gate is a set of pure predicates over a policy snapshot. Callers load
// one snapshot per operation and pass it in; nothing here reads globals or
// the clock.

// legalTransitions is the full edge set of the booking state graph.
var legalTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.StatusReserved: {
		models.StatusConfirmed,
		models.StatusPendingPayment,
		models.StatusCancelled,
		models.StatusExpired,
	},
	models.StatusPendingPayment: {
		models.StatusPaid,
		models.StatusCancelled,
		models.StatusExpired,
	},
	models.StatusConfirmed: {
		models.StatusDone,
		models.StatusNoShow,
		models.StatusCancelled,
	},
	models.StatusPaid: {
		models.StatusDone,
		models.StatusNoShow,
		models.StatusCancelled,
	},
}

// CanTransition checks one edge against the state graph.
func CanTransition(from, to models.BookingStatus) error {
	for _, next := range legalTransitions[from] {
		if next == to {
			return nil
		}
	}
	return models.NewBookingError(models.CodeIllegalTransition,
		fmt.Sprintf("cannot move a %s booking to %s", from, to))
}

// CanStart validates the lead-time and booking-horizon window for a start.
func CanStart(p models.Policy, now, start time.Time) error {
	if start.Before(now.Add(p.LeadTime())) {
		return models.NewBookingError(models.CodeLeadTimeBlocked,
			fmt.Sprintf("starts must be at least %d minutes from now", p.LeadTimeMinutes))
	}
	if start.After(now.Add(p.Horizon())) {
		return models.NewBookingError(models.CodeBeyondHorizon,
			fmt.Sprintf("starts must be within the next %d days", p.FutureWindowDays))
	}
	return nil
}

// CanReschedule gates a client-driven move of an existing booking.
func CanReschedule(p models.Policy, now time.Time, b *models.Booking) error {
	if b.Status.Terminal() {
		return models.NewBookingError(models.CodeIllegalTransition,
			fmt.Sprintf("a %s booking cannot be rescheduled", b.Status))
	}
	if p.RescheduleMaxCount > 0 && b.RescheduleCount >= p.RescheduleMaxCount {
		return models.NewBookingError(models.CodeTooManyReschedules,
			fmt.Sprintf("booking was already rescheduled %d times (limit %d)", b.RescheduleCount, p.RescheduleMaxCount))
	}
	lock := time.Duration(p.RescheduleLockHours) * time.Hour
	if lock > 0 && now.Add(lock).After(b.StartsAt) {
		return models.NewBookingError(models.CodeLockWindow,
			fmt.Sprintf("bookings lock %d hours before start and can no longer be moved", p.RescheduleLockHours))
	}
	return nil
}

// CanCancel gates cancellation. Admin and staff callers bypass the lock
// window but never the terminal check.
func CanCancel(p models.Policy, now time.Time, b *models.Booking, role string) error {
	if b.Status.Terminal() {
		return models.NewBookingError(models.CodeIllegalTransition,
			fmt.Sprintf("a %s booking cannot be cancelled", b.Status))
	}
	if role == models.RoleAdmin || role == models.RoleStaff {
		return nil
	}
	lock := time.Duration(p.CancelLockHours) * time.Hour
	if lock > 0 && now.Add(lock).After(b.StartsAt) {
		return models.NewBookingError(models.CodeLockWindow,
			fmt.Sprintf("bookings lock %d hours before start and can no longer be cancelled", p.CancelLockHours))
	}
	return nil
}
