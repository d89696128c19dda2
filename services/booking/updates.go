package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "slotify/database/repository/booking"
	"slotify/models"
	policyGate "slotify/services/policy"
	"slotify/utils"

	"go.uber.org/zap"
)

// Reschedule moves a booking to a new start; bundle and staff stay fixed.
// The new interval is verified excluding the booking itself, then swapped in
// under the slot lock with the same transactional re-check as Hold.
func (m *DefaultBookingMachine) Reschedule(ctx context.Context, clientID string, bookingID int64, newStart time.Time) (*models.Booking, error) {
	if newStart.IsZero() {
		return nil, models.NewBookingError(models.CodeBadInput, "new start time is required")
	}
	b, err := m.owned(ctx, clientID, models.RoleClient, bookingID)
	if err != nil {
		return nil, err
	}

	policy, err := m.Settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := policyGate.CanReschedule(policy, now, b); err != nil {
		return nil, err
	}

	newStart = newStart.UTC()
	if newStart.Equal(b.StartsAt) {
		return b, nil
	}

	services, err := m.Catalog.GetServicesByIDs(ctx, b.ServiceIDs)
	if err != nil {
		return nil, err
	}
	staff, err := m.Catalog.GetStaffByID(ctx, b.StaffID)
	if err != nil {
		return nil, err
	}
	dur, check, err := m.Engine.VerifySlot(ctx, staff, services, b.ClientID, newStart, b.ID, policy, now)
	if err != nil {
		return nil, err
	}
	if !check.Available {
		return nil, errFromCheck(check)
	}
	span := models.TimeRange{Start: newStart, End: newStart.Add(dur)}

	release, err := m.Locks.Acquire(ctx, b.StaffID, span)
	if err != nil {
		return nil, err
	}
	defer release()

	updated, err := m.Repo.Reschedule(ctx, b.ID, span, now)
	if err != nil {
		return nil, slotErrFromRepo(err)
	}
	m.publishBooking(models.EventBookingRescheduled, updated, "rescheduled")
	utils.GetLogger().Info("booking rescheduled",
		zap.Int64("bookingID", updated.ID),
		zap.Time("startsAt", updated.StartsAt),
		zap.Int("rescheduleCount", updated.RescheduleCount))
	return updated, nil
}

// Cancel releases a non-terminal booking. Clients are held to the cancel
// lock window; staff and admins bypass it. The freed interval becomes
// bookable the moment the transaction commits.
func (m *DefaultBookingMachine) Cancel(ctx context.Context, callerID, role string, bookingID int64) (*models.Booking, error) {
	b, err := m.owned(ctx, callerID, role, bookingID)
	if err != nil {
		return nil, err
	}
	policy, err := m.Settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := policyGate.CanCancel(policy, now, b, role); err != nil {
		return nil, err
	}

	reason := models.CancelReasonClient
	if role == models.RoleAdmin || role == models.RoleStaff {
		reason = models.CancelReasonAdmin
	}
	updated, err := m.Repo.Cancel(ctx, b.ID, models.StatusCancelled, reason, role, now)
	if err != nil {
		return nil, slotErrFromRepo(err)
	}
	m.publishBooking(models.EventBookingCancelled, updated, reason)
	return updated, nil
}

// MarkDone closes out a CONFIRMED or PAID booking after the visit.
func (m *DefaultBookingMachine) MarkDone(ctx context.Context, bookingID int64) (*models.Booking, error) {
	return m.finish(ctx, bookingID, models.StatusDone)
}

// MarkNoShow records that the client never turned up.
func (m *DefaultBookingMachine) MarkNoShow(ctx context.Context, bookingID int64) (*models.Booking, error) {
	return m.finish(ctx, bookingID, models.StatusNoShow)
}

func (m *DefaultBookingMachine) finish(ctx context.Context, bookingID int64, to models.BookingStatus) (*models.Booking, error) {
	b, err := m.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := policyGate.CanTransition(b.Status, to); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	updated, err := m.Repo.Finish(ctx, bookingID, to, models.RoleAdmin, now)
	if err != nil {
		return nil, slotErrFromRepo(err)
	}
	utils.BookingTransitions.WithLabelValues(string(to), "closeout").Inc()
	return updated, nil
}

// Rate attaches the one-shot rating to a DONE booking.
func (m *DefaultBookingMachine) Rate(ctx context.Context, clientID string, bookingID int64, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return models.NewBookingError(models.CodeBadInput, "rating must be between 1 and 5")
	}
	if len(comment) > 500 {
		return models.NewBookingError(models.CodeBadInput, "rating comment is limited to 500 characters")
	}
	b, err := m.owned(ctx, clientID, models.RoleClient, bookingID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err := m.Repo.SetRating(ctx, b.ID, rating, comment, now); err != nil {
		switch {
		case errors.Is(err, bookingRepo.ErrAlreadyRated):
			return models.NewBookingError(models.CodeAlreadyRated, "booking was already rated")
		case errors.Is(err, bookingRepo.ErrNoTransition):
			return models.NewBookingError(models.CodeIllegalTransition,
				fmt.Sprintf("only completed bookings can be rated, this one is %s", b.Status))
		default:
			return err
		}
	}
	return nil
}
