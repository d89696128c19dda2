package booking

import (
	"errors"
	"fmt"

	bookingRepo "slotify/database/repository/booking"
	"slotify/models"
)

// errFromCheck translates a failed slot check into the caller-facing error.
// Policy tags keep their own codes; everything interval-shaped collapses
// into SlotUnavailable with the conflict tag in the message.
func errFromCheck(check *models.SlotCheck) error {
	switch check.Conflict {
	case models.ConflictLeadTime:
		return models.NewBookingError(models.CodeLeadTimeBlocked, "start is too close to now for this business")
	case models.ConflictBeyondHorizon:
		return models.NewBookingError(models.CodeBeyondHorizon, "start is beyond the booking horizon")
	case models.ConflictClientBusy:
		return models.NewBookingError(models.CodeSlotUnavailable, "you already have a booking overlapping this time")
	default:
		return models.NewBookingError(models.CodeSlotUnavailable,
			fmt.Sprintf("slot is not available (%s)", check.Conflict))
	}
}

// slotErrFromRepo maps the repository's conflict and CAS sentinels onto the
// taxonomy; anything else passes through untouched.
func slotErrFromRepo(err error) error {
	switch {
	case errors.Is(err, bookingRepo.ErrStaffConflict):
		return models.NewBookingError(models.CodeSlotUnavailable, "slot was taken while you were booking")
	case errors.Is(err, bookingRepo.ErrClientConflict):
		return models.NewBookingError(models.CodeSlotUnavailable, "you already have a booking overlapping this time")
	case errors.Is(err, bookingRepo.ErrNoTransition):
		return models.NewBookingError(models.CodeIllegalTransition, "booking changed state underneath this request")
	default:
		return err
	}
}
