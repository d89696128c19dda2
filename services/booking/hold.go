package booking

import (
	"context"
	"fmt"
	"time"

	"slotify/models"
	"slotify/utils"

	"go.uber.org/zap"
)

// Hold runs the full reservation protocol:
//
//  1. resolve and price the bundle against a single policy snapshot,
//  2. verify the slot (shape, policy window, overlap scan),
//  3. take the advisory slot lock for the staff/hour buckets,
//  4. re-check overlaps and insert the RESERVED row in one transaction,
//  5. publish booking.held after commit.
//
// Step 4 is the authority on conflicts; steps 2-3 exist to keep losers out
// of the transaction and to serialize same-slot contenders.
func (m *DefaultBookingMachine) Hold(ctx context.Context, req HoldRequest) (*HoldResult, error) {
	if req.ClientID == "" {
		return nil, models.NewBookingError(models.CodeBadInput, "client id is required")
	}
	if req.Start.IsZero() {
		return nil, models.NewBookingError(models.CodeBadInput, "start time is required")
	}
	if req.PaymentMethod != models.PaymentCash && req.PaymentMethod != models.PaymentOnline {
		return nil, models.NewBookingError(models.CodeBadInput,
			fmt.Sprintf("unknown payment method %q, want cash or online", req.PaymentMethod))
	}

	policy, err := m.Settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	if req.PaymentMethod == models.PaymentOnline && !policy.OnlineEnabled {
		return nil, models.NewBookingError(models.CodeBadInput, "online payment is not enabled for this business")
	}

	services, err := m.Catalog.GetServicesByIDs(ctx, req.ServiceIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	start := req.Start.UTC()

	staff, dur, check, err := m.resolveSlot(ctx, req, services, start, policy, now)
	if err != nil {
		return nil, err
	}
	if !check.Available {
		return nil, errFromCheck(check)
	}
	span := models.TimeRange{Start: start, End: start.Add(dur)}

	release, err := m.Locks.Acquire(ctx, staff.ID, span)
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := m.Pricing.Compute(services, staff, req.PaymentMethod, policy)
	if err != nil {
		return nil, err
	}
	id, err := m.Seq.Next(ctx, "bookings")
	if err != nil {
		return nil, err
	}

	holdExpires := now.Add(policy.HoldTTL())
	b := &models.Booking{
		ID:            id,
		StaffID:       staff.ID,
		ClientID:      req.ClientID,
		ServiceIDs:    req.ServiceIDs,
		StartsAt:      span.Start,
		EndsAt:        span.End,
		Status:        models.StatusReserved,
		Pricing:       *snap,
		HoldExpiresAt: &holdExpires,
		CreatedAt:     now,
	}
	if err := m.Repo.CreateHold(ctx, b, now); err != nil {
		return nil, slotErrFromRepo(err)
	}

	m.publishBooking(models.EventBookingHeld, b, "")
	utils.GetLogger().Info("slot held",
		zap.Int64("bookingID", b.ID),
		zap.String("staffID", b.StaffID),
		zap.Time("startsAt", b.StartsAt),
		zap.Time("holdExpiresAt", holdExpires))

	return &HoldResult{
		BookingID: b.ID,
		StaffID:   b.StaffID,
		ExpiresAt: holdExpires,
		Snapshot:  *snap,
	}, nil
}

// resolveSlot picks the staff member and runs the slot legality checks. In
// any-staff mode the engine chooses; with an explicit staff id the skill and
// active checks run here before the slot is verified.
func (m *DefaultBookingMachine) resolveSlot(ctx context.Context, req HoldRequest, services []models.Service, start time.Time, policy models.Policy, now time.Time) (*models.Staff, time.Duration, *models.SlotCheck, error) {
	if req.StaffID == "" {
		return m.Engine.PickStaff(ctx, services, req.ClientID, start, policy, now)
	}

	staff, err := m.Catalog.GetStaffByID(ctx, req.StaffID)
	if err != nil {
		return nil, 0, nil, err
	}
	if !staff.Active {
		return nil, 0, nil, models.NewBookingError(models.CodeNoSkillMatch,
			fmt.Sprintf("staff %s is not taking bookings", req.StaffID))
	}
	for i := range services {
		if !staff.CanPerform(&services[i]) {
			return nil, 0, nil, models.NewBookingError(models.CodeNoSkillMatch,
				fmt.Sprintf("staff %s does not offer %s", req.StaffID, services[i].Name))
		}
	}
	dur, check, err := m.Engine.VerifySlot(ctx, staff, services, req.ClientID, start, 0, policy, now)
	if err != nil {
		return nil, 0, nil, err
	}
	return staff, dur, check, nil
}
