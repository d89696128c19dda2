package booking

import (
	"context"
	"errors"
	"time"

	bookingRepo "slotify/database/repository/booking"
	"slotify/models"
	"slotify/utils"

	"go.uber.org/zap"
)

// ExpireDueHolds retires holds whose expiry has passed: RESERVED and
// PENDING_PAYMENT rows move to EXPIRED and their slots free up. Rows that
// transitioned between the scan and the conditional update are skipped, so
// concurrent expirers and racing finalizes are harmless.
func (m *DefaultBookingMachine) ExpireDueHolds(ctx context.Context, batch int) (int, error) {
	now := time.Now().UTC()
	due, err := m.Repo.DueHolds(ctx, now, int64(batch))
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range due {
		b := &due[i]
		updated, err := m.Repo.Cancel(ctx, b.ID, models.StatusExpired, models.CancelReasonExpired, "hold_expirer", now)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrNoTransition) || errors.Is(err, bookingRepo.ErrNotFound) {
				continue
			}
			utils.GetLogger().Warn("hold expiry failed",
				zap.Int64("bookingID", b.ID), zap.Error(err))
			continue
		}
		m.publishBooking(models.EventHoldExpired, updated, models.CancelReasonExpired)
		expired++
	}
	return expired, nil
}

// DispatchDueReminders publishes one reminder event per CONFIRMED/PAID
// booking entering the reminder lead window. The sent flag flips under a
// conditional update, so only one replica wins per booking.
func (m *DefaultBookingMachine) DispatchDueReminders(ctx context.Context, batch int) (int, error) {
	policy, err := m.Settings.Current(ctx)
	if err != nil {
		return 0, err
	}
	if policy.ReminderLeadMinutes <= 0 {
		return 0, nil
	}
	lead := time.Duration(policy.ReminderLeadMinutes) * time.Minute
	now := time.Now().UTC()

	due, err := m.Repo.DueReminders(ctx, now, lead, int64(batch))
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		b := &due[i]
		won, err := m.Repo.MarkReminderSent(ctx, b.ID, now)
		if err != nil {
			utils.GetLogger().Warn("reminder flag update failed",
				zap.Int64("bookingID", b.ID), zap.Error(err))
			continue
		}
		if !won {
			continue
		}
		snap := b.Pricing
		m.Bus.Publish(models.Event{
			Type:        models.EventReminderDue,
			BookingID:   b.ID,
			StaffID:     b.StaffID,
			ClientID:    b.ClientID,
			Status:      b.Status,
			Pricing:     &snap,
			StartsAt:    b.StartsAt,
			LeadMinutes: policy.ReminderLeadMinutes,
		})
		sent++
	}
	return sent, nil
}

// ReconcilePendingPayments re-verifies invoices that have been open longer
// than grace. Verification errors are logged and retried on the next sweep.
func (m *DefaultBookingMachine) ReconcilePendingPayments(ctx context.Context, grace time.Duration, batch int) (int, error) {
	now := time.Now().UTC()
	due, err := m.Repo.PendingPayments(ctx, now.Add(-grace), int64(batch))
	if err != nil {
		return 0, err
	}

	settled := 0
	for i := range due {
		updated, err := m.SettlePayment(ctx, due[i].ID)
		if err != nil {
			utils.GetLogger().Warn("payment reconcile failed",
				zap.Int64("bookingID", due[i].ID), zap.Error(err))
			continue
		}
		if updated.Status != models.StatusPendingPayment {
			settled++
		}
	}
	return settled, nil
}
