package booking

import (
	"context"
	"fmt"
	"time"

	"slotify/models"
	"slotify/services/payments"
	policyGate "slotify/services/policy"
	"slotify/utils"

	"go.uber.org/zap"
)

// Finalize settles a RESERVED hold. The method must match the one priced
// into the snapshot: cash confirms the booking outright, online opens an
// invoice and parks it in PENDING_PAYMENT with the hold still ticking.
// Repeating a finalize that already succeeded returns the same result.
func (m *DefaultBookingMachine) Finalize(ctx context.Context, clientID string, bookingID int64, paymentMethod string) (*FinalizeResult, error) {
	b, err := m.owned(ctx, clientID, models.RoleClient, bookingID)
	if err != nil {
		return nil, err
	}
	if paymentMethod != b.Pricing.PaymentMethod {
		return nil, models.NewBookingError(models.CodeBadInput,
			fmt.Sprintf("booking was held for %s payment; hold again to switch", b.Pricing.PaymentMethod))
	}

	// Idempotent repeats.
	switch {
	case paymentMethod == models.PaymentCash && b.Status == models.StatusConfirmed:
		return &FinalizeResult{Status: b.Status}, nil
	case paymentMethod == models.PaymentOnline && b.Status == models.StatusPendingPayment && b.InvoiceURL != "":
		return &FinalizeResult{Status: b.Status, InvoiceURL: b.InvoiceURL}, nil
	}

	now := time.Now().UTC()
	if b.Status == models.StatusReserved && !b.HoldActive(now) {
		// The hold lapsed before the expirer swept it; retire it here so the
		// slot frees up immediately.
		if expired, cerr := m.Repo.Cancel(ctx, b.ID, models.StatusExpired, models.CancelReasonExpired, "system", now); cerr == nil {
			m.publishBooking(models.EventHoldExpired, expired, models.CancelReasonExpired)
		}
		return nil, models.NewBookingError(models.CodeIllegalTransition, "hold expired before it was finalized")
	}

	if paymentMethod == models.PaymentCash {
		if err := policyGate.CanTransition(b.Status, models.StatusConfirmed); err != nil {
			return nil, err
		}
		updated, err := m.Repo.ConfirmCash(ctx, b.ID, models.RoleClient, now)
		if err != nil {
			return nil, slotErrFromRepo(err)
		}
		m.publishBooking(models.EventBookingConfirmed, updated, "cash")
		return &FinalizeResult{Status: updated.Status}, nil
	}

	// Online: open the invoice first. If the gateway call fails the booking
	// stays RESERVED and the client may retry until the hold expires.
	if err := policyGate.CanTransition(b.Status, models.StatusPendingPayment); err != nil {
		return nil, err
	}
	invoice, err := m.Payments.CreateInvoice(ctx, b.ID, b.Pricing.FinalMinor, b.Pricing.Currency)
	if err != nil {
		return nil, err
	}
	updated, err := m.Repo.MarkPendingPayment(ctx, b.ID, invoice.Ref, invoice.URL, models.RoleClient, now)
	if err != nil {
		return nil, slotErrFromRepo(err)
	}
	m.publishBooking(models.EventInvoiceIssued, updated, "online")
	utils.GetLogger().Info("invoice issued",
		zap.Int64("bookingID", updated.ID),
		zap.String("invoiceRef", invoice.Ref),
		zap.Int64("amountMinor", b.Pricing.FinalMinor))

	return &FinalizeResult{Status: updated.Status, InvoiceURL: updated.InvoiceURL}, nil
}

// SettlePayment asks the gateway for the invoice verdict and drives the
// booking accordingly: paid promotes to PAID, failed or cancelled releases
// the slot, pending leaves everything as is. Safe to call repeatedly; the
// reconciler and the client-facing settle route share it.
func (m *DefaultBookingMachine) SettlePayment(ctx context.Context, bookingID int64) (*models.Booking, error) {
	b, err := m.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status == models.StatusPaid {
		return b, nil
	}
	if b.Status != models.StatusPendingPayment {
		return nil, models.NewBookingError(models.CodeIllegalTransition,
			fmt.Sprintf("booking %d carries no open invoice", bookingID))
	}

	verdict, err := m.Payments.VerifyPayment(ctx, b.InvoiceRef)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	switch verdict {
	case payments.VerdictPaid:
		updated, err := m.Repo.MarkPaid(ctx, b.ID, "payments", now)
		if err != nil {
			return nil, slotErrFromRepo(err)
		}
		m.publishBooking(models.EventBookingConfirmed, updated, "payment_verified")
		return updated, nil

	case payments.VerdictFailed, payments.VerdictCancelled:
		updated, err := m.Repo.Cancel(ctx, b.ID, models.StatusCancelled, models.CancelReasonPaymentFailed, "payments", now)
		if err != nil {
			return nil, slotErrFromRepo(err)
		}
		m.publishBooking(models.EventPaymentFailed, updated, models.CancelReasonPaymentFailed)
		return updated, nil

	default: // pending: leave the hold ticking
		return b, nil
	}
}
