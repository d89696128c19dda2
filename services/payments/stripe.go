package payments

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"slotify/config"
	"slotify/models"

	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"go.uber.org/zap"
)

// StripePaymentHandler backs the payments port with Stripe checkout
// sessions. A circuit breaker shields the booking paths from a flapping
// gateway: once it opens, finalize fails fast with PAYMENT_INIT_FAILED and
// the hold keeps protecting the slot until the client retries.
type StripePaymentHandler struct {
	logger  *zap.Logger
	breaker *gobreaker.CircuitBreaker
}

func NewStripePaymentHandler(logger *zap.Logger) *StripePaymentHandler {
	return &StripePaymentHandler{
		logger: logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "stripe",
		}),
	}
}

// --- CreateInvoice ---
func (h *StripePaymentHandler) CreateInvoice(ctx context.Context, bookingID int64, amountMinor int64, currency string) (*Invoice, error) {
	if amountMinor <= 0 {
		return nil, models.NewBookingError(models.CodeBadInput, "invoice amount must be positive")
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(currency)),
				UnitAmount: stripe.Int64(amountMinor),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("Booking #%d", bookingID)),
				},
			},
		}},
		ClientReferenceID: stripe.String(strconv.FormatInt(bookingID, 10)),
		SuccessURL:        stripe.String(config.AppConfig.PaySuccessURL),
		CancelURL:         stripe.String(config.AppConfig.PayCancelURL),
	}
	params.Context = ctx

	result, err := h.breaker.Execute(func() (interface{}, error) {
		return session.New(params)
	})
	if err != nil {
		h.logger.Error("stripe checkout session failed",
			zap.Int64("bookingID", bookingID), zap.Error(err))
		return nil, models.NewBookingError(models.CodePaymentInitFailed,
			"payment gateway could not open an invoice")
	}

	s := result.(*stripe.CheckoutSession)
	h.logger.Info("invoice opened",
		zap.Int64("bookingID", bookingID),
		zap.String("invoiceRef", s.ID),
		zap.Int64("amountMinor", amountMinor),
		zap.String("currency", currency))
	return &Invoice{Ref: s.ID, URL: s.URL}, nil
}

// --- VerifyPayment ---
func (h *StripePaymentHandler) VerifyPayment(ctx context.Context, invoiceRef string) (Verdict, error) {
	if invoiceRef == "" {
		return "", models.NewBookingError(models.CodeBadInput, "invoice ref is required")
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	result, err := h.breaker.Execute(func() (interface{}, error) {
		return session.Get(invoiceRef, params)
	})
	if err != nil {
		h.logger.Error("stripe verification failed",
			zap.String("invoiceRef", invoiceRef), zap.Error(err))
		return "", models.NewBookingError(models.CodePaymentVerificationFailed,
			"payment gateway could not report the invoice state")
	}

	s := result.(*stripe.CheckoutSession)
	switch {
	case s.Status == stripe.CheckoutSessionStatusExpired:
		return VerdictCancelled, nil
	case s.Status == stripe.CheckoutSessionStatusOpen:
		return VerdictPending, nil
	case s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		s.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return VerdictPaid, nil
	default:
		return VerdictFailed, nil
	}
}
