package pricing

import (
	"context"
	"fmt"

	"slotify/models"
	"slotify/services/catalog"
	"slotify/services/settings"
)

// Engine computes pricing snapshots. All money arithmetic is integer on
// minor units; the snapshot is bound to the booking at hold time and never
// recomputed afterwards.
type Engine interface {
	// Quote resolves the bundle and staff, then prices it. An empty staffID
	// quotes at nominal speed.
	Quote(ctx context.Context, serviceIDs []string, staffID, paymentMethod string) (*models.PricingSnapshot, error)

	// Compute prices an already-resolved bundle against a policy snapshot.
	Compute(services []models.Service, staff *models.Staff, paymentMethod string, policy models.Policy) (*models.PricingSnapshot, error)
}

type DefaultPricingEngine struct {
	Catalog  catalog.Service
	Settings settings.Service
}

func (e *DefaultPricingEngine) Quote(ctx context.Context, serviceIDs []string, staffID, paymentMethod string) (*models.PricingSnapshot, error) {
	policy, err := e.Settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	services, err := e.Catalog.GetServicesByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}

	var staff *models.Staff
	if staffID != "" {
		staff, err = e.Catalog.GetStaffByID(ctx, staffID)
		if err != nil {
			return nil, err
		}
		for i := range services {
			if !staff.CanPerform(&services[i]) {
				return nil, models.NewBookingError(models.CodeNoSkillMatch,
					fmt.Sprintf("staff %s does not offer %s", staffID, services[i].Name))
			}
		}
	}
	return e.Compute(services, staff, paymentMethod, policy)
}

func (e *DefaultPricingEngine) Compute(services []models.Service, staff *models.Staff, paymentMethod string, policy models.Policy) (*models.PricingSnapshot, error) {
	if len(services) == 0 {
		return nil, models.NewBookingError(models.CodeBadInput, "at least one service is required")
	}
	if paymentMethod != models.PaymentCash && paymentMethod != models.PaymentOnline {
		return nil, models.NewBookingError(models.CodeBadInput,
			fmt.Sprintf("payment method must be %q or %q", models.PaymentCash, models.PaymentOnline))
	}

	currency := services[0].Currency
	var original int64
	for i := range services {
		if services[i].Currency != currency {
			return nil, models.NewBookingError(models.CodeMixedCurrency,
				fmt.Sprintf("bundle mixes currencies %s and %s", currency, services[i].Currency))
		}
		original += services[i].PriceMinor
	}
	if policy.Currency != "" && currency != policy.Currency {
		return nil, models.NewBookingError(models.CodeMixedCurrency,
			fmt.Sprintf("bundle priced in %s but the business charges %s", currency, policy.Currency))
	}

	var discount int64
	percent := 0
	if paymentMethod == models.PaymentOnline && policy.OnlineEnabled && policy.OnlineDiscountPercent > 0 {
		percent = policy.OnlineDiscountPercent
		// Integer floor division keeps the discount within [0, original].
		discount = original * int64(percent) / 100
	}

	return &models.PricingSnapshot{
		OriginalMinor:            original,
		DiscountMinor:            discount,
		FinalMinor:               original - discount,
		DiscountPercent:          percent,
		Currency:                 currency,
		PaymentMethod:            paymentMethod,
		EffectiveDurationMinutes: models.EffectiveDurationMinutes(services, staff),
	}, nil
}
