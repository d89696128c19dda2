package booking

import (
	"context"

	bookingRepo "slotify/database/repository/booking"
	"slotify/models"
	"slotify/services/availability"
	"slotify/services/catalog"
	"slotify/services/events"
	"slotify/services/payments"
	"slotify/services/pricing"
	"slotify/services/settings"
	"slotify/utils"
)

// DefaultBookingMachine drives every booking write. Writes follow one shape:
// load a policy snapshot, take the advisory slot lock where intervals are
// involved, run the conditional transition in the store, then publish the
// domain event after commit.
type DefaultBookingMachine struct {
	Repo     bookingRepo.Repository
	Seq      Sequencer
	Catalog  catalog.Service
	Engine   availability.Engine
	Pricing  pricing.Engine
	Settings settings.Service
	Payments payments.Handler
	Locks    Locker
	Bus      *events.Bus
}

// owned loads a booking and enforces visibility: clients see their own
// bookings, staff the ones on their calendar, admins everything. Foreign
// bookings surface as not-found.
func (m *DefaultBookingMachine) owned(ctx context.Context, callerID, role string, id int64) (*models.Booking, error) {
	b, err := m.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch role {
	case models.RoleAdmin:
		return b, nil
	case models.RoleStaff:
		if b.StaffID == callerID {
			return b, nil
		}
	default:
		if b.ClientID == callerID {
			return b, nil
		}
	}
	return nil, bookingRepo.ErrNotFound
}

// publishBooking emits one domain event for a committed transition and bumps
// the transition counter.
func (m *DefaultBookingMachine) publishBooking(t models.EventType, b *models.Booking, reason string) {
	snap := b.Pricing
	m.Bus.Publish(models.Event{
		Type:       t,
		BookingID:  b.ID,
		StaffID:    b.StaffID,
		ClientID:   b.ClientID,
		Status:     b.Status,
		Pricing:    &snap,
		StartsAt:   b.StartsAt,
		Reason:     reason,
		InvoiceURL: b.InvoiceURL,
	})
	utils.BookingTransitions.WithLabelValues(string(b.Status), reason).Inc()
}
