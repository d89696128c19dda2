package booking

import (
	"context"
	"fmt"
	"time"

	"slotify/models"
)

// listLimit bounds a single ListBookings page.
const listLimit = 200

// GetBooking returns one fully materialized view, owner/staff/admin only.
func (m *DefaultBookingMachine) GetBooking(ctx context.Context, callerID, role string, bookingID int64) (*models.BookingView, error) {
	b, err := m.owned(ctx, callerID, role, bookingID)
	if err != nil {
		return nil, err
	}
	views, err := m.toViews(ctx, []models.Booking{*b})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListBookings returns the caller's bookings: upcoming sorts soonest-first,
// history most-recent-first.
func (m *DefaultBookingMachine) ListBookings(ctx context.Context, clientID, mode string) ([]models.BookingView, error) {
	if mode != models.ListModeUpcoming && mode != models.ListModeHistory {
		return nil, models.NewBookingError(models.CodeBadInput,
			fmt.Sprintf("unknown list mode %q, want upcoming or history", mode))
	}
	now := time.Now().UTC()
	bookings, err := m.Repo.ListByClient(ctx, clientID, mode, now, listLimit)
	if err != nil {
		return nil, err
	}
	return m.toViews(ctx, bookings)
}

// toViews denormalizes staff and service names onto the bookings. Names come
// from the cached catalog lists; hidden services and deactivated staff fall
// out of those lists but must keep rendering on old bookings, so misses are
// resolved directly against the store.
func (m *DefaultBookingMachine) toViews(ctx context.Context, bookings []models.Booking) ([]models.BookingView, error) {
	serviceNames := map[string]string{}
	if list, err := m.Catalog.ListServices(ctx); err == nil {
		for _, svc := range list {
			serviceNames[svc.ID] = svc.Name
		}
	}
	staffNames := map[string]string{}
	if list, err := m.Catalog.ListStaff(ctx); err == nil {
		for _, st := range list {
			staffNames[st.ID] = st.DisplayName
		}
	}

	var missing []string
	seen := map[string]bool{}
	for i := range bookings {
		for _, id := range bookings[i].ServiceIDs {
			if _, ok := serviceNames[id]; !ok && !seen[id] {
				seen[id] = true
				missing = append(missing, id)
			}
		}
	}
	if len(missing) > 0 {
		if resolved, err := m.Catalog.GetServicesByIDs(ctx, missing); err == nil {
			for _, svc := range resolved {
				serviceNames[svc.ID] = svc.Name
			}
		}
	}
	for i := range bookings {
		if _, ok := staffNames[bookings[i].StaffID]; !ok {
			if st, err := m.Catalog.GetStaffByID(ctx, bookings[i].StaffID); err == nil {
				staffNames[st.ID] = st.DisplayName
			}
		}
	}

	views := make([]models.BookingView, 0, len(bookings))
	for i := range bookings {
		views = append(views, makeView(&bookings[i], staffNames, serviceNames))
	}
	return views, nil
}

func makeView(b *models.Booking, staffNames, serviceNames map[string]string) models.BookingView {
	names := make([]string, 0, len(b.ServiceIDs))
	for _, id := range b.ServiceIDs {
		names = append(names, serviceNames[id])
	}
	return models.BookingView{
		ID:            b.ID,
		StaffID:       b.StaffID,
		StaffName:     staffNames[b.StaffID],
		ServiceIDs:    b.ServiceIDs,
		ServiceNames:  names,
		StartsAt:      b.StartsAt,
		EndsAt:        b.EndsAt,
		Status:        b.Status,
		Pricing:       b.Pricing,
		HoldExpiresAt: b.HoldExpiresAt,
		InvoiceURL:    b.InvoiceURL,
		Rating:        b.Rating,
		CancelReason:  b.CancelReason,
	}
}
