package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"slotify/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// occupyingFilter matches bookings that block calendar time at `now`:
// confirmed-or-later states always, hold states only while the hold lives.
func occupyingFilter(now time.Time) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"status": bson.M{"$in": bson.A{
			string(models.StatusConfirmed), string(models.StatusPaid), string(models.StatusDone),
		}}},
		bson.M{
			"status":          bson.M{"$in": bson.A{string(models.StatusReserved), string(models.StatusPendingPayment)}},
			"hold_expires_at": bson.M{"$gt": now},
		},
	}}
}

// ListOccupying returns blocking bookings on a staff member intersecting
// [from, to). The query filters starts_at < to; the ends_at > from half of
// the overlap predicate is checked in the loop.
func (repo *MongoBookingRepo) ListOccupying(ctx context.Context, staffID string, from, to, now time.Time) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"staff_id":  staffID,
		"starts_at": bson.M{"$lt": to},
		"$and":      bson.A{occupyingFilter(now)},
	}
	cursor, err := repo.bookingColl.Find(ctx, filter, options.Find().SetSort(bson.M{"starts_at": 1}))
	if err != nil {
		return nil, fmt.Errorf("error finding occupying bookings: %w", err)
	}

	all, err := decodeAll(ctx, cursor)
	if err != nil {
		return nil, err
	}
	var occupying []models.Booking
	for _, b := range all {
		if b.EndsAt.After(from) {
			occupying = append(occupying, b)
		}
	}
	return occupying, nil
}

// findConflict returns the first occupying booking matching ownerField and
// overlapping span, skipping excludeID.
func (repo *MongoBookingRepo) findConflict(ctx context.Context, ownerField, ownerID string, span models.TimeRange, excludeID int64, now time.Time) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		ownerField:  ownerID,
		"starts_at": bson.M{"$lt": span.End},
		"$and":      bson.A{occupyingFilter(now)},
	}
	if excludeID != 0 {
		filter["id"] = bson.M{"$ne": excludeID}
	}
	cursor, err := repo.bookingColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error finding conflicting bookings: %w", err)
	}

	all, err := decodeAll(ctx, cursor)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].EndsAt.After(span.Start) {
			return &all[i], nil
		}
	}
	return nil, nil
}

// FindStaffConflict returns the first blocking overlap on a staff member.
func (repo *MongoBookingRepo) FindStaffConflict(ctx context.Context, staffID string, span models.TimeRange, excludeID int64, now time.Time) (*models.Booking, error) {
	return repo.findConflict(ctx, "staff_id", staffID, span, excludeID, now)
}

// FindClientConflict returns the first blocking overlap held by a client.
func (repo *MongoBookingRepo) FindClientConflict(ctx context.Context, clientID string, span models.TimeRange, excludeID int64, now time.Time) (*models.Booking, error) {
	return repo.findConflict(ctx, "client_id", clientID, span, excludeID, now)
}

// DueHolds returns hold-state bookings whose hold expiry has passed.
func (repo *MongoBookingRepo) DueHolds(ctx context.Context, now time.Time, limit int64) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"status":          bson.M{"$in": bson.A{string(models.StatusReserved), string(models.StatusPendingPayment)}},
		"hold_expires_at": bson.M{"$lte": now},
	}
	cursor, err := repo.bookingColl.Find(ctx, filter,
		options.Find().SetSort(bson.M{"hold_expires_at": 1}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("error finding due holds: %w", err)
	}
	return decodeAll(ctx, cursor)
}

// DueReminders returns confirmed/paid bookings entering the reminder window
// that have not been reminded yet.
func (repo *MongoBookingRepo) DueReminders(ctx context.Context, now time.Time, lead time.Duration, limit int64) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"status":           bson.M{"$in": bson.A{string(models.StatusConfirmed), string(models.StatusPaid)}},
		"reminder_sent_at": bson.M{"$exists": false},
		"starts_at": bson.M{
			"$gt":  now,
			"$lte": now.Add(lead),
		},
	}
	cursor, err := repo.bookingColl.Find(ctx, filter,
		options.Find().SetSort(bson.M{"starts_at": 1}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("error finding due reminders: %w", err)
	}
	return decodeAll(ctx, cursor)
}

// PendingPayments returns PENDING_PAYMENT bookings whose invoice was issued
// before the grace cutoff.
func (repo *MongoBookingRepo) PendingPayments(ctx context.Context, issuedBefore time.Time, limit int64) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"status":            string(models.StatusPendingPayment),
		"invoice_issued_at": bson.M{"$lte": issuedBefore},
	}
	cursor, err := repo.bookingColl.Find(ctx, filter,
		options.Find().SetSort(bson.M{"invoice_issued_at": 1}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("error finding pending payments: %w", err)
	}
	return decodeAll(ctx, cursor)
}

// ListByClient returns a client's bookings. "upcoming" keeps live bookings
// that have not started yet, soonest first; "history" returns everything
// else, most recent first.
func (repo *MongoBookingRepo) ListByClient(ctx context.Context, clientID, mode string, now time.Time, limit int64) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	live := bson.A{
		string(models.StatusReserved), string(models.StatusPendingPayment),
		string(models.StatusConfirmed), string(models.StatusPaid),
	}

	var filter bson.M
	var sort bson.M
	if mode == models.ListModeUpcoming {
		filter = bson.M{
			"client_id": clientID,
			"status":    bson.M{"$in": live},
			"starts_at": bson.M{"$gte": now},
		}
		sort = bson.M{"starts_at": 1}
	} else {
		filter = bson.M{
			"client_id": clientID,
			"$or": bson.A{
				bson.M{"status": bson.M{"$nin": live}},
				bson.M{"starts_at": bson.M{"$lt": now}},
			},
		}
		sort = bson.M{"starts_at": -1}
	}

	cursor, err := repo.bookingColl.Find(ctx, filter,
		options.Find().SetSort(sort).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("error listing bookings for client %s: %w", clientID, err)
	}
	return decodeAll(ctx, cursor)
}
