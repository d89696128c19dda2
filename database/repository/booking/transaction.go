package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotify/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// withTxn runs fn inside a mongo session transaction. The advisory slot lock
// held by the caller strictly encloses this window.
func (repo *MongoBookingRepo) withTxn(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	client := repo.bookingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
}

// appendEvent writes one audit row; always called inside a transaction.
func (repo *MongoBookingRepo) appendEvent(sc mongo.SessionContext, ev models.BookingEvent) error {
	if _, err := repo.eventColl.InsertOne(sc, ev); err != nil {
		return fmt.Errorf("append booking event failed: %w", err)
	}
	return nil
}

// CreateHold re-checks the overlap predicates and inserts the RESERVED row,
// all inside one transaction.
func (repo *MongoBookingRepo) CreateHold(ctx context.Context, booking *models.Booking, now time.Time) error {
	span := models.TimeRange{Start: booking.StartsAt, End: booking.EndsAt}

	return repo.withTxn(ctx, func(sc mongo.SessionContext) error {
		conflict, err := repo.FindStaffConflict(sc, booking.StaffID, span, 0, now)
		if err != nil {
			return err
		}
		if conflict != nil {
			return ErrStaffConflict
		}

		conflict, err = repo.FindClientConflict(sc, booking.ClientID, span, 0, now)
		if err != nil {
			return err
		}
		if conflict != nil {
			return ErrClientConflict
		}

		if _, err := repo.bookingColl.InsertOne(sc, booking); err != nil {
			return fmt.Errorf("insert booking failed: %w", err)
		}
		return repo.appendEvent(sc, models.BookingEvent{
			BookingID: booking.ID,
			To:        models.StatusReserved,
			Actor:     "client",
			At:        now,
		})
	})
}

// Reschedule moves the booking interval after re-checking the staff overlap
// for the new span, excluding the booking itself.
func (repo *MongoBookingRepo) Reschedule(ctx context.Context, id int64, span models.TimeRange, now time.Time) (*models.Booking, error) {
	var updated models.Booking

	err := repo.withTxn(ctx, func(sc mongo.SessionContext) error {
		var current models.Booking
		if err := repo.bookingColl.FindOne(sc, bson.M{"id": id}).Decode(&current); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return fmt.Errorf("error fetching booking %d: %w", id, err)
		}

		conflict, err := repo.FindStaffConflict(sc, current.StaffID, span, id, now)
		if err != nil {
			return err
		}
		if conflict != nil {
			return ErrStaffConflict
		}
		conflict, err = repo.FindClientConflict(sc, current.ClientID, span, id, now)
		if err != nil {
			return err
		}
		if conflict != nil {
			return ErrClientConflict
		}

		filter := bson.M{"id": id, "status": string(current.Status), "starts_at": current.StartsAt}
		update := bson.M{
			"$set": bson.M{
				"starts_at": span.Start,
				"ends_at":   span.End,
			},
			"$inc":   bson.M{"reschedule_count": 1},
			"$unset": bson.M{"reminder_sent_at": ""},
		}
		res, err := repo.bookingColl.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("reschedule update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNoTransition
		}

		if err := repo.appendEvent(sc, models.BookingEvent{
			BookingID: id,
			From:      current.Status,
			To:        current.Status,
			Reason:    "rescheduled",
			Actor:     "client",
			At:        now,
		}); err != nil {
			return err
		}
		if err := repo.bookingColl.FindOne(sc, bson.M{"id": id}).Decode(&updated); err != nil {
			return fmt.Errorf("error fetching booking %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// transition performs one CAS status change guarded by the expected source
// states, appending the audit row in the same transaction.
func (repo *MongoBookingRepo) transition(ctx context.Context, id int64, from []models.BookingStatus, set bson.M, unset bson.M, reason, actor string, now time.Time) (*models.Booking, error) {
	var updated models.Booking

	err := repo.withTxn(ctx, func(sc mongo.SessionContext) error {
		var current models.Booking
		if err := repo.bookingColl.FindOne(sc, bson.M{"id": id}).Decode(&current); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return fmt.Errorf("error fetching booking %d: %w", id, err)
		}
		eligible := false
		for _, s := range from {
			if current.Status == s {
				eligible = true
				break
			}
		}
		if !eligible {
			return ErrNoTransition
		}

		filter := bson.M{"id": id, "status": string(current.Status)}
		update := bson.M{"$set": set}
		if len(unset) > 0 {
			update["$unset"] = unset
		}
		res, err := repo.bookingColl.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("transition update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNoTransition
		}

		to, _ := set["status"].(string)
		if err := repo.appendEvent(sc, models.BookingEvent{
			BookingID: id,
			From:      current.Status,
			To:        models.BookingStatus(to),
			Reason:    reason,
			Actor:     actor,
			At:        now,
		}); err != nil {
			return err
		}
		if err := repo.bookingColl.FindOne(sc, bson.M{"id": id}).Decode(&updated); err != nil {
			return fmt.Errorf("error fetching booking %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ConfirmCash moves RESERVED to CONFIRMED and clears the hold.
func (repo *MongoBookingRepo) ConfirmCash(ctx context.Context, id int64, actor string, now time.Time) (*models.Booking, error) {
	return repo.transition(ctx, id,
		[]models.BookingStatus{models.StatusReserved},
		bson.M{"status": string(models.StatusConfirmed), "confirmed_at": now},
		bson.M{"hold_expires_at": ""},
		models.PaymentCash, actor, now)
}

// MarkPendingPayment moves RESERVED to PENDING_PAYMENT, keeping the hold
// until the payment resolves.
func (repo *MongoBookingRepo) MarkPendingPayment(ctx context.Context, id int64, invoiceRef, invoiceURL, actor string, now time.Time) (*models.Booking, error) {
	return repo.transition(ctx, id,
		[]models.BookingStatus{models.StatusReserved},
		bson.M{
			"status":            string(models.StatusPendingPayment),
			"invoice_ref":       invoiceRef,
			"invoice_url":       invoiceURL,
			"invoice_issued_at": now,
		},
		nil,
		models.PaymentOnline, actor, now)
}

// MarkPaid moves PENDING_PAYMENT to PAID and clears the hold.
func (repo *MongoBookingRepo) MarkPaid(ctx context.Context, id int64, actor string, now time.Time) (*models.Booking, error) {
	return repo.transition(ctx, id,
		[]models.BookingStatus{models.StatusPendingPayment},
		bson.M{"status": string(models.StatusPaid), "paid_at": now},
		bson.M{"hold_expires_at": ""},
		"payment_verified", actor, now)
}

// Finish moves CONFIRMED/PAID to DONE or NO_SHOW.
func (repo *MongoBookingRepo) Finish(ctx context.Context, id int64, to models.BookingStatus, actor string, now time.Time) (*models.Booking, error) {
	if to != models.StatusDone && to != models.StatusNoShow {
		return nil, fmt.Errorf("finish target %s: %w", to, ErrNoTransition)
	}
	return repo.transition(ctx, id,
		[]models.BookingStatus{models.StatusConfirmed, models.StatusPaid},
		bson.M{"status": string(to), "finished_at": now},
		nil,
		"", actor, now)
}

// Cancel moves any non-terminal state to CANCELLED (or EXPIRED for the hold
// expirer) and clears the hold.
func (repo *MongoBookingRepo) Cancel(ctx context.Context, id int64, to models.BookingStatus, reason, actor string, now time.Time) (*models.Booking, error) {
	if to != models.StatusCancelled && to != models.StatusExpired {
		return nil, fmt.Errorf("cancel target %s: %w", to, ErrNoTransition)
	}
	from := []models.BookingStatus{
		models.StatusReserved, models.StatusPendingPayment,
		models.StatusConfirmed, models.StatusPaid,
	}
	if to == models.StatusExpired {
		// Only live holds expire.
		from = []models.BookingStatus{models.StatusReserved, models.StatusPendingPayment}
	}
	return repo.transition(ctx, id, from,
		bson.M{"status": string(to), "cancelled_at": now, "cancel_reason": reason},
		bson.M{"hold_expires_at": ""},
		reason, actor, now)
}

// SetRating stores the one-shot rating on a DONE booking.
func (repo *MongoBookingRepo) SetRating(ctx context.Context, id int64, rating int, comment string, now time.Time) (*models.Booking, error) {
	var updated models.Booking

	err := repo.withTxn(ctx, func(sc mongo.SessionContext) error {
		var current models.Booking
		if err := repo.bookingColl.FindOne(sc, bson.M{"id": id}).Decode(&current); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return fmt.Errorf("error fetching booking %d: %w", id, err)
		}
		if current.Status != models.StatusDone {
			return ErrNoTransition
		}
		if current.Rating != nil {
			return ErrAlreadyRated
		}

		filter := bson.M{"id": id, "status": string(models.StatusDone), "rating": bson.M{"$exists": false}}
		set := bson.M{"rating": rating}
		if comment != "" {
			set["rating_comment"] = comment
		}
		res, err := repo.bookingColl.UpdateOne(sc, filter, bson.M{"$set": set})
		if err != nil {
			return fmt.Errorf("rating update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrAlreadyRated
		}

		if err := repo.appendEvent(sc, models.BookingEvent{
			BookingID: id,
			From:      models.StatusDone,
			To:        models.StatusDone,
			Reason:    "rated",
			Actor:     "client",
			At:        now,
		}); err != nil {
			return err
		}
		if err := repo.bookingColl.FindOne(sc, bson.M{"id": id}).Decode(&updated); err != nil {
			return fmt.Errorf("error fetching booking %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// MarkReminderSent flips the reminder flag exactly once per booking. A false
// return means another replica already sent it or the booking left a
// remindable state.
func (repo *MongoBookingRepo) MarkReminderSent(ctx context.Context, id int64, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":               id,
		"status":           bson.M{"$in": bson.A{string(models.StatusConfirmed), string(models.StatusPaid)}},
		"reminder_sent_at": bson.M{"$exists": false},
	}
	res, err := repo.bookingColl.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"reminder_sent_at": now}})
	if err != nil {
		return false, fmt.Errorf("reminder flag update failed: %w", err)
	}
	return res.ModifiedCount == 1, nil
}
