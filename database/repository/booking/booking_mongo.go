package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotify/database"
	"slotify/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements Repository using MongoDB.
type MongoBookingRepo struct {
	bookingColl *mongo.Collection
	eventColl   *mongo.Collection
}

// NewMongoBookingRepo constructs a new instance of MongoBookingRepo.
func NewMongoBookingRepo() Repository {
	db := database.DB()
	repo := &MongoBookingRepo{
		bookingColl: db.Collection("bookings"),
		eventColl:   db.Collection("booking_events"),
	}
	repo.ensureIndexes()
	return repo
}

// GetByID retrieves a booking document by its monotonic id.
func (repo *MongoBookingRepo) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := repo.bookingColl.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching booking %d: %w", id, err)
	}
	return &booking, nil
}

// ListEvents returns the append-only audit trail of one booking.
func (repo *MongoBookingRepo) ListEvents(ctx context.Context, bookingID int64) ([]models.BookingEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := repo.eventColl.Find(ctx, bson.M{"booking_id": bookingID},
		options.Find().SetSort(bson.M{"at": 1}))
	if err != nil {
		return nil, fmt.Errorf("error fetching booking events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.BookingEvent
	for cursor.Next(ctx) {
		var ev models.BookingEvent
		if err := cursor.Decode(&ev); err != nil {
			return nil, fmt.Errorf("error decoding booking event: %w", err)
		}
		events = append(events, ev)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return events, nil
}

// decodeAll drains a cursor of bookings.
func decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]models.Booking, error) {
	defer cursor.Close(ctx)

	var bookings []models.Booking
	for cursor.Next(ctx) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return bookings, nil
}
