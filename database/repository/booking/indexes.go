package bookingRepo

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates the indexes backing the overlap scans, the agenda
// reads and the lifecycle sweeps.
func (repo *MongoBookingRepo) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	bookingColl, eventColl := repo.bookingColl, repo.eventColl

	bookingIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Staff overlap scans and agenda listings.
			Keys: bson.D{{Key: "staff_id", Value: 1}, {Key: "starts_at", Value: 1}},
		},
		{
			// Client overlap scans and booking lists.
			Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "starts_at", Value: 1}},
		},
		{
			// Hold expirer and payment reconciler sweeps.
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "hold_expires_at", Value: 1}},
		},
		{
			// Reminder sweep.
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "starts_at", Value: 1}},
		},
	}
	if _, err := bookingColl.Indexes().CreateMany(ctx, bookingIndexes); err != nil {
		log.Printf("warning: failed to create booking indexes: %v", err)
	}

	eventIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "at", Value: 1}},
		},
	}
	if _, err := eventColl.Indexes().CreateMany(ctx, eventIndexes); err != nil {
		log.Printf("warning: failed to create booking event indexes: %v", err)
	}
}
