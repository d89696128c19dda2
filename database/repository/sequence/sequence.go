package sequenceRepo

import (
	"context"
	"fmt"
	"time"

	"slotify/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSequenceRepo hands out monotonically increasing int64 ids from a
// counters collection, one document per sequence name.
type MongoSequenceRepo struct {
	coll *mongo.Collection
}

func NewMongoSequenceRepo() *MongoSequenceRepo {
	return &MongoSequenceRepo{coll: database.DB().Collection("counters")}
}

// Next atomically increments and returns the named counter. The first call
// for a name returns 1.
func (repo *MongoSequenceRepo) Next(ctx context.Context, name string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"_id": name}
	update := bson.M{"$inc": bson.M{"value": int64(1)}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Value int64 `bson:"value"`
	}
	if err := repo.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return 0, fmt.Errorf("sequence %s: %w", name, err)
	}
	return doc.Value, nil
}
