package catalogRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates indexes for frequently used catalog queries.
func (repo *MongoCatalogRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serviceModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "visible", Value: 1}, {Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "skills", Value: 1}}},
	}
	if _, err := repo.servicesColl.Indexes().CreateMany(ctx, serviceModels); err != nil {
		return fmt.Errorf("failed to create service indexes: %w", err)
	}

	staffModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "active", Value: 1}}},
		{Keys: bson.D{{Key: "skills", Value: 1}}},
	}
	if _, err := repo.staffColl.Indexes().CreateMany(ctx, staffModels); err != nil {
		return fmt.Errorf("failed to create staff indexes: %w", err)
	}
	return nil
}
