package settingsRepo

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

// settingsDocID keys the singleton override document.
const settingsDocID = "business_policy"

type MongoSettingsRepo struct {
	coll *mongo.Collection
}

func NewMongoSettingsRepo() *MongoSettingsRepo {
	return &MongoSettingsRepo{coll: database.DB().Collection("settings")}
}

func (repo *MongoSettingsRepo) GetOverrides(ctx context.Context) (*models.PolicyOverrides, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc struct {
		Overrides models.PolicyOverrides `bson:"overrides"`
	}
	err := repo.coll.FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.PolicyOverrides{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching settings: %w", err)
	}
	return &doc.Overrides, nil
}

func (repo *MongoSettingsRepo) SaveOverrides(ctx context.Context, overrides *models.PolicyOverrides) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"overrides": overrides, "updated_at": time.Now().UTC()}}
	opts := options.Update().SetUpsert(true)
	if _, err := repo.coll.UpdateOne(ctx, bson.M{"_id": settingsDocID}, update, opts); err != nil {
		return fmt.Errorf("error saving settings: %w", err)
	}
	return nil
}
