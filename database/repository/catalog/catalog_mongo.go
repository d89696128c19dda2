package catalogRepo

import (
	"context"
	"fmt"
	"time"

	"slotify/database"
	"slotify/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCatalogRepo implements Repository using MongoDB.
type MongoCatalogRepo struct {
	servicesColl *mongo.Collection
	staffColl    *mongo.Collection
}

// NewMongoCatalogRepo constructs a new instance of MongoCatalogRepo.
func NewMongoCatalogRepo() Repository {
	db := database.DB()
	repo := &MongoCatalogRepo{
		servicesColl: db.Collection("services"),
		staffColl:    db.Collection("staff"),
	}
	repo.ensureIndexes()
	return repo
}

// ListServices returns catalog services; onlyVisible filters hidden entries.
func (repo *MongoCatalogRepo) ListServices(ctx context.Context, onlyVisible bool) ([]models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if onlyVisible {
		filter["visible"] = true
	}
	cursor, err := repo.servicesColl.Find(ctx, filter, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, fmt.Errorf("error fetching services: %w", err)
	}
	defer cursor.Close(ctx)

	var services []models.Service
	for cursor.Next(ctx) {
		var svc models.Service
		if err := cursor.Decode(&svc); err != nil {
			return nil, fmt.Errorf("error decoding service: %w", err)
		}
		services = append(services, svc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return services, nil
}

// GetServicesByIDs returns the services for the given ids, preserving the
// request order. Every id must resolve.
func (repo *MongoCatalogRepo) GetServicesByIDs(ctx context.Context, ids []string) ([]models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := repo.servicesColl.Find(ctx, bson.M{"id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("error fetching services by ids: %w", err)
	}
	defer cursor.Close(ctx)

	byID := make(map[string]models.Service, len(ids))
	for cursor.Next(ctx) {
		var svc models.Service
		if err := cursor.Decode(&svc); err != nil {
			return nil, fmt.Errorf("error decoding service: %w", err)
		}
		byID[svc.ID] = svc
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	ordered := make([]models.Service, 0, len(ids))
	for _, id := range ids {
		svc, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("service %s: %w", id, mongo.ErrNoDocuments)
		}
		ordered = append(ordered, svc)
	}
	return ordered, nil
}

// CreateService inserts a new service document.
func (repo *MongoCatalogRepo) CreateService(ctx context.Context, svc *models.Service) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.servicesColl.InsertOne(ctx, svc); err != nil {
		return fmt.Errorf("error creating service: %w", err)
	}
	return nil
}

// ListStaff returns staff members; onlyActive filters deactivated ones.
func (repo *MongoCatalogRepo) ListStaff(ctx context.Context, onlyActive bool) ([]models.Staff, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if onlyActive {
		filter["active"] = true
	}
	cursor, err := repo.staffColl.Find(ctx, filter, options.Find().SetSort(bson.M{"id": 1}))
	if err != nil {
		return nil, fmt.Errorf("error fetching staff: %w", err)
	}
	defer cursor.Close(ctx)

	var staff []models.Staff
	for cursor.Next(ctx) {
		var st models.Staff
		if err := cursor.Decode(&st); err != nil {
			return nil, fmt.Errorf("error decoding staff member: %w", err)
		}
		staff = append(staff, st)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return staff, nil
}

// GetStaffByID retrieves a staff document by ID.
func (repo *MongoCatalogRepo) GetStaffByID(ctx context.Context, staffID string) (*models.Staff, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var st models.Staff
	filter := bson.M{"id": staffID}
	if err := repo.staffColl.FindOne(ctx, filter).Decode(&st); err != nil {
		return nil, fmt.Errorf("error fetching staff member with id %s: %w", staffID, err)
	}
	return &st, nil
}

// CreateStaff inserts a new staff document.
func (repo *MongoCatalogRepo) CreateStaff(ctx context.Context, st *models.Staff) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.staffColl.InsertOne(ctx, st); err != nil {
		return fmt.Errorf("error creating staff member: %w", err)
	}
	return nil
}
