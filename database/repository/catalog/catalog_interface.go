package catalogRepo

import (
	"context"

	"slotify/models"
)

// Repository provides read and seed access to the service/staff catalog.
type Repository interface {
	ListServices(ctx context.Context, onlyVisible bool) ([]models.Service, error)
	GetServicesByIDs(ctx context.Context, ids []string) ([]models.Service, error)
	CreateService(ctx context.Context, svc *models.Service) error

	ListStaff(ctx context.Context, onlyActive bool) ([]models.Staff, error)
	GetStaffByID(ctx context.Context, staffID string) (*models.Staff, error)
	CreateStaff(ctx context.Context, st *models.Staff) error
}
