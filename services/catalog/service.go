package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	catalogRepo "slotify/database/repository/catalog"
	"slotify/models"
	"slotify/utils"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	servicesCacheKey = "services_visible"
	staffCacheKey    = "staff_active"
)

// Service is the read side of the offering catalog plus the admin mutations
// that seed it. List results are cached process-locally; mutations invalidate.
type Service interface {
	// ListServices returns the visible services, cheapest-maintained order.
	ListServices(ctx context.Context) ([]models.Service, error)

	// GetServicesByIDs resolves the requested ids in request order. Hidden
	// services resolve too: existing bookings keep rendering after a service
	// is unlisted.
	GetServicesByIDs(ctx context.Context, ids []string) ([]models.Service, error)

	// ListStaff returns the active staff members.
	ListStaff(ctx context.Context) ([]models.Staff, error)

	GetStaffByID(ctx context.Context, id string) (*models.Staff, error)

	// EligibleStaff returns the active staff members whose skills cover every
	// requested service. NO_SKILL_MATCH when nobody qualifies.
	EligibleStaff(ctx context.Context, services []models.Service) ([]models.Staff, error)

	// CreateService and CreateStaff back the admin seeding endpoints.
	CreateService(ctx context.Context, svc *models.Service) (*models.Service, error)
	CreateStaff(ctx context.Context, st *models.Staff) (*models.Staff, error)

	// Invalidate drops the cached lists after an out-of-band catalog change.
	Invalidate()
}

type DefaultCatalogService struct {
	Repo     catalogRepo.Repository
	CacheTTL time.Duration

	once  sync.Once
	cache *gocache.Cache
}

func (s *DefaultCatalogService) store() *gocache.Cache {
	s.once.Do(func() {
		ttl := s.CacheTTL
		if ttl <= 0 {
			ttl = 60 * time.Second
		}
		s.cache = gocache.New(ttl, 2*ttl)
	})
	return s.cache
}

func (s *DefaultCatalogService) ListServices(ctx context.Context) ([]models.Service, error) {
	if v, found := s.store().Get(servicesCacheKey); found {
		if list, ok := v.([]models.Service); ok {
			return list, nil
		}
	}
	list, err := s.Repo.ListServices(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	s.store().SetDefault(servicesCacheKey, list)
	return list, nil
}

func (s *DefaultCatalogService) GetServicesByIDs(ctx context.Context, ids []string) ([]models.Service, error) {
	if len(ids) == 0 {
		return nil, models.NewBookingError(models.CodeBadInput, "at least one service id is required")
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return nil, models.NewBookingError(models.CodeBadInput, "service ids must not be empty")
		}
		if seen[id] {
			return nil, models.NewBookingError(models.CodeBadInput, fmt.Sprintf("duplicate service id %s", id))
		}
		seen[id] = true
	}

	services, err := s.Repo.GetServicesByIDs(ctx, ids)
	if err != nil {
		return nil, models.NewBookingError(models.CodeBadInput, fmt.Sprintf("unknown service: %v", err))
	}
	return services, nil
}

func (s *DefaultCatalogService) ListStaff(ctx context.Context) ([]models.Staff, error) {
	if v, found := s.store().Get(staffCacheKey); found {
		if list, ok := v.([]models.Staff); ok {
			return list, nil
		}
	}
	list, err := s.Repo.ListStaff(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	s.store().SetDefault(staffCacheKey, list)
	return list, nil
}

func (s *DefaultCatalogService) GetStaffByID(ctx context.Context, id string) (*models.Staff, error) {
	if strings.TrimSpace(id) == "" {
		return nil, models.NewBookingError(models.CodeBadInput, "staff id is required")
	}
	st, err := s.Repo.GetStaffByID(ctx, id)
	if err != nil {
		return nil, models.NewBookingError(models.CodeBadInput, fmt.Sprintf("unknown staff %s", id))
	}
	return st, nil
}

func (s *DefaultCatalogService) EligibleStaff(ctx context.Context, services []models.Service) ([]models.Staff, error) {
	staff, err := s.ListStaff(ctx)
	if err != nil {
		return nil, err
	}

	var eligible []models.Staff
	for _, st := range staff {
		if !st.Active {
			continue
		}
		qualified := true
		for i := range services {
			if !st.CanPerform(&services[i]) {
				qualified = false
				break
			}
		}
		if qualified {
			eligible = append(eligible, st)
		}
	}
	if len(eligible) == 0 {
		return nil, models.NewBookingError(models.CodeNoSkillMatch, "no staff member covers the requested services")
	}
	return eligible, nil
}

func (s *DefaultCatalogService) CreateService(ctx context.Context, svc *models.Service) (*models.Service, error) {
	if err := validateService(svc); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if svc.ID == "" {
		svc.ID = uuid.New().String()
	}
	svc.CreatedAt = now
	svc.UpdatedAt = now

	if err := s.Repo.CreateService(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	s.Invalidate()

	utils.GetLogger().Info("service created",
		zap.String("serviceID", svc.ID), zap.String("name", svc.Name))
	return svc, nil
}

func (s *DefaultCatalogService) CreateStaff(ctx context.Context, st *models.Staff) (*models.Staff, error) {
	if err := validateStaff(st); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	st.CreatedAt = now
	st.UpdatedAt = now

	if err := s.Repo.CreateStaff(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}
	s.Invalidate()

	utils.GetLogger().Info("staff created",
		zap.String("staffID", st.ID), zap.String("name", st.DisplayName))
	return st, nil
}

func (s *DefaultCatalogService) Invalidate() {
	s.store().Delete(servicesCacheKey)
	s.store().Delete(staffCacheKey)
}

func validateService(svc *models.Service) error {
	if svc == nil {
		return models.NewBookingError(models.CodeBadInput, "service payload is required")
	}
	if strings.TrimSpace(svc.Name) == "" {
		return models.NewBookingError(models.CodeBadInput, "service name is required")
	}
	if svc.DurationMinutes <= 0 {
		return models.NewBookingError(models.CodeBadInput, "service duration must be positive")
	}
	if svc.PriceMinor < 0 {
		return models.NewBookingError(models.CodeBadInput, "service price must not be negative")
	}
	if len(svc.Currency) != 3 {
		return models.NewBookingError(models.CodeBadInput, "service currency must be a 3-letter code")
	}
	return nil
}

func validateStaff(st *models.Staff) error {
	if st == nil {
		return models.NewBookingError(models.CodeBadInput, "staff payload is required")
	}
	if strings.TrimSpace(st.DisplayName) == "" {
		return models.NewBookingError(models.CodeBadInput, "staff display name is required")
	}
	for _, w := range st.Windows {
		if w.Weekday < 0 || w.Weekday > 6 {
			return models.NewBookingError(models.CodeBadInput, "work window weekday must be in 0..6")
		}
		if w.StartMinute < 0 || w.EndMinute > 24*60 || w.StartMinute >= w.EndMinute {
			return models.NewBookingError(models.CodeBadInput, "work window must start before it ends within one day")
		}
	}
	for _, b := range st.Breaks {
		if b.Weekday < 0 || b.Weekday > 6 {
			return models.NewBookingError(models.CodeBadInput, "break weekday must be in 0..6")
		}
		if b.StartMinute < 0 || b.EndMinute > 24*60 || b.StartMinute >= b.EndMinute {
			return models.NewBookingError(models.CodeBadInput, "break must start before it ends within one day")
		}
	}
	for svcID, speed := range st.Speed {
		if speed <= 0 {
			return models.NewBookingError(models.CodeBadInput, fmt.Sprintf("speed factor for %s must be positive", svcID))
		}
	}
	return nil
}
