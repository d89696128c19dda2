package settings

import (
	"context"
	"fmt"
	"sync"
	"time"

	settingsRepo "slotify/database/repository/settings"
	"slotify/models"
	"slotify/utils"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const policyCacheKey = "effective_policy"

// Service hands out effective policy snapshots. Every request and worker
// sweep reads one snapshot up front and never re-reads mid-flight, so a
// concurrent admin update cannot split a single operation across two policy
// versions.
type Service interface {
	// Current returns the effective policy: configured defaults merged with
	// the persisted overrides. Cached for CacheTTL.
	Current(ctx context.Context) (models.Policy, error)

	// Update validates and persists the overrides, then refreshes the cache.
	Update(ctx context.Context, overrides *models.PolicyOverrides) (models.Policy, error)

	// Invalidate drops the cached snapshot after an out-of-band policy change.
	Invalidate()
}

type DefaultSettingsService struct {
	Repo     settingsRepo.Repository
	Defaults models.Policy
	CacheTTL time.Duration

	once  sync.Once
	cache *gocache.Cache
}

func (s *DefaultSettingsService) store() *gocache.Cache {
	s.once.Do(func() {
		ttl := s.CacheTTL
		if ttl <= 0 {
			ttl = 60 * time.Second
		}
		s.cache = gocache.New(ttl, 2*ttl)
	})
	return s.cache
}

func (s *DefaultSettingsService) Current(ctx context.Context) (models.Policy, error) {
	if v, found := s.store().Get(policyCacheKey); found {
		if p, ok := v.(models.Policy); ok {
			return p, nil
		}
	}

	overrides, err := s.Repo.GetOverrides(ctx)
	if err != nil {
		return models.Policy{}, fmt.Errorf("failed to load policy overrides: %w", err)
	}
	policy := overrides.Apply(s.Defaults)
	s.store().SetDefault(policyCacheKey, policy)
	return policy, nil
}

func (s *DefaultSettingsService) Update(ctx context.Context, overrides *models.PolicyOverrides) (models.Policy, error) {
	if err := validateOverrides(overrides); err != nil {
		return models.Policy{}, err
	}
	if err := s.Repo.SaveOverrides(ctx, overrides); err != nil {
		return models.Policy{}, fmt.Errorf("failed to save policy overrides: %w", err)
	}

	policy := overrides.Apply(s.Defaults)
	s.store().SetDefault(policyCacheKey, policy)

	utils.GetLogger().Info("business policy updated",
		zap.Int("hold_ttl_minutes", policy.HoldTTLMinutes),
		zap.Int("online_discount_percent", policy.OnlineDiscountPercent),
		zap.Bool("online_enabled", policy.OnlineEnabled))
	return policy, nil
}

func (s *DefaultSettingsService) Invalidate() {
	s.store().Delete(policyCacheKey)
}

func validateOverrides(o *models.PolicyOverrides) error {
	if o == nil {
		return models.NewBookingError(models.CodeBadInput, "overrides payload is required")
	}
	if o.HoldTTLMinutes != nil && *o.HoldTTLMinutes <= 0 {
		return models.NewBookingError(models.CodeBadInput, "hold_ttl_minutes must be positive")
	}
	if o.SlotGridMinutes != nil && (*o.SlotGridMinutes <= 0 || *o.SlotGridMinutes > 60) {
		return models.NewBookingError(models.CodeBadInput, "slot_grid_minutes must be in 1..60")
	}
	if o.OnlineDiscountPercent != nil && (*o.OnlineDiscountPercent < 0 || *o.OnlineDiscountPercent > 100) {
		return models.NewBookingError(models.CodeBadInput, "online_discount_percent must be in 0..100")
	}
	if o.LeadTimeMinutes != nil && *o.LeadTimeMinutes < 0 {
		return models.NewBookingError(models.CodeBadInput, "lead_time_minutes must not be negative")
	}
	if o.FutureWindowDays != nil && *o.FutureWindowDays <= 0 {
		return models.NewBookingError(models.CodeBadInput, "future_window_days must be positive")
	}
	if o.RescheduleLockHours != nil && *o.RescheduleLockHours < 0 {
		return models.NewBookingError(models.CodeBadInput, "reschedule_lock_hours must not be negative")
	}
	if o.CancelLockHours != nil && *o.CancelLockHours < 0 {
		return models.NewBookingError(models.CodeBadInput, "cancel_lock_hours must not be negative")
	}
	if o.RescheduleMaxCount != nil && *o.RescheduleMaxCount < 0 {
		return models.NewBookingError(models.CodeBadInput, "reschedule_max_count must not be negative")
	}
	if o.ReminderLeadMinutes != nil && *o.ReminderLeadMinutes < 0 {
		return models.NewBookingError(models.CodeBadInput, "reminder_lead_minutes must not be negative")
	}
	return nil
}
