package settingsRepo

import (
	"context"

	"slotify/models"
)

// Repository persists the single business-wide policy override document.
type Repository interface {
	// GetOverrides returns the stored overrides, or an empty value when the
	// business never changed a default.
	GetOverrides(ctx context.Context) (*models.PolicyOverrides, error)

	// SaveOverrides upserts the override document.
	SaveOverrides(ctx context.Context, overrides *models.PolicyOverrides) error
}
