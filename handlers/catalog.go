package handlers

import (
	"net/http"

	"slotify/models"
	"slotify/services/catalog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogHandler serves the public offering catalog.
type CatalogHandler struct {
	Catalog catalog.Service
	Logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(svc catalog.Service, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{Catalog: svc, Logger: logger}
}

// ListServices handles GET /api/catalog/services.
func (h *CatalogHandler) ListServices(c *gin.Context) {
	services, err := h.Catalog.ListServices(c.Request.Context())
	if err != nil {
		h.Logger.Error("ListServices: failed to fetch services", zap.Error(err))
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// ListStaff handles GET /api/catalog/staff. An optional service_ids filter
// narrows the list to staff able to perform the whole bundle.
func (h *CatalogHandler) ListStaff(c *gin.Context) {
	ctx := c.Request.Context()

	var staff []models.Staff
	var err error
	if ids := splitIDs(c.Query("service_ids")); len(ids) > 0 {
		var services []models.Service
		if services, err = h.Catalog.GetServicesByIDs(ctx, ids); err == nil {
			staff, err = h.Catalog.EligibleStaff(ctx, services)
			// Nobody covering the bundle is an empty listing, not a fault.
			if models.ErrCode(err) == models.CodeNoSkillMatch {
				staff, err = []models.Staff{}, nil
			}
		}
	} else {
		staff, err = h.Catalog.ListStaff(ctx)
	}
	if err != nil {
		h.Logger.Error("ListStaff: failed to fetch staff", zap.Error(err))
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": staff})
}
