// File: slotify/handlers/admin.go
package handlers

import (
	"net/http"

	"slotify/models"
	"slotify/services/booking"
	"slotify/services/catalog"
	"slotify/services/events"
	"slotify/services/settings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler encapsulates elevated admin-level operations: catalog
// seeding, policy updates and closing out finished bookings.
type AdminHandler struct {
	Catalog  catalog.Service
	Settings settings.Service
	Machine  booking.Service
	Bus      *events.Bus
	Logger   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cat catalog.Service, set settings.Service, machine booking.Service, bus *events.Bus, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Catalog: cat, Settings: set, Machine: machine, Bus: bus, Logger: logger}
}

// CreateService handles POST /api/admin/services.
func (ah *AdminHandler) CreateService(c *gin.Context) {
	var svc models.Service
	if err := c.ShouldBindJSON(&svc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.CodeBadInput, "message": err.Error()})
		return
	}
	created, err := ah.Catalog.CreateService(c.Request.Context(), &svc)
	if err != nil {
		respondError(c, ah.Logger, err)
		return
	}
	ah.Bus.Publish(models.Event{Type: models.EventCatalogInvalidated})
	c.JSON(http.StatusCreated, created)
}

// CreateStaff handles POST /api/admin/staff.
func (ah *AdminHandler) CreateStaff(c *gin.Context) {
	var st models.Staff
	if err := c.ShouldBindJSON(&st); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.CodeBadInput, "message": err.Error()})
		return
	}
	created, err := ah.Catalog.CreateStaff(c.Request.Context(), &st)
	if err != nil {
		respondError(c, ah.Logger, err)
		return
	}
	ah.Bus.Publish(models.Event{Type: models.EventCatalogInvalidated})
	c.JSON(http.StatusCreated, created)
}

// GetPolicy handles GET /api/admin/policy.
func (ah *AdminHandler) GetPolicy(c *gin.Context) {
	policy, err := ah.Settings.Current(c.Request.Context())
	if err != nil {
		respondError(c, ah.Logger, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

// UpdatePolicy handles PUT /api/admin/policy. Only the supplied fields
// override the configured defaults.
func (ah *AdminHandler) UpdatePolicy(c *gin.Context) {
	var overrides models.PolicyOverrides
	if err := c.ShouldBindJSON(&overrides); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.CodeBadInput, "message": err.Error()})
		return
	}
	policy, err := ah.Settings.Update(c.Request.Context(), &overrides)
	if err != nil {
		respondError(c, ah.Logger, err)
		return
	}
	ah.Bus.Publish(models.Event{Type: models.EventCatalogInvalidated})
	c.JSON(http.StatusOK, policy)
}

// MarkDone handles POST /api/admin/bookings/:id/done.
func (ah *AdminHandler) MarkDone(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := ah.Machine.MarkDone(c.Request.Context(), id)
	if err != nil {
		respondError(c, ah.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": b.ID, "status": b.Status})
}

// MarkNoShow handles POST /api/admin/bookings/:id/no-show.
func (ah *AdminHandler) MarkNoShow(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := ah.Machine.MarkNoShow(c.Request.Context(), id)
	if err != nil {
		respondError(c, ah.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": b.ID, "status": b.Status})
}
