package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"slotify/middleware"
	"slotify/models"
	"slotify/services/availability"
	"slotify/services/pricing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AvailabilityHandler serves day, slot and quote lookups.
type AvailabilityHandler struct {
	Engine  availability.Engine
	Pricing pricing.Engine
	Logger  *zap.Logger
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(engine availability.Engine, pricingEngine pricing.Engine, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{Engine: engine, Pricing: pricingEngine, Logger: logger}
}

// splitIDs parses the comma-separated service_ids query parameter.
func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

// AvailableDays handles GET /api/availability/days.
// Query: staff_id (optional, empty = any staff), year, month, service_ids.
func (h *AvailabilityHandler) AvailableDays(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.CodeBadInput, "message": "year must be an integer"})
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.CodeBadInput, "message": "month must be an integer"})
		return
	}

	days, err := h.Engine.AvailableDays(c.Request.Context(), c.Query("staff_id"), year, month, splitIDs(c.Query("service_ids")))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, days)
}

// Slots handles GET /api/availability/slots.
// Query: staff_id (optional), date (YYYY-MM-DD, business timezone), service_ids.
func (h *AvailabilityHandler) Slots(c *gin.Context) {
	slots, err := h.Engine.Slots(c.Request.Context(), c.Query("staff_id"), c.Query("date"), splitIDs(c.Query("service_ids")))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// CheckSlot handles POST /api/availability/check. The caller identity feeds
// the client-overlap scan, so the route runs authenticated.
func (h *AvailabilityHandler) CheckSlot(c *gin.Context) {
	var body struct {
		StaffID    string   `json:"staff_id"`
		ServiceIDs []string `json:"service_ids" binding:"required"`
		Start      string   `json:"start" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.CodeBadInput, "message": err.Error()})
		return
	}
	start, err := time.Parse(time.RFC3339, body.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.CodeBadInput, "message": "start must be RFC 3339"})
		return
	}

	check, err := h.Engine.CheckSlot(c.Request.Context(), body.StaffID, middleware.CallerID(c), start, body.ServiceIDs)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

// Quote handles POST /api/quote. Pure arithmetic; nothing is reserved.
func (h *AvailabilityHandler) Quote(c *gin.Context) {
	var body struct {
		ServiceIDs    []string `json:"service_ids" binding:"required"`
		StaffID       string   `json:"staff_id"`
		PaymentMethod string   `json:"payment_method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.CodeBadInput, "message": err.Error()})
		return
	}

	quote, err := h.Pricing.Quote(c.Request.Context(), body.ServiceIDs, body.StaffID, body.PaymentMethod)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}
