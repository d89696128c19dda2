package handlers

import (
	"net/http"
	"strconv"
	"time"

	"slotify/middleware"
	"slotify/models"
	"slotify/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler serves the client-facing booking lifecycle.
type BookingHandler struct {
	Machine booking.Service
	Logger  *zap.Logger
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(machine booking.Service, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Machine: machine, Logger: logger}
}

// bookingID parses the :id path parameter.
func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.CodeBadInput, "message": "booking id must be a positive integer"})
		return 0, false
	}
	return id, true
}

// Hold handles POST /api/bookings. Body: staff_id (optional), service_ids,
// start (RFC 3339), payment_method.
func (h *BookingHandler) Hold(c *gin.Context) {
	var body struct {
		StaffID       string   `json:"staff_id"`
		ServiceIDs    []string `json:"service_ids" binding:"required"`
		Start         string   `json:"start" binding:"required"`
		PaymentMethod string   `json:"payment_method" binding:"required"`
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

	result, err := h.Machine.Hold(c.Request.Context(), booking.HoldRequest{
		ClientID:      middleware.CallerID(c),
		StaffID:       body.StaffID,
		ServiceIDs:    body.ServiceIDs,
		Start:         start,
		PaymentMethod: body.PaymentMethod,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Finalize handles POST /api/bookings/:id/finalize.
func (h *BookingHandler) Finalize(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var body struct {
		PaymentMethod string `json:"payment_method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.CodeBadInput, "message": err.Error()})
		return
	}

	result, err := h.Machine.Finalize(c.Request.Context(), middleware.CallerID(c), id, body.PaymentMethod)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SettlePayment handles POST /api/bookings/:id/settle: the client says "I
// have paid", the machine asks the gateway.
func (h *BookingHandler) SettlePayment(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	// Ownership check before touching the gateway.
	if _, err := h.Machine.GetBooking(c.Request.Context(), middleware.CallerID(c), middleware.Role(c), id); err != nil {
		respondError(c, h.Logger, err)
		return
	}

	b, err := h.Machine.SettlePayment(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": b.ID, "status": b.Status})
}

// Reschedule handles POST /api/bookings/:id/reschedule.
func (h *BookingHandler) Reschedule(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var body struct {
		Start string `json:"start" binding:"required"`
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

	b, err := h.Machine.Reschedule(c.Request.Context(), middleware.CallerID(c), id, start)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Cancel handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := h.Machine.Cancel(c.Request.Context(), middleware.CallerID(c), middleware.Role(c), id)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": b.ID, "status": b.Status, "cancel_reason": b.CancelReason})
}

// Rate handles POST /api/bookings/:id/rating.
func (h *BookingHandler) Rate(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var body struct {
		Rating  int    `json:"rating" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.CodeBadInput, "message": err.Error()})
		return
	}

	if err := h.Machine.Rate(c.Request.Context(), middleware.CallerID(c), id, body.Rating, body.Comment); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "rating": body.Rating})
}

// Get handles GET /api/bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	view, err := h.Machine.GetBooking(c.Request.Context(), middleware.CallerID(c), middleware.Role(c), id)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// List handles GET /api/bookings?mode=upcoming|history.
func (h *BookingHandler) List(c *gin.Context) {
	mode := c.DefaultQuery("mode", models.ListModeUpcoming)
	views, err := h.Machine.ListBookings(c.Request.Context(), middleware.CallerID(c), mode)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode, "bookings": views})
}
