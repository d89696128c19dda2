package handlers

import (
	"context"
	"errors"
	"net/http"

	bookingRepo "slotify/database/repository/booking"
	"slotify/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps error codes onto HTTP statuses: 400 for malformed asks, 422
// for policy refusals, 409 for state and concurrency losses, 5xx for
// infrastructure trouble.
func statusFor(code string) int {
	switch code {
	case models.CodeBadInput, models.CodeNoSkillMatch, models.CodeMixedCurrency:
		return http.StatusBadRequest
	case models.CodeLeadTimeBlocked, models.CodeBeyondHorizon,
		models.CodeLockWindow, models.CodeTooManyReschedules:
		return http.StatusUnprocessableEntity
	case models.CodeSlotUnavailable, models.CodeIllegalTransition, models.CodeAlreadyRated:
		return http.StatusConflict
	case models.CodePaymentInitFailed, models.CodePaymentVerificationFailed:
		return http.StatusBadGateway
	case models.CodeNotifierUnavailable:
		return http.StatusServiceUnavailable
	case models.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders any service error as the uniform {error, message}
// body. Typed errors keep their code; anything else is logged and masked.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var be *models.BookingError
	switch {
	case errors.As(err, &be):
		c.JSON(statusFor(be.Code), gin.H{"error": be.Code, "message": be.Message})
	case errors.Is(err, bookingRepo.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND", "message": "booking not found"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": models.CodeTimeout, "message": "request timed out"})
	default:
		logger.Error("Unhandled service error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   models.CodeStoreUnavailable,
			"message": "something went wrong, please try again",
		})
	}
}
