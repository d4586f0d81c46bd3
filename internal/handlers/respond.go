package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/haramapp/lottery-backend/internal/services"
	"golang.org/x/exp/slog"
)

// respondError maps service errors onto HTTP status codes. Unknown errors
// become a generic 500 so internals never leak to clients.
func respondError(c *gin.Context, err error) {
	if verr, ok := services.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
		return
	}

	switch {
	case errors.Is(err, services.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrCodeExpired),
		errors.Is(err, services.ErrCodeMismatch),
		errors.Is(err, services.ErrUserExists),
		errors.Is(err, services.ErrRegistrationClosed),
		errors.Is(err, services.ErrAlreadyParticipated),
		errors.Is(err, services.ErrRecentWinner),
		errors.Is(err, services.ErrDeadlinePassed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrCodeNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNoWinningTicket):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		slog.Error("Request failed with internal error", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
