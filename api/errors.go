package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/travelbook/internal/domain"
	"github.com/gin-gonic/gin"
)

// respondError maps the domain error taxonomy onto HTTP statuses. Internal
// failures are not echoed back to the caller.
func respondError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err), errors.Is(err, domain.ErrNotEnoughSeats):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case domain.IsConflict(err), errors.Is(err, domain.ErrTryAgain):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
