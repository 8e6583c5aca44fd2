package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/sentinel/internal/api/middleware"
	"github.com/Wikid82/sentinel/internal/security"
	"github.com/Wikid82/sentinel/internal/services"
)

// respondError maps service errors onto status codes. Precondition
// violations are the caller's fault and echo their message; anything else
// is logged and reported generically.
func respondError(c *gin.Context, err error, msg string) {
	switch {
	case security.IsPrecondition(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEventNotFound), errors.Is(err, services.ErrReputationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		middleware.GetRequestLogger(c).WithError(err).Error(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
