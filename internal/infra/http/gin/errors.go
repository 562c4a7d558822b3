package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"meytle/internal/app/uow"
	domainbooking "meytle/internal/domain/booking"
	domaincatalog "meytle/internal/domain/catalog"
	domaincompanion "meytle/internal/domain/companion"
	domainreviews "meytle/internal/domain/reviews"
	"meytle/internal/domain/shared/fault"
	domainuser "meytle/internal/domain/user"
)

// respondError maps domain failures onto HTTP statuses. Anything unmapped is
// a 500 with a generic body so internals never leak to clients.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var validation *fault.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message, "field": validation.Field})
		return
	}
	switch {
	case fault.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case fault.IsAuthorization(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case fault.IsNotFound(err),
		errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domaincompanion.ErrNotFound),
		errors.Is(err, domaincatalog.ErrNotFound),
		errors.Is(err, domainreviews.ErrNotFound),
		errors.Is(err, domainuser.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domaincompanion.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, uow.ErrUnitOfWorkMissing):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	default:
		if logger != nil {
			logger.Error("request failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
