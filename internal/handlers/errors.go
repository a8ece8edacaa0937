package handlers

import (
	"errors"
	"net/http"

	"todo_service/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errInternal    = "internal server error"
	errInvalidBody = "invalid request body"
	errInvalidID   = "invalid todo id format"
)

// respondError maps service errors to status codes. Anything unrecognised is
// logged under logKey and answered with a generic 500.
func (h *Handler) respondError(c *gin.Context, logKey string, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Msg})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrUnauthorized.Error()})
	case errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidToken})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrNotFound.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": service.ErrConflict.Error()})
	default:
		h.log.Errorw(logKey,
			"err", err,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"user_id", callerID(c),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
	}
}
