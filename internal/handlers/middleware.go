package handlers

import (
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"todo_service/internal/identity"
	"todo_service/internal/metrics"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	bearerScheme        = "Bearer"

	errNoToken      = "no token provided"
	errInvalidToken = "invalid token"
)

// userIdentity validates the bearer token and stores the caller id in the
// request context. The id is not re-checked against the user store.
func (h *Handler) userIdentity(c *gin.Context) {
	header := c.GetHeader(authorizationHeader)
	if header == "" {
		metrics.AuthFailuresTotal.WithLabelValues("missing_token").Inc()
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errNoToken})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerScheme || strings.TrimSpace(parts[1]) == "" {
		h.rejectToken(c, "malformed_header")
		return
	}

	userID, err := h.services.ParseToken(parts[1])
	if err != nil {
		h.log.Debugw("auth_token_rejected", "path", c.Request.URL.Path, "err", err)
		h.rejectToken(c, "invalid_token")
		return
	}

	c.Request = c.Request.WithContext(identity.WithUserID(c.Request.Context(), userID))
	c.Next()
}

func (h *Handler) rejectToken(c *gin.Context, reason string) {
	metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidToken})
}

// callerID returns the identity stored by userIdentity.
func callerID(c *gin.Context) string {
	id, _ := identity.UserIDFromContext(c.Request.Context())
	return id
}

// requestLogger logs one line per request; 4xx at warn, 5xx at error.
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		}
		if uid := callerID(c); uid != "" {
			fields = append(fields, "user_id", uid)
		}

		switch {
		case status >= http.StatusInternalServerError:
			h.log.Errorw("http_request", fields...)
		case status >= http.StatusBadRequest:
			h.log.Warnw("http_request", fields...)
		default:
			h.log.Infow("http_request", fields...)
		}
	}
}

// recovery turns panics into a logged 500 with the standard error body.
func (h *Handler) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		h.log.Errorw("panic_recovered",
			"panic", rec,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"stack", string(debug.Stack()),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errInternal})
	})
}
