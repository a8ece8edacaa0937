package handlers

import (
	"errors"
	"net/http"

	"todo_service/internal/metrics"
	"todo_service/internal/service"

	"github.com/gin-gonic/gin"
)

// Single, shared credentials payload for both register and login.
type authCredentials struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"correct-horse"`
}

type registerResponse struct {
	Message string `json:"message" example:"user registered successfully"`
	ID      string `json:"id" example:"3f9c1a9e-6a8e-4c55-9e59-0b1c0e3c9a11"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.log.Infow("bad_request_body", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return false
	}
	return true
}

// @Summary      Register a user
// @Description  Username is trimmed and must be unique; password needs 8 to 72 bytes.
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      authCredentials  true  "Credentials"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /user/register [post]
func (h *Handler) register(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return
	}

	id, err := h.services.SignUp(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(outcome(err)).Inc()
		h.log.Infow("auth_sign_up_failed", "username", input.Username, "err", err)
		h.respondError(c, "auth_sign_up_error", err)
		return
	}

	metrics.RegistrationsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusCreated, registerResponse{Message: "user registered successfully", ID: id})
}

// @Summary      Log in
// @Description  Returns a bearer token valid for one hour.
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      authCredentials  true  "Credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /user/login [post]
func (h *Handler) login(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return
	}
	if input.Username == "" || input.Password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := h.services.GenerateToken(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(outcome(err)).Inc()
		h.log.Infow("auth_sign_in_failed", "username", input.Username, "err", err)
		h.respondError(c, "auth_sign_in_error", err)
		return
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func outcome(err error) string {
	switch {
	case errors.Is(err, service.ErrValidation):
		return "invalid"
	case errors.Is(err, service.ErrConflict):
		return "conflict"
	case errors.Is(err, service.ErrUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}
