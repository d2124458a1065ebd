package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"atelier/internal/core"
)

// Handler provides authentication HTTP handlers
type Handler struct {
	service *Service
	logger  *core.Logger
}

// NewHandler creates a new authentication handler
func NewHandler(service *Service, logger *core.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginHandler checks the admin password so the SPA can keep it as its admin token
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.HandleError(w, core.NewValidationError("Invalid request body", err))
		return
	}

	err := h.service.Verify(req.Password)
	switch {
	case err == nil:
		h.logger.Info("Admin login succeeded", "remote_addr", r.RemoteAddr)
		core.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case errors.Is(err, ErrNotConfigured):
		core.HandleError(w, core.NewConfigurationError(notConfiguredMessage, err))
	case errors.Is(err, ErrInvalidCredentials):
		h.logger.Warn("Admin login rejected", "remote_addr", r.RemoteAddr)
		core.HandleError(w, core.NewUnauthorizedError("密码错误或未提供", err))
	default:
		h.logger.Error("Admin login failed", "error", err)
		core.HandleError(w, core.NewInternalError("Authentication failed", err))
	}
}
