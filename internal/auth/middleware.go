package auth

import (
	"errors"
	"net/http"

	"atelier/internal/core"
)

// AdminTokenHeader carries the admin secret on mutating requests
const AdminTokenHeader = "X-Admin-Token"

const notConfiguredMessage = "管理员密码未配置，请在 .env 中设置 ADMIN_PASSWORD"

// Middleware provides authentication middleware
type Middleware struct {
	service *Service
	logger  *core.Logger
}

// NewMiddleware creates new authentication middleware
func NewMiddleware(service *Service, logger *core.Logger) *Middleware {
	return &Middleware{
		service: service,
		logger:  logger,
	}
}

// RequireAdmin lets the request through only when X-Admin-Token matches the admin secret
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", AdminTokenHeader)

		err := m.service.Verify(r.Header.Get(AdminTokenHeader))
		switch {
		case err == nil:
			next.ServeHTTP(w, r)
		case errors.Is(err, ErrNotConfigured):
			m.notConfiguredResponse(w)
		case errors.Is(err, ErrInvalidCredentials):
			core.HandleError(w, core.NewUnauthorizedError("未授权访问", err))
		default:
			m.logger.Error("Admin token check failed", "error", err)
			core.HandleError(w, core.NewInternalError("Internal server error", err))
		}
	}
}

func (m *Middleware) notConfiguredResponse(w http.ResponseWriter) {
	core.HandleError(w, core.NewConfigurationError(notConfiguredMessage, ErrNotConfigured))
}
