package handlers

import (
	"net/http"
	"time"

	"atelier/internal/core"
)

// HealthHandler reports process, database and feature status
type HealthHandler struct {
	logger   *core.Logger
	registry *core.Registry
	db       *core.Database
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(logger *core.Logger, registry *core.Registry, db *core.Database) *HealthHandler {
	return &HealthHandler{
		logger:   logger,
		registry: registry,
		db:       db,
	}
}

type healthResponse struct {
	Status   string                        `json:"status"`
	Service  string                        `json:"service"`
	Database string                        `json:"database"`
	Features map[string]core.FeatureStatus `json:"features"`
}

// HealthCheckHandler answers 200 when the database responds and 503 otherwise
func (h *HealthHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Service:  "atelier",
		Database: "ok",
		Features: h.registry.GetFeatureStatus(),
	}

	status := http.StatusOK
	if err := h.db.PingWithTimeout(2 * time.Second); err != nil {
		h.logger.Error("Health check database ping failed", "error", err)
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	core.WriteJSON(w, status, resp)
}
