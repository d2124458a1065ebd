package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"atelier/internal/core"
	"atelier/internal/features/wechat/models"
	"atelier/internal/features/wechat/services"
)

// Handlers exposes manual import and on-demand sync to the admin
type Handlers struct {
	logger *core.Logger
	sync   *services.SyncService
}

// NewHandlers creates a new handlers instance
func NewHandlers(logger *core.Logger, sync *services.SyncService) *Handlers {
	return &Handlers{
		logger: logger,
		sync:   sync,
	}
}

// ImportArticle imports one article from a URL or pasted HTML
func (h *Handlers) ImportArticle(w http.ResponseWriter, r *http.Request) {
	var req models.ManualImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.HandleError(w, core.NewValidationError("Invalid request body", err))
		return
	}

	result, err := h.sync.ImportSingleArticle(r.Context(), req)
	switch {
	case errors.Is(err, services.ErrNoImportInput):
		core.HandleError(w, core.NewValidationError("请提供文章链接或 HTML 内容", err))
		return
	case errors.Is(err, services.ErrPageUnreachable):
		h.logger.WithContext(r.Context()).Warn("Article page unreachable", "url", req.URL, "error", err)
		core.HandleError(w, core.NewUpstreamError("无法访问文章页面", err))
		return
	case err != nil:
		h.logger.WithContext(r.Context()).Error("Manual import failed", "url", req.URL, "error", err)
		core.HandleError(w, core.NewInternalError("导入失败", err))
		return
	}

	core.WriteJSON(w, http.StatusOK, result)
}

// SyncNow runs a sync pass and returns its report
func (h *Handlers) SyncNow(w http.ResponseWriter, r *http.Request) {
	core.WriteJSON(w, http.StatusOK, h.sync.RunSyncPass(r.Context()))
}
