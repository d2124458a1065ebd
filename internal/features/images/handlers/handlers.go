package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"

	"atelier/internal/core"
	"atelier/internal/features/images/models"
	"atelier/internal/features/images/services"
)

var dataURLPattern = regexp.MustCompile(`^data:(.+);base64,(.+)$`)

// Handlers contains the HTTP handlers for the image store
type Handlers struct {
	logger         *core.Logger
	imageService   *services.ImageService
	maxUploadBytes int64
}

// NewHandlers creates new image handlers
func NewHandlers(logger *core.Logger, imageService *services.ImageService, maxUploadBytes int64) *Handlers {
	return &Handlers{
		logger:         logger,
		imageService:   imageService,
		maxUploadBytes: maxUploadBytes,
	}
}

type uploadRequest struct {
	FileName string `json:"fileName"`
	Data     string `json:"data"`
}

// UploadImage stores a base64 or data-URL encoded image
func (h *Handlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.HandleError(w, core.NewValidationError("Invalid request body", err))
		return
	}

	if req.FileName == "" || req.Data == "" {
		core.HandleError(w, core.NewValidationError("缺少文件信息", nil))
		return
	}

	mimeType := services.DefaultMimeType
	payload := req.Data
	if match := dataURLPattern.FindStringSubmatch(req.Data); match != nil {
		mimeType = match[1]
		payload = match[2]
	}

	if !services.IsAllowedMimeType(mimeType) {
		core.HandleError(w, core.NewValidationError("不支持的图片格式，请上传 JPG/PNG/WebP/GIF 格式图片", nil))
		return
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		core.HandleError(w, core.NewValidationError("Invalid base64 image data", err))
		return
	}

	image, err := h.imageService.Create(r.Context(), &models.ImageCreate{
		FileName: req.FileName,
		MimeType: mimeType,
		Data:     data,
	})
	if err != nil {
		h.logger.WithContext(r.Context()).Error("Failed to upload image", "file_name", req.FileName, "error", err)
		core.HandleError(w, core.NewInternalError("图片上传失败", err))
		return
	}

	core.WriteJSON(w, http.StatusOK, models.URLsFor(image.ID))
}

// GetImage serves the original bytes with their stored mime type
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	image, ok := h.loadImage(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", contentTypeOf(image))
	w.Write(image.Original)
}

// GetThumbnail serves the JPEG thumbnail
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		core.HandleError(w, core.NewValidationError("Invalid image ID", err))
		return
	}

	thumbnail, err := h.imageService.GetThumbnail(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.HandleError(w, core.NewNotFoundError("缩略图不存在", err))
			return
		}
		h.logger.WithContext(r.Context()).Error("Failed to get thumbnail", "id", id, "error", err)
		core.HandleError(w, core.NewInternalError("获取缩略图失败", err))
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(thumbnail)
}

// DownloadImage serves the original bytes as an attachment
func (h *Handlers) DownloadImage(w http.ResponseWriter, r *http.Request) {
	image, ok := h.loadImage(w, r)
	if !ok {
		return
	}

	name := image.FileName
	if name == "" {
		name = "image"
	}

	w.Header().Set("Content-Type", contentTypeOf(image))
	w.Header().Set("Content-Disposition", `attachment; filename="`+url.PathEscape(name)+`"`)
	w.Write(image.Original)
}

func (h *Handlers) loadImage(w http.ResponseWriter, r *http.Request) (*models.Image, bool) {
	id, err := parseID(r)
	if err != nil {
		core.HandleError(w, core.NewValidationError("Invalid image ID", err))
		return nil, false
	}

	image, err := h.imageService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.HandleError(w, core.NewNotFoundError("图片不存在", err))
			return nil, false
		}
		h.logger.WithContext(r.Context()).Error("Failed to get image", "id", id, "error", err)
		core.HandleError(w, core.NewInternalError("获取原图失败", err))
		return nil, false
	}

	return image, true
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func contentTypeOf(image *models.Image) string {
	if image.MimeType == "" {
		return "application/octet-stream"
	}
	return image.MimeType
}
