package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"atelier/internal/core"
	"atelier/internal/features/content/models"
	"atelier/internal/features/content/services"
)

// Handlers contains the portfolio, blog, template and profile HTTP handlers
type Handlers struct {
	logger     *core.Logger
	portfolios *services.PortfolioService
	posts      *services.PostService
	comments   *services.CommentService
	templates  *services.TemplateService
	profile    *services.ProfileService
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	logger *core.Logger,
	portfolios *services.PortfolioService,
	posts *services.PostService,
	comments *services.CommentService,
	templates *services.TemplateService,
	profile *services.ProfileService,
) *Handlers {
	return &Handlers{
		logger:     logger,
		portfolios: portfolios,
		posts:      posts,
		comments:   comments,
		templates:  templates,
		profile:    profile,
	}
}

type messageResponse struct {
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message"`
}

// Portfolio handlers

func (h *Handlers) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.PortfolioFilter{
		Category: query.Get("category"),
		Featured: query.Get("featured") == "true",
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	portfolios, err := h.portfolios.ListPortfolios(r.Context(), filter)
	if err != nil {
		h.serverError(w, r, "Failed to list portfolios", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, portfolios)
}

func (h *Handlers) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var in models.PortfolioInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Title == "" {
		core.HandleError(w, core.NewValidationError("标题不能为空", nil))
		return
	}

	id, err := h.portfolios.CreatePortfolio(r.Context(), &in)
	if err != nil {
		h.serverError(w, r, "Failed to create portfolio", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, messageResponse{ID: id, Message: "作品添加成功"})
}

func (h *Handlers) UpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var in models.PortfolioInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Title == "" {
		core.HandleError(w, core.NewValidationError("标题不能为空", nil))
		return
	}

	if err := h.portfolios.UpdatePortfolio(r.Context(), id, &in); err != nil {
		h.storeError(w, r, "作品不存在", "Failed to update portfolio", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, messageResponse{Message: "作品更新成功"})
}

func (h *Handlers) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.portfolios.DeletePortfolio(r.Context(), id); err != nil {
		h.storeError(w, r, "作品不存在", "Failed to delete portfolio", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, messageResponse{Message: "作品已删除"})
}

// Post handlers

func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := services.DefaultPostLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			core.HandleError(w, core.NewValidationError("Invalid limit", err))
			return
		}
		limit = parsed
	}

	posts, err := h.posts.ListPosts(r.Context(), query.Get("category"), limit)
	if err != nil {
		h.serverError(w, r, "Failed to list posts", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, posts)
}

func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	post, err := h.posts.ViewPost(r.Context(), id)
	if err != nil {
		h.storeError(w, r, "文章不存在", "Failed to get post", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, post)
}

func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in models.PostInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Title == "" || in.Content == "" {
		core.HandleError(w, core.NewValidationError("标题和内容不能为空", nil))
		return
	}

	post, err := h.posts.CreatePost(r.Context(), &models.PostCreate{
		Title:      in.Title,
		Content:    in.Content,
		Category:   in.Category,
		CoverImage: in.CoverImage,
	})
	if err != nil {
		h.serverError(w, r, "Failed to create post", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, messageResponse{ID: post.ID, Message: "文章发布成功"})
}

func (h *Handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var in models.PostInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Title == "" || in.Content == "" {
		core.HandleError(w, core.NewValidationError("标题和内容不能为空", nil))
		return
	}

	if err := h.posts.UpdatePost(r.Context(), id, &in); err != nil {
		h.storeError(w, r, "文章不存在", "Failed to update post", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, messageResponse{Message: "文章更新成功"})
}

func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.posts.DeletePost(r.Context(), id); err != nil {
		h.storeError(w, r, "文章不存在", "Failed to delete post", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, messageResponse{Message: "文章已删除"})
}

func (h *Handlers) LikePost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	likes, err := h.posts.LikePost(r.Context(), id)
	if err != nil {
		h.storeError(w, r, "文章不存在", "Failed to like post", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, map[string]int{"likes": likes})
}

// Comment handlers

func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	comments, err := h.comments.ListComments(r.Context(), id)
	if err != nil {
		h.serverError(w, r, "Failed to list comments", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, comments)
}

func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var in models.CommentInput
	if !decodeBody(w, r, &in) {
		return
	}

	comment, err := h.comments.CreateComment(r.Context(), id, &in)
	if err != nil {
		if errors.Is(err, services.ErrInvalidComment) {
			core.HandleError(w, core.NewValidationError("昵称和评论内容不能为空", err))
			return
		}
		h.storeError(w, r, "文章不存在", "Failed to create comment", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, messageResponse{ID: comment.ID, Message: "评论发表成功"})
}

// Prompt template handlers

func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templates.ListTemplates(r.Context())
	if err != nil {
		h.serverError(w, r, "Failed to list templates", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, templates)
}

func (h *Handlers) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in models.PromptTemplateInput
	if !decodeBody(w, r, &in) {
		return
	}

	id, err := h.templates.CreateTemplate(r.Context(), &in)
	if err != nil {
		if errors.Is(err, services.ErrInvalidTemplate) {
			core.HandleError(w, core.NewValidationError("模板名称和内容不能为空", err))
			return
		}
		h.serverError(w, r, "Failed to create template", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, messageResponse{ID: id, Message: "模板保存成功"})
}

// Profile handlers

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profile.GetProfile(r.Context())
	if err != nil {
		h.storeError(w, r, "个人资料未初始化", "Failed to get profile", err)
		return
	}

	core.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handlers) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var in models.ProfileInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.DisplayName == "" {
		core.HandleError(w, core.NewValidationError("显示名称不能为空", nil))
		return
	}

	id, created, err := h.profile.SaveProfile(r.Context(), &in)
	if err != nil {
		h.serverError(w, r, "Failed to save profile", err)
		return
	}

	message := "个人资料已更新"
	if created {
		message = "个人资料已创建"
	}
	core.WriteJSON(w, http.StatusOK, messageResponse{ID: id, Message: message})
}

// Helpers

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		core.HandleError(w, core.NewValidationError("Invalid ID", err))
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.HandleError(w, core.NewValidationError("Invalid request body", err))
		return false
	}
	return true
}

func (h *Handlers) storeError(w http.ResponseWriter, r *http.Request, notFoundMessage, logMessage string, err error) {
	if errors.Is(err, core.ErrNotFound) {
		core.HandleError(w, core.NewNotFoundError(notFoundMessage, err))
		return
	}
	h.serverError(w, r, logMessage, err)
}

func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, logMessage string, err error) {
	h.logger.WithContext(r.Context()).Error(logMessage, "error", err)
	core.HandleError(w, core.NewDatabaseError("Internal server error", err))
}
