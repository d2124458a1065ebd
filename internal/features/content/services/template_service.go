package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"atelier/internal/core"
	"atelier/internal/features/content/models"
)

// ErrInvalidTemplate is returned when a template lacks a name or body
var ErrInvalidTemplate = errors.New("template name and body are required")

// TemplateService handles saved prompt templates
type TemplateService struct {
	db       *core.Database
	logger   *core.Logger
	comments *CommentService
}

// NewTemplateService creates a new template service; markup stripping is shared with comments
func NewTemplateService(db *core.Database, logger *core.Logger, comments *CommentService) *TemplateService {
	return &TemplateService{
		db:       db,
		logger:   logger,
		comments: comments,
	}
}

// ListTemplates returns all templates newest first
func (s *TemplateService) ListTemplates(ctx context.Context) ([]models.PromptTemplate, error) {
	query := `
		SELECT id, name, template, COALESCE(category, ''), COALESCE(tags, ''), created_at
		FROM prompt_templates
		ORDER BY created_at DESC, id DESC
	`
	rows, cancel, err := s.db.QueryWithTimeout(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer cancel()
	defer rows.Close()

	templates := make([]models.PromptTemplate, 0)
	for rows.Next() {
		var t models.PromptTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Template, &t.Category, &t.Tags, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

// CreateTemplate saves a template submitted from the public prompt editor
func (s *TemplateService) CreateTemplate(ctx context.Context, in *models.PromptTemplateInput) (int64, error) {
	name := s.comments.StripMarkup(in.Name)
	body := strings.TrimSpace(in.Template)
	if name == "" || body == "" {
		return 0, ErrInvalidTemplate
	}

	query := `
		INSERT INTO prompt_templates (name, template, category, tags, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`
	var id int64
	args := []interface{}{name, body, s.comments.StripMarkup(in.Category), s.comments.StripMarkup(in.Tags), time.Now().UTC()}
	if err := s.db.QueryRowWithTimeout(ctx, query, args, &id); err != nil {
		return 0, fmt.Errorf("failed to create template: %w", err)
	}

	s.logger.Info("Created prompt template", "id", id, "name", name)
	return id, nil
}
