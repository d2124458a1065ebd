package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"atelier/internal/core"
	"atelier/internal/features/content/models"
)

// PortfolioService handles portfolio operations
type PortfolioService struct {
	db     *core.Database
	logger *core.Logger
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(db *core.Database, logger *core.Logger) *PortfolioService {
	return &PortfolioService{
		db:     db,
		logger: logger,
	}
}

// ListPortfolios returns portfolios newest first
func (s *PortfolioService) ListPortfolios(ctx context.Context, filter models.PortfolioFilter) ([]models.Portfolio, error) {
	query := `
		SELECT id, title, COALESCE(description, ''), COALESCE(image_url, ''), COALESCE(category, ''),
		       COALESCE(prompt, ''), extra_images, is_featured, created_at
		FROM portfolios
	`
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Featured {
		conditions = append(conditions, "is_featured = 1")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, cancel, err := s.db.QueryWithTimeout(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer cancel()
	defer rows.Close()

	portfolios := make([]models.Portfolio, 0)
	for rows.Next() {
		var p models.Portfolio
		var extraImages sql.NullString
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.ImageURL, &p.Category, &p.Prompt,
			&extraImages, &p.IsFeatured, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		if extraImages.Valid {
			p.ExtraImages = &extraImages.String
		}
		portfolios = append(portfolios, p)
	}

	return portfolios, rows.Err()
}

// CreatePortfolio inserts a portfolio and returns its id
func (s *PortfolioService) CreatePortfolio(ctx context.Context, in *models.PortfolioInput) (int64, error) {
	query := `
		INSERT INTO portfolios (title, description, image_url, category, prompt, extra_images, is_featured, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	var id int64
	args := []interface{}{in.Title, in.Description, in.ImageURL, in.Category, in.Prompt, in.ExtraImages, in.IsFeatured, time.Now().UTC()}
	if err := s.db.QueryRowWithTimeout(ctx, query, args, &id); err != nil {
		return 0, fmt.Errorf("failed to create portfolio: %w", err)
	}

	s.logger.Info("Created portfolio", "id", id, "title", in.Title)
	return id, nil
}

// UpdatePortfolio replaces every editable field of a portfolio
func (s *PortfolioService) UpdatePortfolio(ctx context.Context, id int64, in *models.PortfolioInput) error {
	query := `
		UPDATE portfolios
		SET title = ?, description = ?, image_url = ?, category = ?, prompt = ?, extra_images = ?, is_featured = ?
		WHERE id = ?
	`
	result, err := s.db.ExecWithTimeout(ctx, query, in.Title, in.Description, in.ImageURL, in.Category, in.Prompt, in.ExtraImages, in.IsFeatured, id)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}

	return requireAffected(result)
}

// DeletePortfolio removes a portfolio
func (s *PortfolioService) DeletePortfolio(ctx context.Context, id int64) error {
	result, err := s.db.ExecWithTimeout(ctx, `DELETE FROM portfolios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}

	return requireAffected(result)
}
