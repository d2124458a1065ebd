package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"atelier/internal/core"
	"atelier/internal/features/content/models"
)

//go:embed seed.json
var seedJSON []byte

type seedPost struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Category   string `json:"category"`
	CoverImage string `json:"cover_image"`
	Likes      int    `json:"likes"`
	Views      int    `json:"views"`
}

type seedData struct {
	Portfolios []models.PortfolioInput `json:"portfolios"`
	Posts      []seedPost              `json:"posts"`
	Profile    models.ProfileInput     `json:"profile"`
}

// Seeder fills empty content tables with sample data
type Seeder struct {
	db         *core.Database
	logger     *core.Logger
	portfolios *PortfolioService
	posts      *PostService
	profile    *ProfileService
}

// NewSeeder creates a seeder over the content services
func NewSeeder(db *core.Database, logger *core.Logger, portfolios *PortfolioService, posts *PostService, profile *ProfileService) *Seeder {
	return &Seeder{
		db:         db,
		logger:     logger,
		portfolios: portfolios,
		posts:      posts,
		profile:    profile,
	}
}

// Seed inserts sample rows into each table that is still empty
func (s *Seeder) Seed(ctx context.Context) error {
	var data seedData
	if err := json.Unmarshal(seedJSON, &data); err != nil {
		return fmt.Errorf("failed to parse seed data: %w", err)
	}

	empty, err := s.isEmpty(ctx, "portfolios")
	if err != nil {
		return err
	}
	if empty {
		for i := range data.Portfolios {
			if _, err := s.portfolios.CreatePortfolio(ctx, &data.Portfolios[i]); err != nil {
				return fmt.Errorf("failed to seed portfolio: %w", err)
			}
		}
		s.logger.Info("Seeded portfolios", "count", len(data.Portfolios))
	}

	count, err := s.posts.CountPosts(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		for _, p := range data.Posts {
			_, err := s.posts.CreatePost(ctx, &models.PostCreate{
				Title:      p.Title,
				Content:    p.Content,
				Category:   p.Category,
				CoverImage: p.CoverImage,
				Likes:      p.Likes,
				Views:      p.Views,
			})
			if err != nil {
				return fmt.Errorf("failed to seed post: %w", err)
			}
		}
		s.logger.Info("Seeded posts", "count", len(data.Posts))
	}

	if _, err := s.profile.GetProfile(ctx); errors.Is(err, core.ErrNotFound) {
		if _, _, err := s.profile.SaveProfile(ctx, &data.Profile); err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
	} else if err != nil {
		return err
	}

	return nil
}

func (s *Seeder) isEmpty(ctx context.Context, table string) (bool, error) {
	var count int
	if err := s.db.QueryRowWithTimeout(ctx, `SELECT COUNT(*) FROM `+table, nil, &count); err != nil {
		return false, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count == 0, nil
}
