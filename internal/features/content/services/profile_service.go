package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"atelier/internal/core"
	"atelier/internal/features/content/models"
)

// ProfileService manages the single site profile row
type ProfileService struct {
	db     *core.Database
	logger *core.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(db *core.Database, logger *core.Logger) *ProfileService {
	return &ProfileService{
		db:     db,
		logger: logger,
	}
}

// GetProfile returns the first profile row or core.ErrNotFound
func (s *ProfileService) GetProfile(ctx context.Context) (*models.Profile, error) {
	query := `
		SELECT id, display_name, COALESCE(subtitle, ''), COALESCE(bio, ''), COALESCE(email, ''),
		       COALESCE(github, ''), COALESCE(twitter, ''), COALESCE(wechat, ''), COALESCE(phone, ''),
		       created_at, updated_at
		FROM site_profile
		ORDER BY id ASC
		LIMIT 1
	`
	var p models.Profile
	err := s.db.QueryRowWithTimeout(ctx, query, nil,
		&p.ID, &p.DisplayName, &p.Subtitle, &p.Bio, &p.Email, &p.Github, &p.Twitter, &p.Wechat, &p.Phone,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

// SaveProfile updates the profile, creating it when none exists.
// It reports the row id and whether a row was created.
func (s *ProfileService) SaveProfile(ctx context.Context, in *models.ProfileInput) (int64, bool, error) {
	now := time.Now().UTC()

	current, err := s.GetProfile(ctx)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return 0, false, err
	}

	if current == nil {
		query := `
			INSERT INTO site_profile (display_name, subtitle, bio, email, github, twitter, wechat, phone, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`
		var id int64
		args := []interface{}{in.DisplayName, in.Subtitle, in.Bio, in.Email, in.Github, in.Twitter, in.Wechat, in.Phone, now, now}
		if err := s.db.QueryRowWithTimeout(ctx, query, args, &id); err != nil {
			return 0, false, fmt.Errorf("failed to create profile: %w", err)
		}
		s.logger.Info("Created site profile", "id", id)
		return id, true, nil
	}

	query := `
		UPDATE site_profile
		SET display_name = ?, subtitle = ?, bio = ?, email = ?, github = ?, twitter = ?, wechat = ?, phone = ?, updated_at = ?
		WHERE id = ?
	`
	if _, err := s.db.ExecWithTimeout(ctx, query, in.DisplayName, in.Subtitle, in.Bio, in.Email, in.Github, in.Twitter, in.Wechat, in.Phone, now, current.ID); err != nil {
		return 0, false, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("Updated site profile", "id", current.ID)
	return current.ID, false, nil
}
