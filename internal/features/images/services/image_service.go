package services

import (
	"context"
	"fmt"
	"time"

	"atelier/internal/core"
	"atelier/internal/features/images/models"
)

// ImageService stores images and their thumbnails
type ImageService struct {
	db     *core.Database
	logger *core.Logger
}

// NewImageService creates a new image service
func NewImageService(db *core.Database, logger *core.Logger) *ImageService {
	return &ImageService{
		db:     db,
		logger: logger,
	}
}

// Create validates the mime type, generates the thumbnail and persists both
func (s *ImageService) Create(ctx context.Context, in *models.ImageCreate) (*models.Image, error) {
	if !IsAllowedMimeType(in.MimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMimeType, in.MimeType)
	}

	thumbnail, err := MakeThumbnail(in.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail: %w", err)
	}

	image := &models.Image{
		FileName:  in.FileName,
		MimeType:  in.MimeType,
		Size:      len(in.Data),
		Original:  in.Data,
		Thumbnail: thumbnail,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO images (file_name, mime_type, size, original, thumbnail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	args := []interface{}{image.FileName, image.MimeType, image.Size, image.Original, image.Thumbnail, image.CreatedAt}
	if err := s.db.QueryRowWithTimeout(ctx, query, args, &image.ID); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	s.logger.Info("Stored image", "id", image.ID, "file_name", image.FileName, "size", image.Size, "thumb_size", len(thumbnail))
	return image, nil
}

// Get returns the image with its original bytes
func (s *ImageService) Get(ctx context.Context, id int64) (*models.Image, error) {
	query := `SELECT id, COALESCE(file_name, ''), COALESCE(mime_type, ''), COALESCE(size, 0), original, created_at FROM images WHERE id = ?`

	var image models.Image
	err := s.db.QueryRowWithTimeout(ctx, query, []interface{}{id},
		&image.ID, &image.FileName, &image.MimeType, &image.Size, &image.Original, &image.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get image %d: %w", id, err)
	}

	return &image, nil
}

// GetThumbnail returns only the thumbnail bytes; a missing thumbnail counts as not found
func (s *ImageService) GetThumbnail(ctx context.Context, id int64) ([]byte, error) {
	var thumbnail []byte
	err := s.db.QueryRowWithTimeout(ctx, `SELECT thumbnail FROM images WHERE id = ?`, []interface{}{id}, &thumbnail)
	if err != nil {
		return nil, fmt.Errorf("failed to get thumbnail %d: %w", id, err)
	}
	if len(thumbnail) == 0 {
		return nil, fmt.Errorf("thumbnail %d is empty: %w", id, core.ErrNotFound)
	}

	return thumbnail, nil
}
