package images

import (
	"context"
	"net/http"

	"atelier/internal/core"
	"atelier/internal/features/images/handlers"
	"atelier/internal/features/images/migrations"
	"atelier/internal/features/images/services"
)

// Feature stores uploaded and imported images
type Feature struct {
	*core.BaseFeature
	migrationMgr *core.MigrationManager
	imageService *services.ImageService
	handlers     *handlers.Handlers
}

// NewFeature creates the image store feature
func NewFeature(logger *core.Logger, db *core.Database, config core.ImagesConfig) *Feature {
	featureLogger := logger.ForFeature("images")
	imageService := services.NewImageService(db, featureLogger)

	return &Feature{
		BaseFeature:  core.NewBaseFeature("images", "Image upload and thumbnails", config.Enabled, logger, db),
		migrationMgr: migrations.NewManager(db, featureLogger),
		imageService: imageService,
		handlers:     handlers.NewHandlers(featureLogger, imageService, int64(config.MaxUploadMB)<<20),
	}
}

// Init runs the image migrations
func (f *Feature) Init(ctx context.Context) error {
	if err := f.BaseFeature.Init(ctx); err != nil {
		return err
	}

	return f.migrationMgr.Migrate(ctx)
}

// Routes returns the HTTP routes for the image store
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		{Method: http.MethodPost, Path: "/api/upload-image", Handler: f.handlers.UploadImage, Admin: true},
		{Method: http.MethodGet, Path: "/api/images/{id}", Handler: f.handlers.GetImage},
		{Method: http.MethodGet, Path: "/api/images/{id}/thumb", Handler: f.handlers.GetThumbnail},
		{Method: http.MethodGet, Path: "/api/images/{id}/download", Handler: f.handlers.DownloadImage},
	}
}

// ImageService exposes the store to other features
func (f *Feature) ImageService() *services.ImageService {
	return f.imageService
}
