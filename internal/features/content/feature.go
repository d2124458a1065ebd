package content

import (
	"context"
	"net/http"

	"atelier/internal/core"
	"atelier/internal/features/content/handlers"
	"atelier/internal/features/content/migrations"
	"atelier/internal/features/content/services"
)

// Feature serves portfolios, blog posts, comments, prompt templates and the site profile
type Feature struct {
	*core.BaseFeature
	config       core.ContentConfig
	migrationMgr *core.MigrationManager
	postService  *services.PostService
	seeder       *services.Seeder
	handlers     *handlers.Handlers
	limiter      *core.RateLimiter
}

// NewFeature creates the content feature
func NewFeature(logger *core.Logger, db *core.Database, config core.ContentConfig) *Feature {
	featureLogger := logger.ForFeature("content")

	portfolioService := services.NewPortfolioService(db, featureLogger)
	postService := services.NewPostService(db, featureLogger)
	commentService := services.NewCommentService(db, featureLogger)
	templateService := services.NewTemplateService(db, featureLogger, commentService)
	profileService := services.NewProfileService(db, featureLogger)

	return &Feature{
		BaseFeature:  core.NewBaseFeature("content", "Portfolio, blog and profile content", config.Enabled, logger, db),
		config:       config,
		migrationMgr: migrations.NewManager(db, featureLogger),
		postService:  postService,
		seeder:       services.NewSeeder(db, featureLogger, portfolioService, postService, profileService),
		handlers:     handlers.NewHandlers(featureLogger, portfolioService, postService, commentService, templateService, profileService),
		limiter:      core.NewRateLimiter(config.PublicRateLimit, 3),
	}
}

// Init runs migrations and seeds empty tables
func (f *Feature) Init(ctx context.Context) error {
	if err := f.BaseFeature.Init(ctx); err != nil {
		return err
	}

	if err := f.migrationMgr.Migrate(ctx); err != nil {
		return err
	}

	if f.config.Seed {
		if err := f.seeder.Seed(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Routes returns the HTTP routes for the content feature
func (f *Feature) Routes() []core.Route {
	h := f.handlers
	return []core.Route{
		// Portfolios
		{Method: http.MethodGet, Path: "/api/portfolios", Handler: h.ListPortfolios},
		{Method: http.MethodPost, Path: "/api/portfolios", Handler: h.CreatePortfolio, Admin: true},
		{Method: http.MethodPut, Path: "/api/portfolios/{id}", Handler: h.UpdatePortfolio, Admin: true},
		{Method: http.MethodDelete, Path: "/api/portfolios/{id}", Handler: h.DeletePortfolio, Admin: true},

		// Posts
		{Method: http.MethodGet, Path: "/api/posts", Handler: h.ListPosts},
		{Method: http.MethodGet, Path: "/api/posts/{id}", Handler: h.GetPost},
		{Method: http.MethodPost, Path: "/api/posts", Handler: h.CreatePost, Admin: true},
		{Method: http.MethodPut, Path: "/api/posts/{id}", Handler: h.UpdatePost, Admin: true},
		{Method: http.MethodDelete, Path: "/api/posts/{id}", Handler: h.DeletePost, Admin: true},
		{Method: http.MethodPost, Path: "/api/posts/{id}/like", Handler: f.limiter.Wrap(h.LikePost)},

		// Comments
		{Method: http.MethodGet, Path: "/api/posts/{id}/comments", Handler: h.ListComments},
		{Method: http.MethodPost, Path: "/api/posts/{id}/comments", Handler: f.limiter.Wrap(h.CreateComment)},

		// Prompt templates
		{Method: http.MethodGet, Path: "/api/prompt-templates", Handler: h.ListTemplates},
		{Method: http.MethodPost, Path: "/api/prompt-templates", Handler: f.limiter.Wrap(h.CreateTemplate)},

		// Profile
		{Method: http.MethodGet, Path: "/api/profile", Handler: h.GetProfile},
		{Method: http.MethodPut, Path: "/api/profile", Handler: h.SaveProfile, Admin: true},
	}
}

// Shutdown stops the rate limiter cleanup loop
func (f *Feature) Shutdown(ctx context.Context) error {
	f.limiter.Close()
	return f.BaseFeature.Shutdown(ctx)
}

// PostService exposes blog storage to the import pipeline
func (f *Feature) PostService() *services.PostService {
	return f.postService
}
