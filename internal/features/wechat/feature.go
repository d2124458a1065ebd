package wechat

import (
	"context"
	"net/http"
	"time"

	"atelier/internal/core"
	"atelier/internal/features/wechat/handlers"
	"atelier/internal/features/wechat/migrations"
	"atelier/internal/features/wechat/services"
)

// Feature imports public-account articles into the blog on a schedule and on demand
type Feature struct {
	*core.BaseFeature
	config       core.WeChatConfig
	migrationMgr *core.MigrationManager
	syncService  *services.SyncService
	scheduler    *services.Scheduler
	handlers     *handlers.Handlers
	cancel       context.CancelFunc
}

// NewFeature wires the import pipeline over the blog and image stores.
// The scheduler only runs when app credentials are configured; mail may be nil.
func NewFeature(
	logger *core.Logger,
	db *core.Database,
	config core.WeChatConfig,
	posts services.ArticleStore,
	images services.ImageStore,
	mail services.Mailer,
	reportRecipient string,
) *Feature {
	featureLogger := logger.ForFeature("wechat")

	upserter := services.NewUpserter(
		posts,
		services.NewImageImporter(images, featureLogger, nil),
		services.NewHTMLSanitizer(),
		featureLogger,
		config.ImportCategory,
		config.DefaultAuthor,
	)

	var fetcher services.ContentFetcher
	if config.HasCredentials() {
		tokens := services.NewTokenCache(config.AppID, config.AppSecret, config.APIBase, featureLogger)
		fetcher = services.NewClient(config.APIBase, tokens, featureLogger, nil)
	}

	syncService := services.NewSyncService(fetcher, upserter, services.NewPageFetcher(nil), featureLogger, config.MaxPages)

	f := &Feature{
		BaseFeature:  core.NewBaseFeature("wechat", "Public-account article sync and import", config.Enabled, logger, db),
		config:       config,
		migrationMgr: migrations.NewManager(db, featureLogger),
		syncService:  syncService,
		handlers:     handlers.NewHandlers(featureLogger, syncService),
	}

	if fetcher != nil {
		interval := time.Duration(config.SyncInterval()) * time.Hour
		f.scheduler = services.NewScheduler(syncService, interval, featureLogger)
		if mail != nil && reportRecipient != "" {
			f.scheduler.WithReportMail(mail, reportRecipient)
		}
	}

	return f
}

// Init runs migrations and starts the scheduler
func (f *Feature) Init(ctx context.Context) error {
	if err := f.BaseFeature.Init(ctx); err != nil {
		return err
	}

	if err := f.migrationMgr.Migrate(ctx); err != nil {
		return err
	}

	if f.scheduler == nil {
		f.Logger().Info("WeChat credentials not configured, scheduled sync disabled")
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.scheduler.Start(runCtx)
	return nil
}

// Routes returns the HTTP routes for the wechat feature
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		{Method: http.MethodPost, Path: "/api/admin/wechat/import", Handler: f.handlers.ImportArticle, Admin: true},
		{Method: http.MethodPost, Path: "/api/admin/wechat/sync", Handler: f.handlers.SyncNow, Admin: true},
	}
}

// Shutdown cancels a running pass and waits for the scheduler to exit
func (f *Feature) Shutdown(ctx context.Context) error {
	if f.cancel != nil {
		f.cancel()
	}
	if f.scheduler != nil {
		if err := f.scheduler.Stop(ctx); err != nil {
			return err
		}
	}
	return f.BaseFeature.Shutdown(ctx)
}

// SyncService exposes the pipeline for manual triggering
func (f *Feature) SyncService() *services.SyncService {
	return f.syncService
}
