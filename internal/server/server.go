package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"atelier/internal/auth"
	"atelier/internal/core"
	"atelier/internal/features/content"
	"atelier/internal/features/images"
	"atelier/internal/features/wechat"
	"atelier/internal/features/wechat/services"
	"atelier/internal/server/handlers"
	"atelier/internal/server/services/mailer"
)

type Server struct {
	config      *core.Config
	logger      *core.Logger
	db          *core.Database
	authService *auth.Service
	registry    *core.Registry
	router      chi.Router
	server      *http.Server
}

// New opens the database, registers the features and builds the router
func New(config *core.Config, logger *core.Logger) (*Server, error) {
	db, err := core.OpenSQLite(config.Database.Path, logger)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(config.Auth.AdminPassword, logger.ForFeature("auth"))
	if err != nil {
		db.Close()
		return nil, err
	}

	registry := core.NewRegistry(logger)

	contentFeature := content.NewFeature(logger, db, config.Features.Content)
	imagesFeature := images.NewFeature(logger, db, config.Features.Images)
	features := []core.Feature{contentFeature, imagesFeature}

	if config.IsFeatureEnabled("wechat") {
		var mail services.Mailer
		if config.Mailer.MailEnabled() {
			mail = mailer.New(config.Mailer.SMTP2GOAPIKey, config.Mailer.SMTP2GOSender, logger.ForFeature("mailer"))
		}
		features = append(features, wechat.NewFeature(
			logger,
			db,
			config.Features.WeChat,
			contentFeature.PostService(),
			imagesFeature.ImageService(),
			mail,
			config.Mailer.ReportRecipient,
		))
	}

	for _, feature := range features {
		if err := registry.Register(feature); err != nil {
			db.Close()
			return nil, err
		}
	}

	srv := &Server{
		config:      config,
		logger:      logger,
		db:          db,
		authService: authService,
		registry:    registry,
	}
	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.logger, s.registry, s.db)
	authHandler := auth.NewHandler(s.authService, s.logger.ForFeature("auth"))
	authMiddleware := auth.NewMiddleware(s.authService, s.logger.ForFeature("auth"))

	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)
	mux.Use(metricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", auth.AdminTokenHeader},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	mux.Get("/health", healthHandler.HealthCheckHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Post("/api/admin/login", authHandler.LoginHandler)

	for _, route := range s.registry.GetAllRoutes() {
		handler := route.Handler
		if route.Admin {
			handler = authMiddleware.RequireAdmin(handler)
		}
		mux.Method(route.Method, route.Path, handler)
	}

	s.router = mux
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Init runs every enabled feature's migrations and background work
func (s *Server) Init(ctx context.Context) error {
	if err := s.registry.InitAll(ctx); err != nil {
		s.logger.Error("Failed to initialize features", "error", err)
		return err
	}
	s.db.LogStats()
	return nil
}

// Start initialises the features and serves until Shutdown is called
func (s *Server) Start() error {
	if err := s.Init(context.Background()); err != nil {
		return err
	}

	s.logger.Info("Starting server", "host", s.config.Server.Host, "port", s.config.Server.Port)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown HTTP server", "error", err)
	}

	if err := s.registry.ShutdownAll(ctx); err != nil {
		s.logger.Error("Failed to shutdown features", "error", err)
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
