package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/githost"
	"inkwell/internal/handler"
	"inkwell/internal/middleware"
	"inkwell/internal/repository/postgres"
	"inkwell/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration once; everything downstream receives it explicitly
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"repository", cfg.Repository.Owner+"/"+cfg.Repository.Name,
		"base_branch", cfg.Repository.BaseBranch,
		"auth_mode", cfg.AuthMode,
	)

	// Create authenticator from the configured mode
	authenticator, err := auth.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create authenticator: %v", err)
	}
	defer authenticator.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	draftRepo := postgres.NewDraftRepository(repoConfig)
	commentRepo := postgres.NewCommentRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Create hosting client
	hostCfg := githost.RepoConfig{
		Owner:       cfg.Repository.Owner,
		Name:        cfg.Repository.Name,
		BaseBranch:  cfg.Repository.BaseBranch,
		ContentRoot: cfg.Repository.ContentRoot,
	}
	var host *githost.Client
	if cfg.APIBaseURL != "" {
		host = githost.NewClientWithConfig(hostCfg, cfg.GitHubToken, cfg.APIBaseURL, githost.DefaultTimeout, githost.DefaultRetryConfig(), logger)
	} else {
		host = githost.NewClient(hostCfg, cfg.GitHubToken, logger)
	}

	// Create services
	draftService := service.NewDraftService(draftRepo, commentRepo, txManager, host, logger)
	contentService := service.NewContentService(host, logger)

	// Create handlers
	draftHandler := handler.NewDraftHandler(draftService, logger)
	contentHandler := handler.NewContentHandler(contentService, logger)

	logger.Info("services initialized")

	// Review operations require the admin role except in public mode, where
	// no identities exist to distinguish
	guard := func(h http.HandlerFunc) http.HandlerFunc { return h }
	if cfg.AuthMode != config.AuthModePublic {
		guard = middleware.RequireAdmin
	}

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", draftHandler.HealthCheck)

	// Published content routes
	mux.HandleFunc("GET /api/tree", contentHandler.GetTree)
	mux.HandleFunc("GET /api/content/{path...}", contentHandler.GetContent)
	mux.HandleFunc("GET /api/history/{path...}", contentHandler.GetHistory)
	mux.HandleFunc("GET /api/assets/{path...}", contentHandler.GetAsset)
	mux.HandleFunc("POST /api/assets/{path...}", guard(contentHandler.UploadAsset))

	// Draft lifecycle routes
	mux.HandleFunc("POST /api/drafts", draftHandler.CreateDraft)
	mux.HandleFunc("GET /api/drafts", draftHandler.ListDrafts)
	mux.HandleFunc("GET /api/drafts/{id}", draftHandler.GetDraft)
	mux.HandleFunc("PATCH /api/drafts/{id}", draftHandler.UpdateDraft)
	mux.HandleFunc("DELETE /api/drafts/{id}", guard(draftHandler.DeleteDraft))
	mux.HandleFunc("POST /api/drafts/{id}/approve", guard(draftHandler.ApproveDraft))
	mux.HandleFunc("POST /api/drafts/{id}/reject", guard(draftHandler.RejectDraft))

	// Comment routes
	mux.HandleFunc("GET /api/drafts/{id}/comments", draftHandler.ListComments)
	mux.HandleFunc("POST /api/drafts/{id}/comments", draftHandler.AddComment)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	root = middleware.Auth(authenticator)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
