package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/leadforge/leadforge-engine/pkg/auth"
	"github.com/leadforge/leadforge-engine/pkg/config"
	"github.com/leadforge/leadforge-engine/pkg/database"
	"github.com/leadforge/leadforge-engine/pkg/extract"
	"github.com/leadforge/leadforge-engine/pkg/handlers"
	"github.com/leadforge/leadforge-engine/pkg/llm"
	"github.com/leadforge/leadforge-engine/pkg/logging"
	"github.com/leadforge/leadforge-engine/pkg/quota"
	"github.com/leadforge/leadforge-engine/pkg/repositories"
	"github.com/leadforge/leadforge-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("ai_model", cfg.AI.Model),
		zap.Int("api_keys", len(cfg.AI.APIKeys)),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	ctx := context.Background()

	// Migrations run over database/sql; the service itself uses pgx pools.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open database for migrations", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// AI gate: quota trackers and key rotation around the provider clients.
	// With no keys configured the service still runs, serving pattern
	// extraction only.
	limits := quota.Limits{
		MinuteRequests: cfg.Quota.MinuteRequestLimit,
		DailyRequests:  cfg.Quota.DailyRequestLimit,
		MinuteTokens:   cfg.Quota.MinuteTokenLimit,
	}
	rotator := quota.NewRotator(cfg.AI.APIKeys, limits, cfg.Quota.RotationErrorThreshold)

	newClient, err := llm.NewClientFactory(cfg.AI)
	if err != nil {
		logger.Fatal("Failed to configure AI provider", zap.Error(err))
	}

	var aiClient llm.Client
	gate := llm.NewGate(rotator, newClient, cfg.AI.Model, logger,
		llm.WithTimeout(cfg.AI.RequestTimeout()))
	if len(cfg.AI.APIKeys) > 0 {
		aiClient = gate
	} else {
		logger.Warn("No AI API keys configured, serving pattern extraction only")
	}

	scoring := extract.ScoringConfig{
		CoverageWeight:        cfg.Extraction.CoverageWeight,
		ContactWeight:         cfg.Extraction.ContactWeight,
		CoreSignalWeight:      cfg.Extraction.CoreSignalWeight,
		FallbackConfidenceCap: cfg.Extraction.FallbackConfidenceCap,
	}
	parser := extract.NewParser(scoring)

	leadRepo := repositories.NewLeadRepository(db.Pool)
	extraction := services.NewLeadExtractionService(aiClient, parser, scoring, leadRepo, logger)
	recommendations := services.NewRecommendationService(aiClient, logger)

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()
	middleware := auth.NewMiddleware(jwksClient, logger)

	wrap := middleware.RequireAuth
	if !cfg.Auth.EnableVerification {
		wrap = func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewLeadsHandler(extraction, recommendations, leadRepo, logger).RegisterRoutes(mux, wrap)
	handlers.NewQuotaHandler(gate, logger).RegisterRoutes(mux, wrap)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	logger.Info("Starting leadforge-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
