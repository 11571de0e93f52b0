// Package main provides the entrypoint for the HexaScope API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hexascope/hexascope/internal/analysis"
	"github.com/hexascope/hexascope/internal/analysis/geoengine"
	"github.com/hexascope/hexascope/internal/api"
	"github.com/hexascope/hexascope/internal/api/middleware"
	"github.com/hexascope/hexascope/internal/database"
	"github.com/hexascope/hexascope/internal/featureflags"
	"github.com/hexascope/hexascope/internal/history"
	"github.com/hexascope/hexascope/internal/provider/resilience"
	"github.com/hexascope/hexascope/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "hexascope-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting HexaScope API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	providerMetrics, err := middleware.NewProviderMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
		os.Exit(1)
	}

	// Provider health registry, shared between the engine client and /v1/ops/status
	registry := resilience.NewRegistry()

	// Initialize the analysis engine client
	engineBaseURL := os.Getenv("GEOENGINE_BASE_URL")
	if engineBaseURL == "" {
		engineBaseURL = geoengine.DefaultBaseURL
	}

	engine := geoengine.NewClient(geoengine.ClientConfig{
		BaseURL:  engineBaseURL,
		Registry: registry,
		Metrics:  providerMetrics,
		Logger:   log,
	})
	log.Info().
		Str("base_url", engineBaseURL).
		Msg("analysis engine client initialized")

	// Initialize run history and feature flags. The in-memory backend keeps
	// local development free of a database dependency.
	var historyRepo history.Repository
	var flagRepo featureflags.Repository
	switch backend := os.Getenv("HISTORY_BACKEND"); backend {
	case "", "memory":
		historyRepo = history.NewInMemoryRepository()
		flagRepo = featureflags.NewInMemoryRepository()
		log.Info().Msg("using in-memory run history")
	case "postgres":
		dbConfig := database.ConfigFromEnv()
		pool, connErr := database.Connect(ctx, dbConfig)
		if connErr != nil {
			log.Fatal().Err(connErr).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
		historyRepo = history.NewPostgresRepository(pool)
		flagRepo = featureflags.NewPostgresRepository(pool)
	default:
		log.Fatal().Str("backend", backend).Msg("unknown HISTORY_BACKEND")
	}

	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository:   flagRepo,
		Logger:       log,
		CacheTTL:     1 * time.Minute,
		CacheMetrics: providerMetrics,
	})
	log.Info().Msg("feature flags service initialized")

	historyService := history.NewService(history.ServiceConfig{
		Repository: historyRepo,
		Logger:     log,
	})

	// Initialize the analysis lifecycle service
	analysisService := analysis.NewService(analysis.ServiceConfig{
		Analyzer: engine,
		Recorder: historyService,
		Logger:   log,
	})
	log.Info().Msg("analysis service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		AnalysisService: analysisService,
		HistoryService:  historyService,
		Engine:          engine,
		Registry:        registry,

		FeatureFlagService: ffService,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // analysis runs block on the engine
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
