// Package api provides the HTTP API for HexaScope.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hexascope/hexascope/internal/analysis"
	"github.com/hexascope/hexascope/internal/api/handler"
	"github.com/hexascope/hexascope/internal/api/middleware"
	"github.com/hexascope/hexascope/internal/api/models"
	"github.com/hexascope/hexascope/internal/featureflags"
	"github.com/hexascope/hexascope/internal/history"
	"github.com/hexascope/hexascope/internal/provider/resilience"
)

// Engine bundles what the router needs from the analysis engine client
// beyond the lifecycle service: health probes and the GeoJSON passthrough.
type Engine interface {
	handler.HealthChecker
	handler.GeoJSONFetcher
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version         string
	BuildTime       string
	Logger          zerolog.Logger
	ServiceName     string
	Metrics         *middleware.Metrics
	AnalysisService *analysis.Service
	HistoryService  *history.Service
	Engine          Engine
	Registry        *resilience.Registry

	// FeatureFlagService is optional; without it all flags read as defaults.
	FeatureFlagService *featureflags.Service

	// MapStyle is the display styling attached to hexagon features. Nil
	// means the stock styling.
	MapStyle *models.MapStyle
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "hexascope-api"
	}

	style := models.DefaultMapStyle()
	if cfg.MapStyle != nil {
		style = *cfg.MapStyle
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.AnalysisService, cfg.Engine, cfg.Registry, cfg.FeatureFlagService)
	analysisHandler := handler.NewAnalysisHandler(cfg.AnalysisService, cfg.FeatureFlagService)
	historyHandler := handler.NewHistoryHandler(cfg.HistoryService, cfg.FeatureFlagService)
	hexagonHandler := handler.NewHexagonHandler(cfg.Engine, style, cfg.FeatureFlagService)
	exportHandler := handler.NewExportHandler(cfg.AnalysisService)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 10 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Triggering a run fans out to the engine's upstream data sources,
		// so it is strictly rate limited
		r.With(expensiveRateLimit).Post("/analyses:run", analysisHandler.RunAnalysis)

		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)

			r.Get("/analyses", historyHandler.ListRuns)
			r.Get("/analyses/latest", analysisHandler.GetLatest)
			r.Get("/analyses/latest/export.csv", exportHandler.ExportCSV)

			r.Get("/hexagon", hexagonHandler.GetHexagon)
			r.Get("/hexagon/export.geojson", hexagonHandler.ExportGeoJSON)
		})

		// Feature flags management
		if cfg.FeatureFlagService != nil {
			flagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService)
			r.Route("/admin/feature-flags", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/", flagsHandler.ListFeatureFlags)
				r.Put("/", flagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", flagsHandler.InvalidateCache)
			})
		}
	})

	return r
}
