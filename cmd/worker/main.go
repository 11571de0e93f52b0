// Package main provides the entrypoint for the HexaScope batch worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hexascope/hexascope/internal/analysis/geoengine"
	"github.com/hexascope/hexascope/internal/database"
	"github.com/hexascope/hexascope/internal/featureflags"
	"github.com/hexascope/hexascope/internal/history"
	"github.com/hexascope/hexascope/internal/provider/resilience"
	"github.com/hexascope/hexascope/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "hexascope-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting HexaScope worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := resilience.NewRegistry()

	engineBaseURL := os.Getenv("GEOENGINE_BASE_URL")
	if engineBaseURL == "" {
		engineBaseURL = geoengine.DefaultBaseURL
	}

	engine := geoengine.NewClient(geoengine.ClientConfig{
		BaseURL:  engineBaseURL,
		Registry: registry,
		Logger:   log,
	})

	// Batch outcomes land in the same run history the API serves.
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
		historyRepo = history.NewPostgresRepository(pool)
		flagRepo = featureflags.NewPostgresRepository(pool)
	default:
		log.Fatal().Str("backend", backend).Msg("unknown HISTORY_BACKEND")
	}

	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: flagRepo,
		Logger:     log,
	})

	historyService := history.NewService(history.ServiceConfig{
		Repository: historyRepo,
		Logger:     log,
	})

	batchJob := worker.NewBatchJob(worker.BatchJobConfig{
		Config:   worker.DefaultBatchConfig(),
		Logger:   log,
		Analyzer: engine,
		Recorder: historyService,
	})

	// Health check server
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Jobs arrive via Pub/Sub when a subscription is configured; otherwise
	// the worker runs batches on a local interval.
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if subscription != "" {
		projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
		if projectID == "" {
			log.Fatal().Msg("GOOGLE_CLOUD_PROJECT is required with PUBSUB_SUBSCRIPTION")
		}

		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			BatchJob:         batchJob,
			Prober:           engine,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
				cancel()
			}
		}()
	} else {
		interval := 6 * time.Hour
		if raw := os.Getenv("BATCH_INTERVAL"); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil {
				log.Fatal().Err(err).Str("value", raw).Msg("invalid BATCH_INTERVAL")
			}
			interval = parsed
		}

		go func() {
			log.Info().Dur("interval", interval).Msg("running batches on local schedule")
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			sweep := func() {
				if ffService.AreBatchSweepsDisabled(ctx) {
					log.Info().Msg("batch sweeps are disabled, skipping")
					return
				}
				_ = batchJob.Run(ctx)
			}

			// First sweep immediately at startup
			sweep()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					sweep()
				}
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
