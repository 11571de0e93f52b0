package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// HealthProber checks whether the analysis engine is reachable.
type HealthProber interface {
	Health(ctx context.Context) error
}

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	batchJob         *BatchJob
	prober           HealthProber
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	BatchJob         *BatchJob
	Prober           HealthProber
	Logger           zerolog.Logger
}

// JobMessage represents a worker job message.
type JobMessage struct {
	JobType string `json:"job_type"`

	// Targets optionally restricts a batch to named survey targets.
	Targets []string `json:"targets,omitempty"`

	// Regions optionally replaces the configured sweep with ad-hoc regions.
	Regions []RegionMessage `json:"regions,omitempty"`
}

// RegionMessage is one ad-hoc region in a batch message.
type RegionMessage struct {
	Name     string  `json:"name,omitempty"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKm float64 `json:"radius_km"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings. Batches are slow; one at a time is enough.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = 15 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		batchJob:         cfg.BatchJob,
		prober:           cfg.Prober,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	// Parse message.
	var jobMsg JobMessage
	if err := json.Unmarshal(msg.Data, &jobMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	// Handle based on job type.
	var err error
	switch jobMsg.JobType {
	case "batch_analyze":
		err = h.handleBatchAnalyze(ctx, jobMsg)
	case "health_check":
		err = h.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", jobMsg.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	duration := time.Since(startTime)
	logger.Info().
		Str("job_type", jobMsg.JobType).
		Dur("duration", duration).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handleBatchAnalyze(ctx context.Context, msg JobMessage) error {
	job := h.batchJob
	switch {
	case len(msg.Regions) > 0:
		job = h.adHocJob(msg.Regions)
	case len(msg.Targets) > 0:
		restricted, err := h.restrictTargets(msg.Targets)
		if err != nil {
			return err
		}
		job = restricted
	}

	h.logger.Info().
		Int("targets", job.config.TotalTargets()).
		Msg("starting batch analysis")

	result := job.Run(ctx)

	h.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("batch analysis completed")

	// Consider it successful if more than half succeeded.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many analysis failures: %d/%d", result.Failed, result.TotalTargets)
	}

	return nil
}

// restrictTargets builds a job limited to the named survey targets.
func (h *PubSubHandler) restrictTargets(names []string) (*BatchJob, error) {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	var targets []SurveyTarget
	for _, target := range h.batchJob.config.Targets {
		if wanted[target.Name] {
			targets = append(targets, target)
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no survey targets match %v", names)
	}

	restricted := h.batchJob.config
	restricted.Targets = targets

	return NewBatchJob(BatchJobConfig{
		Config:   restricted,
		Logger:   h.logger,
		Analyzer: h.batchJob.analyzer,
		Recorder: h.batchJob.recorder,
	}), nil
}

// adHocJob builds a job for regions carried inline in the message.
func (h *PubSubHandler) adHocJob(regions []RegionMessage) *BatchJob {
	targets := make([]SurveyTarget, 0, len(regions))
	for i, region := range regions {
		name := region.Name
		if name == "" {
			name = fmt.Sprintf("adhoc-%d", i)
		}
		targets = append(targets, SurveyTarget{
			Name:     name,
			Lat:      region.Lat,
			Lon:      region.Lon,
			RadiusKm: region.RadiusKm,
		})
	}

	cfg := h.batchJob.config
	cfg.Targets = targets

	return NewBatchJob(BatchJobConfig{
		Config:   cfg,
		Logger:   h.logger,
		Analyzer: h.batchJob.analyzer,
		Recorder: h.batchJob.recorder,
	})
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := h.prober.Health(probeCtx); err != nil {
		return fmt.Errorf("engine health check failed: %w", err)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
