package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hexascope/hexascope/internal/analysis"
	"github.com/hexascope/hexascope/pkg/hexgeo"
)

// BatchJob sweeps the configured survey targets through the analysis engine
// and records each outcome.
type BatchJob struct {
	config   BatchConfig
	logger   zerolog.Logger
	analyzer analysis.Analyzer
	recorder analysis.Recorder

	// Metrics
	metrics *BatchMetrics
}

// BatchMetrics tracks batch job statistics.
type BatchMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalBatches       int64
	SuccessfulAnalyses int64
	FailedAnalyses     int64

	// Timings
	LastBatchAt       time.Time
	LastBatchDuration time.Duration
	TotalDuration     time.Duration
}

// BatchJobConfig holds configuration for creating a BatchJob.
type BatchJobConfig struct {
	Config   BatchConfig
	Logger   zerolog.Logger
	Analyzer analysis.Analyzer
	Recorder analysis.Recorder
}

// NewBatchJob creates a new batch job processor.
func NewBatchJob(cfg BatchJobConfig) *BatchJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config = DefaultBatchConfig()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 2
	}
	if config.Timeout == 0 {
		config.Timeout = 90 * time.Second
	}

	return &BatchJob{
		config:   config,
		logger:   cfg.Logger,
		analyzer: cfg.Analyzer,
		recorder: cfg.Recorder,
		metrics:  &BatchMetrics{},
	}
}

// BatchResult contains the result of one batch sweep.
type BatchResult struct {
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	TotalTargets int
	Successful   int
	Failed       int
	Errors       []TargetError
}

// TargetError represents an analysis failure for one target.
type TargetError struct {
	Target string
	Error  string
}

// Run executes one analysis sweep over all configured targets.
func (j *BatchJob) Run(ctx context.Context) *BatchResult {
	startTime := time.Now()
	result := &BatchResult{
		StartTime:    startTime,
		TotalTargets: j.config.TotalTargets(),
	}

	j.logger.Info().
		Int("total_targets", result.TotalTargets).
		Int("concurrency", j.config.Concurrency).
		Msg("starting batch analysis job")

	// Create work channels
	targetsChan := make(chan SurveyTarget, len(j.config.Targets))
	resultsChan := make(chan targetResult, len(j.config.Targets))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.analyzeWorker(ctx, targetsChan, resultsChan)
		}()
	}

	// Send targets to workers
	for _, target := range j.config.Targets {
		targetsChan <- target
	}
	close(targetsChan)

	// Wait for workers to complete
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Collect results
	for tr := range resultsChan {
		if tr.success {
			result.Successful++
		} else {
			result.Failed++
			result.Errors = append(result.Errors, TargetError{
				Target: tr.target.Name,
				Error:  tr.err,
			})
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	// Update metrics
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("batch analysis job completed")

	return result
}

type targetResult struct {
	target  SurveyTarget
	success bool
	err     string
}

func (j *BatchJob) analyzeWorker(ctx context.Context, targets <-chan SurveyTarget, results chan<- targetResult) {
	for target := range targets {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.analyzeTarget(ctx, target)
		}
	}
}

func (j *BatchJob) analyzeTarget(ctx context.Context, target SurveyTarget) targetResult {
	targetCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	req := analysis.Request{
		Center:   hexgeo.Point{Lat: target.Lat, Lon: target.Lon},
		RadiusKm: target.RadiusKm,
	}

	run := analysis.Run{
		ID:        "batch_" + uuid.New().String()[:22],
		State:     analysis.StateRequesting,
		Request:   req,
		StartedAt: time.Now(),
	}

	res, err := j.analyzer.Analyze(targetCtx, req)
	run.FinishedAt = time.Now()

	if err != nil {
		run.State = analysis.StateFailed
		run.FailureReason = err.Error()
		j.logger.Warn().Err(err).
			Str("target", target.Name).
			Msg("batch analysis failed")
	} else {
		run.State = analysis.StateSucceeded
		run.Result = res
	}

	if j.recorder != nil {
		if recErr := j.recorder.Record(targetCtx, run); recErr != nil {
			j.logger.Warn().Err(recErr).
				Str("target", target.Name).
				Msg("failed to record batch analysis")
		}
	}

	if err != nil {
		return targetResult{target: target, err: err.Error()}
	}
	return targetResult{target: target, success: true}
}

func (j *BatchJob) updateMetrics(result *BatchResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalBatches++
	j.metrics.SuccessfulAnalyses += int64(result.Successful)
	j.metrics.FailedAnalyses += int64(result.Failed)
	j.metrics.LastBatchAt = result.EndTime
	j.metrics.LastBatchDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *BatchJob) GetMetrics() BatchMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return BatchMetrics{
		TotalBatches:       j.metrics.TotalBatches,
		SuccessfulAnalyses: j.metrics.SuccessfulAnalyses,
		FailedAnalyses:     j.metrics.FailedAnalyses,
		LastBatchAt:        j.metrics.LastBatchAt,
		LastBatchDuration:  j.metrics.LastBatchDuration,
		TotalDuration:      j.metrics.TotalDuration,
	}
}
