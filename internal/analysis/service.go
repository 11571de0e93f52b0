package analysis

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hexascope/hexascope/pkg/hexgeo"
)

// Analyzer is the interface to the external analysis engine.
type Analyzer interface {
	// Analyze measures the hexagon region described by req.
	Analyze(ctx context.Context, req Request) (*Result, error)

	// Name returns the engine identifier for logging and status reporting.
	Name() string
}

// Recorder persists completed runs. Recording is best-effort; a recorder
// failure never fails the run itself.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}

// ServiceConfig holds configuration for the analysis service.
type ServiceConfig struct {
	// Analyzer is the external analysis engine (required).
	Analyzer Analyzer

	// Recorder receives successful runs (optional).
	Recorder Recorder

	// Logger for service operations.
	Logger zerolog.Logger

	// AreaTolerance is the maximum relative disagreement allowed between the
	// engine's reported hexagon area and the analytic formula before a
	// mismatch is logged (default: 0.05).
	AreaTolerance float64
}

// Service holds the single analysis slot. At most one run is in flight; a
// new run supersedes the previous result wholesale, and a failed run
// preserves the last successful result so a failure is never mistaken for
// an empty analysis.
type Service struct {
	analyzer      Analyzer
	recorder      Recorder
	logger        zerolog.Logger
	areaTolerance float64

	mu         sync.Mutex
	state      State
	inFlight   *Run
	lastRun    *Run
	lastResult *Result
}

// NewService creates a new analysis service.
func NewService(cfg ServiceConfig) *Service {
	tolerance := cfg.AreaTolerance
	if tolerance == 0 {
		tolerance = 0.05
	}

	return &Service{
		analyzer:      cfg.Analyzer,
		recorder:      cfg.Recorder,
		logger:        cfg.Logger,
		areaTolerance: tolerance,
		state:         StateIdle,
	}
}

// Run executes one analysis for the given region. It rejects the request
// with ErrRunInProgress when another run is in flight, validates the region
// geometry before calling the engine, and updates the slot atomically.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	// Fail fast on geometry the engine could never analyze.
	if _, err := hexgeo.Generate(req.Center, req.RadiusKm); err != nil {
		return nil, err
	}

	run := Run{
		ID:        "run_" + uuid.New().String()[:22],
		State:     StateRequesting,
		Request:   req,
		StartedAt: time.Now(),
	}

	s.mu.Lock()
	if s.state == StateRequesting {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.state = StateRequesting
	s.inFlight = &run
	s.mu.Unlock()

	s.logger.Info().
		Str("run_id", run.ID).
		Float64("lat", req.Center.Lat).
		Float64("lon", req.Center.Lon).
		Float64("radius_km", req.RadiusKm).
		Str("analyzer", s.analyzer.Name()).
		Msg("starting analysis run")

	result, err := s.analyzer.Analyze(ctx, req)
	run.FinishedAt = time.Now()

	if err != nil {
		run.State = StateFailed
		run.FailureReason = err.Error()

		s.mu.Lock()
		s.state = StateFailed
		s.inFlight = nil
		s.lastRun = &run
		// lastResult is deliberately retained: a failure must not erase or
		// masquerade as a prior successful analysis.
		s.mu.Unlock()

		s.logger.Error().Err(err).
			Str("run_id", run.ID).
			Dur("duration", run.FinishedAt.Sub(run.StartedAt)).
			Msg("analysis run failed")
		return nil, err
	}

	s.crossCheckArea(run.ID, req.RadiusKm, result)

	run.State = StateSucceeded
	run.Result = result

	s.mu.Lock()
	s.state = StateSucceeded
	s.inFlight = nil
	s.lastRun = &run
	s.lastResult = result
	s.mu.Unlock()

	s.logger.Info().
		Str("run_id", run.ID).
		Dur("duration", run.FinishedAt.Sub(run.StartedAt)).
		Str("dominant_landuse", result.LandUse.DominantCategory).
		Float64("hexagon_area_sq_km", result.HexagonAreaSqKm).
		Msg("analysis run succeeded")

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, run); err != nil {
			s.logger.Warn().Err(err).
				Str("run_id", run.ID).
				Msg("failed to record analysis run")
		}
	}

	return result, nil
}

// State returns the current slot state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Latest returns a snapshot of the most recently finished run. Returns
// ErrNoResult while idle or while the first run is still in flight.
func (s *Service) Latest() (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastRun == nil {
		return Run{State: s.state}, ErrNoResult
	}

	run := *s.lastRun
	return run, nil
}

// LastResult returns the most recent successful result, surviving later
// failed runs. Returns ErrNoResult when no run has succeeded yet.
func (s *Service) LastResult() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastResult == nil {
		return nil, ErrNoResult
	}
	return s.lastResult, nil
}

// crossCheckArea compares the engine's reported hexagon area against the
// analytic formula and logs a mismatch beyond the tolerance.
func (s *Service) crossCheckArea(runID string, radiusKm float64, result *Result) {
	expected, err := hexgeo.AreaSqKm(radiusKm)
	if err != nil || expected == 0 {
		return
	}

	if math.Abs(result.HexagonAreaSqKm-expected)/expected > s.areaTolerance {
		s.logger.Warn().
			Str("run_id", runID).
			Float64("reported_sq_km", result.HexagonAreaSqKm).
			Float64("analytic_sq_km", expected).
			Msg("hexagon area disagrees with analytic formula")
	}
}
