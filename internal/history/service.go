package history

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hexascope/hexascope/internal/analysis"
)

// MaxListLimit caps how many records one listing can return.
const MaxListLimit = 200

// ServiceConfig holds configuration for the history service.
type ServiceConfig struct {
	// Repository is the run record store (required).
	Repository Repository

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service records finished analysis runs and serves them back to the
// dashboard. It satisfies the analysis package's Recorder interface.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}
}

// Record persists a finished run.
func (s *Service) Record(ctx context.Context, run analysis.Run) error {
	record := FromRun(run)

	if err := s.repo.Insert(ctx, record); err != nil {
		return fmt.Errorf("inserting run record: %w", err)
	}

	s.logger.Debug().
		Str("run_id", record.ID).
		Str("state", string(record.State)).
		Msg("recorded analysis run")

	return nil
}

// Get retrieves one run record by ID.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.repo.Get(ctx, id)
}

// Recent lists run records, newest first. The limit is clamped to
// MaxListLimit; zero or negative means the repository default.
func (s *Service) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.Recent(ctx, ListOptions{Limit: limit})
}

// Ensure Service implements the analysis Recorder interface.
var _ analysis.Recorder = (*Service)(nil)
