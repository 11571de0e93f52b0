package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hexascope/hexascope/internal/analysis"
)

// PostgresRepository is a PostgreSQL implementation of Repository. Results
// are stored as JSONB so the schema doesn't need migrating when the engine
// grows a new measurement layer.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL run record repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Insert stores a new run record.
func (r *PostgresRepository) Insert(ctx context.Context, record *Record) error {
	var result []byte
	if record.Result != nil {
		var err error
		result, err = json.Marshal(record.Result)
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
	}

	query := `
		INSERT INTO analysis_runs (
			id, state,
			center_lat, center_lon, radius_km,
			result, failure_reason,
			started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		string(record.State),
		record.CenterLat,
		record.CenterLon,
		record.RadiusKm,
		result,
		record.FailureReason,
		record.StartedAt,
		record.FinishedAt,
	)
	return err
}

// Get retrieves a run record by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Record, error) {
	query := `
		SELECT
			id, state,
			center_lat, center_lon, radius_km,
			result, failure_reason,
			started_at, finished_at
		FROM analysis_runs
		WHERE id = $1
	`

	record, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return record, nil
}

// Recent retrieves run records ordered by finish time, newest first.
func (r *PostgresRepository) Recent(ctx context.Context, opts ListOptions) ([]*Record, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT
			id, state,
			center_lat, center_lon, radius_km,
			result, failure_reason,
			started_at, finished_at
		FROM analysis_runs
		ORDER BY finished_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// scanRecord scans a run record from a query result.
func scanRecord(row pgx.Row) (*Record, error) {
	var record Record
	var state string
	var result []byte

	err := row.Scan(
		&record.ID,
		&state,
		&record.CenterLat,
		&record.CenterLon,
		&record.RadiusKm,
		&result,
		&record.FailureReason,
		&record.StartedAt,
		&record.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	record.State = analysis.State(state)
	if len(result) > 0 {
		record.Result = &analysis.Result{}
		if err := json.Unmarshal(result, record.Result); err != nil {
			return nil, fmt.Errorf("unmarshaling result: %w", err)
		}
	}

	return &record, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
