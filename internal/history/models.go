// Package history persists completed analysis runs so the dashboard can show
// where an operator has already looked.
package history

import (
	"errors"
	"time"

	"github.com/hexascope/hexascope/internal/analysis"
)

// ErrRecordNotFound is returned when a run record doesn't exist.
var ErrRecordNotFound = errors.New("run record not found")

// Record is one persisted analysis run.
type Record struct {
	ID            string           `json:"id"`
	State         analysis.State   `json:"state"`
	CenterLat     float64          `json:"center_lat"`
	CenterLon     float64          `json:"center_lon"`
	RadiusKm      float64          `json:"radius_km"`
	Result        *analysis.Result `json:"result,omitempty"`
	FailureReason string           `json:"failure_reason,omitempty"`
	StartedAt     time.Time        `json:"started_at"`
	FinishedAt    time.Time        `json:"finished_at"`
}

// FromRun converts a finished run into its persisted form.
func FromRun(run analysis.Run) *Record {
	return &Record{
		ID:            run.ID,
		State:         run.State,
		CenterLat:     run.Request.Center.Lat,
		CenterLon:     run.Request.Center.Lon,
		RadiusKm:      run.Request.RadiusKm,
		Result:        run.Result,
		FailureReason: run.FailureReason,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
	}
}
