package models

import "github.com/hexascope/hexascope/internal/analysis"

// AnalyzeRequest is the body for POST /v1/analyses:run.
type AnalyzeRequest struct {
	Latitude  float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	RadiusKm  float64 `json:"radius_km" validate:"required,gt=0"`
}

// AnalysisRun describes one analysis run and, when it succeeded, its result.
type AnalysisRun struct {
	RunID         string           `json:"runId"`
	State         analysis.State   `json:"state"`
	Center        Point            `json:"center"`
	RadiusKm      float64          `json:"radiusKm"`
	Result        *analysis.Result `json:"result,omitempty"`
	FailureReason string           `json:"failureReason,omitempty"`
	StartedAt     Timestamp        `json:"startedAt"`
	FinishedAt    Timestamp        `json:"finishedAt"`
}

// LatestAnalysis is the response for GET /v1/analyses/latest. LastResult
// carries the most recent successful result even when the latest run failed.
type LatestAnalysis struct {
	State      analysis.State   `json:"state"`
	Run        *AnalysisRun     `json:"run,omitempty"`
	LastResult *analysis.Result `json:"lastResult,omitempty"`
}

// RunHistory is the response for GET /v1/analyses.
type RunHistory struct {
	Runs []AnalysisRun `json:"runs"`
}

// MapStyle holds the display defaults the dashboard uses when drawing the
// hexagon and its center marker. It is injected into the router rather than
// read from globals so two dashboards can render differently.
type MapStyle struct {
	HexagonFillColor   string  `json:"hexagonFillColor"`
	HexagonLineColor   string  `json:"hexagonLineColor"`
	HexagonFillOpacity float64 `json:"hexagonFillOpacity"`
	MarkerColor        string  `json:"markerColor"`
	DefaultZoom        int     `json:"defaultZoom"`
}

// DefaultMapStyle returns the stock dashboard styling.
func DefaultMapStyle() MapStyle {
	return MapStyle{
		HexagonFillColor:   "#3388ff",
		HexagonLineColor:   "#2266cc",
		HexagonFillOpacity: 0.2,
		MarkerColor:        "#d33d29",
		DefaultZoom:        12,
	}
}
