// Package worker provides background batch analysis processing for HexaScope.
package worker

import (
	"time"
)

// SurveyTarget is one region to analyze in a batch sweep.
type SurveyTarget struct {
	// Name is the human-readable name of the target.
	Name string

	// Lat and Lon locate the hexagon center.
	Lat float64
	Lon float64

	// RadiusKm is the hexagon radius in kilometers.
	RadiusKm float64

	// Priority determines sweep order (lower = higher priority).
	Priority int
}

// BatchConfig holds configuration for the batch analysis job.
type BatchConfig struct {
	// Targets are the regions to analyze.
	// If empty, uses DefaultSurveyTargets.
	Targets []SurveyTarget

	// Concurrency is the number of concurrent analyses.
	// Default: 2
	Concurrency int

	// Timeout is the timeout for each analysis.
	// Default: 90 seconds
	Timeout time.Duration
}

// DefaultBatchConfig returns the default batch configuration.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Targets:     DefaultSurveyTargets(),
		Concurrency: 2,
		Timeout:     90 * time.Second,
	}
}

// DefaultSurveyTargets returns the stock survey sweep: a terrain-diverse set
// of regions used to keep reference analyses warm and to exercise every
// measurement layer (mountain, delta, urban, coastal).
func DefaultSurveyTargets() []SurveyTarget {
	return []SurveyTarget{
		{
			Name:     "Djurdjura Massif",
			Lat:      36.447451,
			Lon:      4.228459,
			RadiusKm: 2,
			Priority: 1,
		},
		{
			Name:     "Amsterdam Canal Belt",
			Lat:      52.3676,
			Lon:      4.9041,
			RadiusKm: 2,
			Priority: 1,
		},
		{
			Name:     "Rhone Delta",
			Lat:      43.5125,
			Lon:      4.6681,
			RadiusKm: 5,
			Priority: 2,
		},
		{
			Name:     "Zermatt Valley",
			Lat:      46.0207,
			Lon:      7.7491,
			RadiusKm: 3,
			Priority: 2,
		},
		{
			Name:     "Lisbon Coast",
			Lat:      38.6979,
			Lon:      -9.4207,
			RadiusKm: 4,
			Priority: 3,
		},
	}
}

// TotalTargets returns the number of regions in the sweep.
func (c BatchConfig) TotalTargets() int {
	return len(c.Targets)
}
