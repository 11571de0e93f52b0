// Package analysis defines the aggregation contract for hexagon region
// analyses: the shape of a result, how raw per-layer measurements compose
// into derived summary fields, and the lifecycle of a single analysis run.
//
// The package computes nothing over raw geometry itself; any engine that
// produces the raw per-layer areas, lengths and elevation samples can be
// adapted to this contract.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hexascope/hexascope/pkg/hexgeo"
)

// Sentinel errors for analysis operations.
var (
	// ErrAnalyzerUnavailable indicates the analysis engine is down, unreachable,
	// or the circuit breaker is open.
	ErrAnalyzerUnavailable = errors.New("analysis engine unavailable")
	// ErrAnalyzerRejected indicates the analysis engine rejected the request.
	ErrAnalyzerRejected = errors.New("analysis engine rejected the request")
	// ErrRadiusOutOfRange indicates a radius outside the engine's accepted range.
	ErrRadiusOutOfRange = errors.New("radius out of accepted range")
	// ErrInvalidCoordinates indicates coordinates outside geographic bounds.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrDegenerateLandUse indicates a land-use breakdown whose total area is
	// zero, for which no dominant category is defined.
	ErrDegenerateLandUse = errors.New("land-use breakdown has zero total area")
	// ErrRunInProgress indicates an analysis run is already in flight.
	ErrRunInProgress = errors.New("an analysis run is already in progress")
	// ErrNoResult indicates no analysis result is available yet.
	ErrNoResult = errors.New("no analysis result available")
)

// Request identifies the hexagon region to analyze.
type Request struct {
	Center   hexgeo.Point
	RadiusKm float64
}

// Elevation summarizes DEM samples within the region, in meters.
type Elevation struct {
	MinMeters  float64 `json:"elevation_min"`
	MeanMeters float64 `json:"elevation_mean"`
	MaxMeters  float64 `json:"elevation_max"`
}

// Water summarizes water coverage. Percentage is already on a 0-100 scale.
type Water struct {
	Percentage float64 `json:"water_percentage"`
	AreaSqM    float64 `json:"water_area_sq_m"`
}

// Buildings summarizes building footprints. Density is a dimensionless
// fraction in [0, 1] (footprint area over region area); scaling to a
// percentage is a presentation concern and never happens in this package.
type Buildings struct {
	Density      float64 `json:"building_density"`
	TotalAreaSqM float64 `json:"total_building_area_sq_m"`
}

// Roads summarizes road features within the region.
type Roads struct {
	TotalLengthM float64 `json:"total_road_length_m"`
}

// Breakdown maps a land-use category to its measured area within the region.
// All entries share one unit of area.
type Breakdown map[string]float64

// Total returns the summed area across all categories.
func (b Breakdown) Total() float64 {
	var total float64
	for _, area := range b {
		total += area
	}
	return total
}

// Dominant returns the category with the greatest area and its share of the
// total as a 0-100 percentage. Ties break to the lexicographically smallest
// category name so the result is deterministic regardless of map iteration
// order. Returns ErrDegenerateLandUse when the total area is zero.
func (b Breakdown) Dominant() (string, float64, error) {
	total := b.Total()
	if total <= 0 {
		return "", 0, ErrDegenerateLandUse
	}

	var dominant string
	var dominantArea float64
	for category, area := range b {
		if area > dominantArea || (area == dominantArea && (dominant == "" || category < dominant)) {
			dominant = category
			dominantArea = area
		}
	}

	return dominant, 100 * dominantArea / total, nil
}

// Percentages returns each category's share of the total as a 0-100
// percentage. Returns ErrDegenerateLandUse when the total area is zero
// rather than dividing by it.
func (b Breakdown) Percentages() (map[string]float64, error) {
	total := b.Total()
	if total <= 0 {
		return nil, ErrDegenerateLandUse
	}

	percentages := make(map[string]float64, len(b))
	for category, area := range b {
		percentages[category] = 100 * area / total
	}
	return percentages, nil
}

// Categories returns the category names sorted lexicographically.
func (b Breakdown) Categories() []string {
	categories := make([]string, 0, len(b))
	for category := range b {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// LandUse summarizes land-use coverage. DominantCategory is empty when the
// breakdown is empty or has zero total area ("no data").
type LandUse struct {
	Breakdown          Breakdown `json:"landuse_breakdown"`
	DominantCategory   string    `json:"dominant_landuse"`
	DominantPercentage float64   `json:"dominant_landuse_percentage"`
}

// Derive fills the dominant fields from the breakdown. A zero-total
// breakdown yields the defined "no data" state (empty category, zero
// percentage) rather than an error.
func (l *LandUse) Derive() {
	category, percentage, err := l.Breakdown.Dominant()
	if err != nil {
		l.DominantCategory = ""
		l.DominantPercentage = 0
		return
	}
	l.DominantCategory = category
	l.DominantPercentage = percentage
}

// Result is the complete analysis of one hexagon region. It is produced
// atomically by a single run, immutable once received, and superseded
// wholesale by the next run.
type Result struct {
	Elevation       Elevation `json:"elevation"`
	Water           Water     `json:"water"`
	Buildings       Buildings `json:"buildings"`
	Roads           Roads     `json:"roads"`
	LandUse         LandUse   `json:"landuse"`
	HexagonAreaSqKm float64   `json:"hexagon_area_sq_km"`
}

// Validate checks the result's internal invariants.
func (r *Result) Validate() error {
	if r.Elevation.MinMeters > r.Elevation.MeanMeters || r.Elevation.MeanMeters > r.Elevation.MaxMeters {
		return fmt.Errorf("elevation min %.2f / mean %.2f / max %.2f are not ordered",
			r.Elevation.MinMeters, r.Elevation.MeanMeters, r.Elevation.MaxMeters)
	}
	if r.Water.Percentage < 0 || r.Water.Percentage > 100 {
		return fmt.Errorf("water percentage %.2f outside [0, 100]", r.Water.Percentage)
	}
	if r.Water.AreaSqM < 0 {
		return fmt.Errorf("negative water area %.2f", r.Water.AreaSqM)
	}
	if r.Buildings.Density < 0 || r.Buildings.Density > 1 {
		return fmt.Errorf("building density %.4f outside [0, 1]", r.Buildings.Density)
	}
	if r.Buildings.TotalAreaSqM < 0 {
		return fmt.Errorf("negative building area %.2f", r.Buildings.TotalAreaSqM)
	}
	if r.Roads.TotalLengthM < 0 {
		return fmt.Errorf("negative road length %.2f", r.Roads.TotalLengthM)
	}
	for category, area := range r.LandUse.Breakdown {
		if area < 0 || math.IsNaN(area) {
			return fmt.Errorf("invalid area %.2f for land-use category %q", area, category)
		}
	}
	if r.LandUse.DominantPercentage < 0 || r.LandUse.DominantPercentage > 100 {
		return fmt.Errorf("dominant land-use percentage %.2f outside [0, 100]", r.LandUse.DominantPercentage)
	}
	if r.HexagonAreaSqKm < 0 {
		return fmt.Errorf("negative hexagon area %.4f", r.HexagonAreaSqKm)
	}
	return nil
}

// State is the lifecycle state of the analysis slot.
type State string

const (
	// StateIdle means no run has been triggered yet.
	StateIdle State = "idle"
	// StateRequesting means a run is in flight.
	StateRequesting State = "requesting"
	// StateSucceeded means the most recent run produced a result.
	StateSucceeded State = "succeeded"
	// StateFailed means the most recent run failed; any earlier result is
	// still retained.
	StateFailed State = "failed"
)

// Run is a snapshot of one analysis run.
type Run struct {
	ID            string
	State         State
	Request       Request
	Result        *Result
	FailureReason string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Error carries detailed failure information from the analysis engine.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the failure is transient.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrAnalyzerUnavailable)
}
