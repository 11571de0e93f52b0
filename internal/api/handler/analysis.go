package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hexascope/hexascope/internal/analysis"
	"github.com/hexascope/hexascope/internal/api/models"
	"github.com/hexascope/hexascope/internal/api/response"
	"github.com/hexascope/hexascope/internal/featureflags"
	"github.com/hexascope/hexascope/pkg/hexgeo"
)

// AnalysisHandler handles analysis run endpoints.
type AnalysisHandler struct {
	service *analysis.Service
	flags   *featureflags.Service
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(service *analysis.Service, flags *featureflags.Service) *AnalysisHandler {
	return &AnalysisHandler{service: service, flags: flags}
}

// RunAnalysis handles POST /v1/analyses:run - trigger one analysis run.
func (h *AnalysisHandler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.flags != nil && h.flags.AreAnalysisRunsDisabled(r.Context()) {
		response.ServiceUnavailable(w, r, "analysis runs are temporarily disabled")
		return
	}

	var input models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	req := analysis.Request{
		Center:   hexgeo.Point{Lat: input.Latitude, Lon: input.Longitude},
		RadiusKm: input.RadiusKm,
	}

	if _, err := h.service.Run(r.Context(), req); err != nil {
		writeAnalysisError(w, r, err)
		return
	}

	run, err := h.service.Latest()
	if err != nil {
		response.InternalError(w, r, "run finished but no snapshot is available")
		return
	}

	response.JSON(w, r, http.StatusOK, toAnalysisRun(run))
}

// GetLatest handles GET /v1/analyses/latest - current analysis slot.
func (h *AnalysisHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	latest := models.LatestAnalysis{
		State: h.service.State(),
	}

	if run, err := h.service.Latest(); err == nil {
		converted := toAnalysisRun(run)
		latest.Run = &converted
	}
	if result, err := h.service.LastResult(); err == nil {
		latest.LastResult = result
	}

	if latest.Run == nil && latest.LastResult == nil {
		response.NotFound(w, r, "no analysis has been run yet")
		return
	}

	response.JSON(w, r, http.StatusOK, latest)
}

// toAnalysisRun converts a run snapshot to its API form.
func toAnalysisRun(run analysis.Run) models.AnalysisRun {
	return models.AnalysisRun{
		RunID: run.ID,
		State: run.State,
		Center: models.Point{
			Lat: run.Request.Center.Lat,
			Lon: run.Request.Center.Lon,
		},
		RadiusKm:      run.Request.RadiusKm,
		Result:        run.Result,
		FailureReason: run.FailureReason,
		StartedAt:     models.Timestamp(run.StartedAt),
		FinishedAt:    models.Timestamp(run.FinishedAt),
	}
}

// writeAnalysisError maps analysis failures to problem+json responses.
func writeAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, analysis.ErrRunInProgress):
		response.Conflict(w, r, "an analysis run is already in progress")
	case errors.Is(err, analysis.ErrAnalyzerUnavailable):
		response.ServiceUnavailable(w, r, "the analysis engine is unreachable; any earlier result is still available")
	case errors.Is(err, analysis.ErrRadiusOutOfRange),
		errors.Is(err, analysis.ErrInvalidCoordinates),
		errors.Is(err, analysis.ErrAnalyzerRejected),
		errors.Is(err, hexgeo.ErrInvalidRadius),
		errors.Is(err, hexgeo.ErrInvalidLatitude),
		errors.Is(err, hexgeo.ErrInvalidLongitude):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, hexgeo.ErrPolarSingularity):
		response.BadRequest(w, r, "hexagon centers at the poles cannot be projected", nil)
	default:
		response.InternalError(w, r, "analysis run failed")
	}
}
