package handler

import (
	"net/http"
	"strconv"

	"github.com/hexascope/hexascope/internal/api/models"
	"github.com/hexascope/hexascope/internal/api/response"
	"github.com/hexascope/hexascope/internal/featureflags"
	"github.com/hexascope/hexascope/internal/history"
)

// HistoryHandler handles run history endpoints.
type HistoryHandler struct {
	service *history.Service
	flags   *featureflags.Service
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(service *history.Service, flags *featureflags.Service) *HistoryHandler {
	return &HistoryHandler{service: service, flags: flags}
}

// ListRuns handles GET /v1/analyses - recent run history, newest first.
func (h *HistoryHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if h.flags != nil {
		limit = h.flags.HistoryListLimit(r.Context(), 0)
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.BadRequest(w, r, "limit must be a positive integer", []models.FieldError{
				{Field: "limit", Message: "must be a positive integer"},
			})
			return
		}
		limit = parsed
	}

	records, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		response.InternalError(w, r, "failed to list run history")
		return
	}

	runs := make([]models.AnalysisRun, 0, len(records))
	for _, record := range records {
		runs = append(runs, models.AnalysisRun{
			RunID: record.ID,
			State: record.State,
			Center: models.Point{
				Lat: record.CenterLat,
				Lon: record.CenterLon,
			},
			RadiusKm:      record.RadiusKm,
			Result:        record.Result,
			FailureReason: record.FailureReason,
			StartedAt:     models.Timestamp(record.StartedAt),
			FinishedAt:    models.Timestamp(record.FinishedAt),
		})
	}

	response.JSON(w, r, http.StatusOK, models.RunHistory{Runs: runs})
}
