package handler

import (
	"net/http"

	"github.com/hexascope/hexascope/internal/analysis"
	"github.com/hexascope/hexascope/internal/api/response"
)

// ExportHandler handles result export endpoints.
type ExportHandler struct {
	service *analysis.Service
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(service *analysis.Service) *ExportHandler {
	return &ExportHandler{service: service}
}

// ExportCSV handles GET /v1/analyses/latest/export.csv - the most recent
// successful result flattened to delimited text.
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.LastResult()
	if err != nil {
		response.NotFound(w, r, "no successful analysis to export")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="analysis.csv"`)
	w.WriteHeader(http.StatusOK)
	// Headers are already written, so a mid-stream failure can't change the status.
	_ = analysis.WriteCSV(w, result)
}
