package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hexascope/hexascope/internal/analysis"
	"github.com/hexascope/hexascope/internal/api/models"
	"github.com/hexascope/hexascope/internal/api/response"
	"github.com/hexascope/hexascope/internal/featureflags"
	"github.com/hexascope/hexascope/pkg/hexgeo"
)

// GeoJSONFetcher fetches the engine's rendering of the hexagon boundary.
type GeoJSONFetcher interface {
	HexagonGeoJSON(ctx context.Context, req analysis.Request) ([]byte, error)
}

// HexagonHandler handles hexagon geometry endpoints.
type HexagonHandler struct {
	engine GeoJSONFetcher
	style  models.MapStyle
	flags  *featureflags.Service
}

// NewHexagonHandler creates a new HexagonHandler.
func NewHexagonHandler(engine GeoJSONFetcher, style models.MapStyle, flags *featureflags.Service) *HexagonHandler {
	return &HexagonHandler{engine: engine, style: style, flags: flags}
}

// GetHexagon handles GET /v1/hexagon - the locally generated hexagon for the
// given center and radius, with the configured display style attached as
// feature properties.
func (h *HexagonHandler) GetHexagon(w http.ResponseWriter, r *http.Request) {
	center, radiusKm, ok := parseRegionQuery(w, r)
	if !ok {
		return
	}

	feature, err := hexgeo.Feature(center, radiusKm)
	if err != nil {
		writeAnalysisError(w, r, err)
		return
	}

	feature.Properties["style"] = h.style

	response.JSON(w, r, http.StatusOK, feature)
}

// ExportGeoJSON handles GET /v1/hexagon/export.geojson - the engine's own
// rendering of the hexagon, passed through untouched.
func (h *HexagonHandler) ExportGeoJSON(w http.ResponseWriter, r *http.Request) {
	if h.flags != nil && h.flags.IsEngineExportDisabled(r.Context()) {
		response.ServiceUnavailable(w, r, "engine exports are temporarily disabled")
		return
	}

	center, radiusKm, ok := parseRegionQuery(w, r)
	if !ok {
		return
	}

	body, err := h.engine.HexagonGeoJSON(r.Context(), analysis.Request{
		Center:   center,
		RadiusKm: radiusKm,
	})
	if err != nil {
		writeAnalysisError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Content-Disposition", `attachment; filename="hexagon.geojson"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// parseRegionQuery reads lat, lon and radius query parameters. It writes a
// problem response and returns ok=false when any of them is missing or
// malformed.
func parseRegionQuery(w http.ResponseWriter, r *http.Request) (hexgeo.Point, float64, bool) {
	var fieldErrors []models.FieldError

	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "lat", Message: "must be a number"})
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "lon", Message: "must be a number"})
	}
	radiusKm, err := strconv.ParseFloat(r.URL.Query().Get("radius"), 64)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "radius", Message: "must be a number"})
	}

	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid region query", fieldErrors)
		return hexgeo.Point{}, 0, false
	}

	return hexgeo.Point{Lat: lat, Lon: lon}, radiusKm, true
}
