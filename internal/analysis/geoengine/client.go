// Package geoengine provides a client for the external geospatial analysis
// engine's HTTP API.
package geoengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/hexascope/hexascope/internal/analysis"
	"github.com/hexascope/hexascope/internal/provider/resilience"
)

const (
	// ProviderName identifies this analysis engine.
	ProviderName = "geoengine"

	// DefaultBaseURL is the engine's API base URL in local development.
	DefaultBaseURL = "http://localhost:5000"

	// DefaultTimeout is the default request timeout. Analyses query several
	// upstream data layers, so this is generous.
	DefaultTimeout = 60 * time.Second

	// MinRadiusKm and MaxRadiusKm bound the radius the engine accepts.
	MinRadiusKm = 0.5
	MaxRadiusKm = 10
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the engine client.
type ClientConfig struct {
	// BaseURL is the engine's base URL (optional, defaults to local dev).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 60s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Metrics receives per-request duration telemetry (optional).
	Metrics resilience.RequestRecorder

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a client for the analysis engine's API.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new engine client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		clientCfg.Metrics = cfg.Metrics
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Health checks whether the engine is reachable and reporting healthy.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &analysis.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach analysis engine",
			Err:      analysis.ErrAnalyzerUnavailable,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return c.handleErrorResponse(resp.StatusCode, body)
	}

	var health healthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if health.Status != "ok" && health.Status != "healthy" {
		return &analysis.Error{
			Provider: ProviderName,
			Code:     "UNHEALTHY",
			Message:  fmt.Sprintf("analysis engine reports status %q", health.Status),
			Err:      analysis.ErrAnalyzerUnavailable,
		}
	}

	return nil
}

// Analyze requests a full analysis of the hexagon region described by req.
func (c *Client) Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	body, err := json.Marshal(analyzeRequest{
		Latitude:  req.Center.Lat,
		Longitude: req.Center.Lon,
		RadiusKm:  req.RadiusKm,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Float64("lat", req.Center.Lat).
		Float64("lon", req.Center.Lon).
		Float64("radius_km", req.RadiusKm).
		Msg("requesting analysis from engine")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &analysis.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach analysis engine",
			Err:      analysis.ErrAnalyzerUnavailable,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, respBody)
	}

	var engineResp analyzeResponse
	if err := json.Unmarshal(respBody, &engineResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	result := toResult(&engineResp)
	if err := result.Validate(); err != nil {
		return nil, &analysis.Error{
			Provider: ProviderName,
			Code:     "INVALID_RESULT",
			Message:  "analysis engine returned an inconsistent result",
			Err:      err,
		}
	}

	c.logger.Debug().
		Str("dominant_landuse", result.LandUse.DominantCategory).
		Float64("hexagon_area_sq_km", result.HexagonAreaSqKm).
		Msg("received analysis from engine")

	return result, nil
}

// HexagonGeoJSON fetches the engine's rendering of the hexagon boundary as
// raw GeoJSON. The body is passed through untouched so the engine and the
// dashboard always agree on the drawn shape.
func (c *Client) HexagonGeoJSON(ctx context.Context, req analysis.Request) ([]byte, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(req.Center.Lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(req.Center.Lon, 'f', -1, 64))
	query.Set("radius", strconv.FormatFloat(req.RadiusKm, 'f', -1, 64))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/hexagon-geojson?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json, application/geo+json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &analysis.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach analysis engine",
			Err:      analysis.ErrAnalyzerUnavailable,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}

	return body, nil
}

// handleErrorResponse maps engine error responses to domain errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var engineErr errorResponse
	if err := json.Unmarshal(body, &engineErr); err != nil || engineErr.Error == "" {
		engineErr.Error = fmt.Sprintf("analysis engine returned status %d", statusCode)
	}

	switch {
	case statusCode == http.StatusBadRequest:
		return &analysis.Error{
			Provider: ProviderName,
			Code:     "BAD_REQUEST",
			Message:  engineErr.Error,
			Err:      analysis.ErrAnalyzerRejected,
		}
	case statusCode == http.StatusTooManyRequests:
		return &analysis.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "analysis engine rate limit exceeded",
			Err:      analysis.ErrAnalyzerUnavailable,
		}
	case statusCode >= 500:
		return &analysis.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "analysis engine is temporarily unavailable",
			Err:      analysis.ErrAnalyzerUnavailable,
		}
	default:
		return &analysis.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  engineErr.Error,
			Err:      analysis.ErrAnalyzerRejected,
		}
	}
}

// toResult converts the engine's flat response to the domain model. The
// dominant land-use fields are re-derived from the breakdown rather than
// trusted, so an engine that disagrees with its own breakdown cannot smuggle
// the disagreement into the result.
func toResult(resp *analyzeResponse) *analysis.Result {
	result := &analysis.Result{
		Elevation: analysis.Elevation{
			MinMeters:  resp.ElevationMin,
			MeanMeters: resp.ElevationMean,
			MaxMeters:  resp.ElevationMax,
		},
		Water: analysis.Water{
			Percentage: resp.WaterPercentage,
			AreaSqM:    resp.WaterAreaSqM,
		},
		Buildings: analysis.Buildings{
			Density:      resp.BuildingDensity,
			TotalAreaSqM: resp.TotalBuildingAreaSqM,
		},
		Roads: analysis.Roads{
			TotalLengthM: resp.TotalRoadLengthM,
		},
		LandUse: analysis.LandUse{
			Breakdown: analysis.Breakdown(resp.LanduseBreakdown),
		},
		HexagonAreaSqKm: resp.HexagonAreaSqKm,
	}
	result.LandUse.Derive()
	return result
}

// validateRequest checks the request against the engine's accepted bounds
// before spending a round trip on it.
func validateRequest(req analysis.Request) error {
	if err := req.Center.Validate(); err != nil {
		return &analysis.Error{
			Provider: ProviderName,
			Code:     "INVALID_CENTER",
			Message:  err.Error(),
			Err:      analysis.ErrInvalidCoordinates,
		}
	}
	if req.RadiusKm < MinRadiusKm || req.RadiusKm > MaxRadiusKm {
		return &analysis.Error{
			Provider: ProviderName,
			Code:     "INVALID_RADIUS",
			Message:  fmt.Sprintf("radius %.2f km outside [%.1f, %.0f]", req.RadiusKm, MinRadiusKm, float64(MaxRadiusKm)),
			Err:      analysis.ErrRadiusOutOfRange,
		}
	}
	return nil
}
