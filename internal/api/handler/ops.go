// Package handler provides HTTP handlers for the HexaScope API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hexascope/hexascope/internal/analysis"
	"github.com/hexascope/hexascope/internal/api/models"
	"github.com/hexascope/hexascope/internal/api/response"
	"github.com/hexascope/hexascope/internal/featureflags"
	"github.com/hexascope/hexascope/internal/provider/resilience"
)

// HealthChecker reports whether an external dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
	Name() string
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	service   *analysis.Service
	engine    HealthChecker
	registry  *resilience.Registry
	flags     *featureflags.Service
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, service *analysis.Service, engine HealthChecker, registry *resilience.Registry, flags *featureflags.Service) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		service:   service,
		engine:    engine,
		registry:  registry,
		flags:     flags,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. The service is
// ready when the analysis engine answers its health probe.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.engine != nil {
		if err := h.engine.Health(ctx); err != nil {
			health.Status = models.HealthStatusDegraded
			health.Details = map[string]interface{}{
				h.engine.Name(): err.Error(),
			}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - run slot and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
	}

	if h.service != nil {
		state := string(h.service.State())
		status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
			Name:   "analysis-slot",
			Status: models.HealthStatusOK,
			Detail: &state,
		})
	}

	if h.registry != nil {
		for _, health := range h.registry.GetAllHealth() {
			provider := models.ProviderStatus{
				Provider: health.Name,
				Status:   providerStatus(health),
			}
			if health.LastSuccessAt != nil {
				ts := models.Timestamp(*health.LastSuccessAt)
				provider.LastSuccessAt = &ts
			}
			if health.LastFailureAt != nil {
				ts := models.Timestamp(*health.LastFailureAt)
				provider.LastFailureAt = &ts
			}
			if health.LastError != "" {
				msg := health.LastError
				provider.Message = &msg
			}
			if provider.Status != models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, provider)
		}
	}

	if h.flags != nil {
		status.ActiveDegradationFlags = h.flags.ActiveDegradationFlags(r.Context())
		if len(status.ActiveDegradationFlags) > 0 && status.Status == models.HealthStatusOK {
			status.Status = models.HealthStatusDegraded
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func providerStatus(health *resilience.ProviderHealth) models.HealthStatus {
	switch {
	case health.IsUnhealthy():
		return models.HealthStatusFail
	case health.IsDegraded():
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}
