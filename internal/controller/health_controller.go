package controller

import (
	"net/http"

	"github.com/cassiomorais/paygate/internal/service"
)

// HealthController handles liveness and readiness checks.
type HealthController struct {
	gateway *service.Gateway
}

// NewHealthController creates a new HealthController.
func NewHealthController(gateway *service.Gateway) *HealthController {
	return &HealthController{gateway: gateway}
}

// Health handles GET /health: overall gateway health. Degraded when
// no processor is enabled.
func (h *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	summary := h.gateway.Health()
	status := "ok"
	code := http.StatusOK
	if summary.Enabled == 0 {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":     status,
		"processors": summary.Enabled,
		"registered": summary.Total,
	})
}

// Liveness handles GET /health/live
func (h *HealthController) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready
func (h *HealthController) Readiness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
