package handlers

import (
	"net/http"

	"github.com/ireporter/ireporter-api/api"
)

// Metrics exposes the in-process request metrics, admin only
type Metrics struct {
	Registry *api.MetricsRegistry
}

// GetMetricsHandler returns per-route request metrics, busiest routes first
func (h Metrics) GetMetricsHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"routes": h.Registry.Snapshot(),
	})
}
