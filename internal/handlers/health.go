package handlers

import (
	"net/http"

	"service-orchestrator/internal/services"
)

// HealthHandler reports liveness and the registered services.
type HealthHandler struct {
	registry services.Registry
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(registry services.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Health serves GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	names := h.registry.Names()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"services": names,
	})
}
