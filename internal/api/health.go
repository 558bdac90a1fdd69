package api

import (
	"net/http"
	"time"

	respond "github.com/mycelian/travelmap/internal/api/respond"
)

// GeocoderStatus is what the UI needs to gate duplicate submissions.
type GeocoderStatus interface {
	Busy() bool
	BreakerState() string
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	healthy    func() bool
	components func() map[string]bool
	geocoder   GeocoderStatus
	hub        *MapHub
}

// NewHealthHandler creates a new health handler. A nil healthy func reports unhealthy.
func NewHealthHandler(healthy func() bool, components func() map[string]bool, geocoder GeocoderStatus, hub *MapHub) *HealthHandler {
	if healthy == nil {
		healthy = func() bool { return false }
	}
	return &HealthHandler{healthy: healthy, components: components, geocoder: geocoder, hub: hub}
}

// CheckHealth handles GET /api/health
// Always returns 200; body reports healthy/unhealthy. 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.healthy() {
		status = "healthy"
	}
	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if h.components != nil {
		response["components"] = h.components()
	}
	if h.hub != nil {
		response["mapClients"] = h.hub.Clients()
	}
	respond.WriteJSON(w, http.StatusOK, response)
}

// GeocoderState handles GET /api/geocoder/status
func (h *HealthHandler) GeocoderState(w http.ResponseWriter, r *http.Request) {
	if h.geocoder == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "geocoder not configured")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"busy":    h.geocoder.Busy(),
		"breaker": h.geocoder.BreakerState(),
	})
}
