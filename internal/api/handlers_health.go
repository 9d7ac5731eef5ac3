// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/mfolsom1/eventreco/internal/vectorstore"
)

// healthStatus is the payload returned by GET /health.
type healthStatus struct {
	Status       string    `json:"status"`
	Uptime       float64   `json:"uptime_seconds"`
	ModelTrained bool      `json:"model_trained"`
	ModelVersion time.Time `json:"model_version,omitempty"`
	Building     bool      `json:"building"`
	NATSRunning  bool      `json:"nats_running"`
}

// Health handles GET /health. It reports whether the events collection has
// ever been published (the engine falls back to popularity ordering until
// then), whether a rebuild is in progress, and whether the embedded model
// version bus is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := healthStatus{
		Status:   "healthy",
		Uptime:   time.Since(h.startTime).Seconds(),
		Building: h.building.Load(),
	}

	if h.engine != nil && h.engine.Store != nil {
		if manifest, err := h.engine.Store.Stat(vectorstore.EventsCollection); err == nil {
			status.ModelTrained = true
			status.ModelVersion = manifest.CreatedAt
		}
	}

	if h.nats != nil {
		status.NATSRunning = h.nats.IsRunning()
	}

	if !status.ModelTrained {
		status.Status = "degraded"
	}

	rw.Success(status)
}
