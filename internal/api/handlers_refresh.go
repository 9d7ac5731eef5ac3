// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/mfolsom1/eventreco/internal/logging"
)

// Refresh handles POST /refresh. It triggers an out-of-band model build,
// returning 202 immediately; the caller polls GET /health for the new
// model version once the build publishes. Overlapping calls are rejected
// with 409 rather than queued.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body RefreshRequestBody
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			rw.BadRequest("invalid JSON body")
			return
		}
	}

	if h.builder == nil {
		rw.ServiceUnavailable("model builder is not configured")
		return
	}

	if !h.building.CompareAndSwap(false, true) {
		rw.Conflict("a build is already in progress")
		return
	}

	go func() {
		defer h.building.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		result, err := h.builder.Build(ctx)
		if err != nil {
			logging.Error().Err(err).Msg("model build failed")
			return
		}
		logging.Info().
			Str("version", result.Version).
			Int("event_count", result.EventCount).
			Int("user_count", result.UserCount).
			Msg("model build completed")
	}()

	rw.Accepted(map[string]string{"message": "build started"})
}
