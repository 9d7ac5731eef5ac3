// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/mfolsom1/eventreco/internal/apperrors"
	"github.com/mfolsom1/eventreco/internal/recommend"
)

// Recommend handles POST /recommend. It serves the six-step online
// recommendation pipeline for one viewer, returning their ranked event
// feed for the requested strategy.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body RecommendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if apiErr := validateRequest(&body); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	req := recommend.Request{
		ViewerID: body.ViewerID,
		K:        body.K,
		Strategy: body.Strategy,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	resp, err := h.engine.Recommend(ctx, req)
	if err != nil {
		if apperrors.Is(err, apperrors.InvalidArgument) {
			rw.BadRequest(err.Error())
			return
		}
		rw.InternalError("failed to generate recommendations")
		return
	}

	rw.Success(resp)
}
