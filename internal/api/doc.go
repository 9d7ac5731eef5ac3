// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package api provides the HTTP surface of the recommendation service.

It exposes four endpoints on a Chi router:

  - POST /recommend: serves the six-step online pipeline for one viewer,
    returning a ranked event feed.
  - POST /refresh: triggers an out-of-band model rebuild, returning 202
    immediately and rejecting overlapping calls with 409.
  - GET /health: reports whether a model has ever been published, whether a
    rebuild is in progress, and whether the embedded model-version bus is up.
  - GET /metrics: Prometheus scrape endpoint.

Every response is wrapped in a standardized envelope (APIResponse, with
APIError on failure and APIMeta carrying the request ID and duration).
POST /recommend validates its request body with go-playground/validator
through internal/validation before touching the recommendation engine;
POST /refresh decodes its optional body without validating it.

Usage Example:

	handler := api.NewHandler(engine, builder, natsServer)
	router := api.NewRouter(handler, api.NewChiMiddleware(nil))
	http.ListenAndServe(":8080", router.SetupChi())

See Also:

  - internal/recommend: the recommendation engine served by POST /recommend
  - internal/modelbuilder: the rebuild triggered by POST /refresh
  - internal/validation: request body validation
*/
package api
