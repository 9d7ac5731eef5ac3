// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api wires the HTTP surface for the recommendation service: serving
// recommendations, triggering out-of-band model rebuilds, and reporting
// health and Prometheus metrics.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the Chi router and its middleware stack.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router serving the given handler's endpoints with the
// given middleware configuration. A nil mw falls back to
// DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures and returns the HTTP handler for the service.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/health", func(r chi.Router) {
		r.Get("/", router.handler.Health)
	})

	r.Route("/recommend", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Post("/", router.handler.Recommend)
	})

	r.Route("/refresh", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Post("/", router.handler.Refresh)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
