// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"sync/atomic"
	"time"

	"github.com/mfolsom1/eventreco/internal/modelbuilder"
	"github.com/mfolsom1/eventreco/internal/recommend"
	"github.com/mfolsom1/eventreco/internal/versionbus"
)

// Handler holds the dependencies shared by every endpoint.
type Handler struct {
	engine    *recommend.Engine
	builder   *modelbuilder.Builder
	nats      *versionbus.EmbeddedServer
	startTime time.Time

	// building is set to true for the duration of a refresh run, guarding
	// against overlapping POST /refresh calls.
	building atomic.Bool
}

// NewHandler creates a Handler with its serving and rebuild dependencies.
// nats may be nil when the service is running without the model-version
// announcement bus.
func NewHandler(engine *recommend.Engine, builder *modelbuilder.Builder, nats *versionbus.EmbeddedServer) *Handler {
	return &Handler{
		engine:    engine,
		builder:   builder,
		nats:      nats,
		startTime: time.Now(),
	}
}
