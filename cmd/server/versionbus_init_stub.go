// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !nats

package main

import (
	"github.com/rs/zerolog"

	"github.com/mfolsom1/eventreco/internal/config"
	"github.com/mfolsom1/eventreco/internal/versionbus"
)

// VersionBusComponents mirrors the nats-tagged build's shape so callers
// compile unconditionally; the server field is a stub that was never
// started.
type VersionBusComponents struct {
	Server     *versionbus.EmbeddedServer
	Publisher  *versionbus.Publisher
	Subscriber *versionbus.Subscriber
}

// InitVersionBus warns and returns nil when built without the nats tag.
func InitVersionBus(cfg *config.Config, logger zerolog.Logger) (*VersionBusComponents, error) {
	if cfg.NATS.Enabled {
		logger.Warn().Msg("NATS_ENABLED is true but this binary was built without -tags=nats; model-version bus disabled")
	}
	return nil, nil
}
