// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build nats

package main

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/mfolsom1/eventreco/internal/config"
	"github.com/mfolsom1/eventreco/internal/versionbus"
)

// VersionBusComponents holds the model-version announcement bus's pieces:
// an optional embedded broker, the publisher the model builder notifies on
// every successful build, and an optional subscriber for cache
// invalidation on a remote builder's announcements.
type VersionBusComponents struct {
	Server     *versionbus.EmbeddedServer
	Publisher  *versionbus.Publisher
	Subscriber *versionbus.Subscriber
}

// InitVersionBus starts the embedded broker (if configured) and the
// publisher/subscriber pair, returning nil, nil when the bus is disabled.
func InitVersionBus(cfg *config.Config, logger zerolog.Logger) (*VersionBusComponents, error) {
	if !cfg.NATS.Enabled {
		logger.Info().Msg("model-version bus disabled (NATS_ENABLED=false)")
		return nil, nil
	}

	watermillLogger := watermill.NewStdLogger(false, false)
	components := &VersionBusComponents{}
	clientURL := cfg.NATS.URL

	if cfg.NATS.EmbeddedServer {
		server, err := versionbus.NewEmbeddedServer(versionbus.EmbeddedServerConfig{
			Host:     cfg.NATS.EmbeddedHost,
			Port:     cfg.NATS.EmbeddedPort,
			StoreDir: cfg.NATS.StoreDir,
		})
		if err != nil {
			return nil, fmt.Errorf("start embedded version bus: %w", err)
		}
		components.Server = server
		clientURL = server.ClientURL()
		logger.Info().Str("url", clientURL).Msg("embedded model-version bus started")
	}

	publisher, err := versionbus.NewPublisher(versionbus.DefaultPublisherConfig(clientURL), watermillLogger)
	if err != nil {
		if components.Server != nil {
			_ = components.Server.Shutdown(context.Background())
		}
		return nil, fmt.Errorf("create version bus publisher: %w", err)
	}
	components.Publisher = publisher

	subscriber, err := versionbus.NewSubscriber(versionbus.SubscriberConfig{URL: clientURL}, watermillLogger)
	if err != nil {
		_ = publisher.Close()
		if components.Server != nil {
			_ = components.Server.Shutdown(context.Background())
		}
		return nil, fmt.Errorf("create version bus subscriber: %w", err)
	}
	components.Subscriber = subscriber

	return components, nil
}
