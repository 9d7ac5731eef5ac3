// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !nats

package versionbus

import (
	"context"
	"fmt"
)

// Subject is the NATS subject model version announcements are published on.
const Subject = "eventreco.model.version"

// PublisherConfig configures the connection to NATS.
type PublisherConfig struct {
	URL string
}

// DefaultPublisherConfig returns sane connection defaults.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{URL: url}
}

// Publisher is a stub when NATS dependencies are not available.
// Build with -tags=nats to enable model-version announcements.
type Publisher struct{}

// NewPublisher returns an error when NATS dependencies are not available.
func NewPublisher(cfg PublisherConfig, logger interface{}) (*Publisher, error) {
	return nil, fmt.Errorf("versionbus publisher not available: build with -tags=nats")
}

// PublishModelVersion is a stub that returns an error.
func (p *Publisher) PublishModelVersion(_ context.Context, _ string) error {
	return fmt.Errorf("versionbus publisher not available: build with -tags=nats")
}

// Close is a no-op stub.
func (p *Publisher) Close() error {
	return nil
}
