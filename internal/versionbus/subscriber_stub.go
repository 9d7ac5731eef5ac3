// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !nats

package versionbus

import (
	"context"
	"fmt"
)

// SubscriberConfig configures the connection to NATS.
type SubscriberConfig struct {
	URL string
}

// Subscriber is a stub when NATS dependencies are not available.
// Build with -tags=nats to enable model-version announcements.
type Subscriber struct{}

// NewSubscriber returns an error when NATS dependencies are not available.
func NewSubscriber(cfg SubscriberConfig, logger interface{}) (*Subscriber, error) {
	return nil, fmt.Errorf("versionbus subscriber not available: build with -tags=nats")
}

// Listen is a stub that returns an error.
func (s *Subscriber) Listen(_ context.Context, _ func(version string)) error {
	return fmt.Errorf("versionbus subscriber not available: build with -tags=nats")
}

// Close is a no-op stub.
func (s *Subscriber) Close() error {
	return nil
}
