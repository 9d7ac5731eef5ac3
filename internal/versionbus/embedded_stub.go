// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !nats

package versionbus

import (
	"context"
	"fmt"
)

// EmbeddedServerConfig configures a self-contained NATS server.
type EmbeddedServerConfig struct {
	Host     string
	Port     int
	StoreDir string
}

// EmbeddedServer is a stub when NATS dependencies are not available.
// Build with -tags=nats to enable the embedded NATS server.
type EmbeddedServer struct{}

// NewEmbeddedServer returns an error when NATS dependencies are not available.
func NewEmbeddedServer(cfg EmbeddedServerConfig) (*EmbeddedServer, error) {
	return nil, fmt.Errorf("embedded NATS server not available: build with -tags=nats")
}

// ClientURL returns the empty string for the stub.
func (s *EmbeddedServer) ClientURL() string { return "" }

// Shutdown is a no-op stub.
func (s *EmbeddedServer) Shutdown(_ context.Context) error { return nil }

// IsRunning always reports false for the stub.
func (s *EmbeddedServer) IsRunning() bool { return false }
