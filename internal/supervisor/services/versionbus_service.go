// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package services

import (
	"context"
	"fmt"
	"time"
)

// VersionBusServer matches the lifecycle of *versionbus.EmbeddedServer. The
// server is already accepting connections by the time it's constructed, so
// this interface only covers graceful shutdown and a liveness check.
//
// Satisfied by both the NATS-backed EmbeddedServer (build tag nats) and its
// no-op stub (build tag !nats), so this wrapper needs no build tag of its
// own.
type VersionBusServer interface {
	Shutdown(ctx context.Context) error
	IsRunning() bool
}

// VersionBusService supervises the embedded model-version bus. Since the
// underlying server starts during construction rather than during Serve,
// this wrapper's job is simply to hold the service slot open for as long
// as the supervisor tree runs, and to shut the server down cleanly when
// the context is canceled.
type VersionBusService struct {
	server          VersionBusServer
	shutdownTimeout time.Duration
	name            string
}

// NewVersionBusService creates a new version bus service wrapper.
func NewVersionBusService(server VersionBusServer, shutdownTimeout time.Duration) *VersionBusService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &VersionBusService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "version-bus",
	}
}

// Serve implements suture.Service. It blocks until the context is canceled,
// then shuts the embedded server down with a bounded timeout.
func (s *VersionBusService) Serve(ctx context.Context) error {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("version bus shutdown failed: %w", err)
	}

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
func (s *VersionBusService) String() string {
	return s.name
}
