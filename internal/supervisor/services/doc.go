// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package services provides suture.Service wrappers for the recommendation
service's long-running components.

This package adapts existing application components to the suture v4
supervision model, translating various lifecycle patterns (Build-on-schedule,
Shutdown-only, ListenAndServe) into suture's context-aware Serve pattern.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

The wrappers handle:
  - Lifecycle translation to the Serve pattern
  - Graceful shutdown via context cancellation
  - Error propagation for supervisor restart decisions
  - Service identification via fmt.Stringer

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

Retrain Service (RetrainService):
  - Wraps the model builder's Build cycle
  - Rebuilds on a fixed interval, and early when connector counts drift
  - Tracks the last build's event and user counts for drift comparison

Version Bus (VersionBusService):
  - Holds the embedded model-version bus's service slot open
  - Shuts the server down cleanly on context cancellation

# Usage Example

Creating and registering services:

	import (
	    "net/http"
	    "time"

	    "github.com/mfolsom1/eventreco/internal/supervisor"
	    "github.com/mfolsom1/eventreco/internal/supervisor/services"
	)

	func setupSupervisor(server *http.Server, builder *modelbuilder.Builder, conn connector.Connector) {
	    tree, _ := supervisor.NewSupervisorTree(logger, config)

	    httpSvc := services.NewHTTPServerService(server, 30*time.Second)
	    tree.AddAPIService(httpSvc)

	    retrainSvc := services.NewRetrainService(builder, conn, services.RetrainServiceConfig{
	        TrainOnStartup: true,
	        Interval:       cfg.Builder.RetrainInterval,
	        DeltaFraction:  cfg.Builder.RetrainDeltaFraction,
	    }, zlog)
	    tree.AddDataService(retrainSvc)

	    tree.Serve(ctx)
	}

# Lifecycle Patterns

The package handles two common lifecycle patterns:

Shutdown-only Pattern, for components that start during construction:

	type Shutdowner interface {
	    Shutdown(ctx context.Context) error
	}

	// Wrapped as:
	func (s *Service) Serve(ctx context.Context) error {
	    <-ctx.Done()
	    return s.component.Shutdown(shutdownCtx)
	}

ListenAndServe Pattern:

	type Listener interface {
	    ListenAndServe() error
	    Shutdown(ctx context.Context) error
	}

	// Wrapped as:
	func (s *Service) Serve(ctx context.Context) error {
	    go s.server.ListenAndServe()
	    <-ctx.Done()
	    return s.server.Shutdown(shutdownCtx)
	}

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

# Service Identification

All services implement fmt.Stringer for logging:

	func (s *HTTPServerService) String() string {
	    return "http-server"
	}

Suture uses this for log messages:

	INFO http-server: starting
	INFO http-server: stopped
	ERROR http-server: restarting after failure

# Thread Safety

All service wrappers are safe for concurrent use:
  - State is protected by mutexes or atomics where needed
  - Context cancellation is handled atomically
  - Multiple Serve calls are not supported (undefined behavior)

# See Also

  - internal/supervisor: SupervisorTree that manages these services
  - github.com/thejerf/suture/v4: Underlying supervision library
  - internal/modelbuilder: the rebuild cycle RetrainService schedules
  - internal/versionbus: the embedded server VersionBusService wraps
*/
package services
