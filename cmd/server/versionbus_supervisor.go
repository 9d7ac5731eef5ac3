// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build nats

package main

import (
	"time"

	"github.com/mfolsom1/eventreco/internal/supervisor"
	"github.com/mfolsom1/eventreco/internal/supervisor/services"
)

// AddVersionBusToSupervisor registers the embedded model-version bus with
// the messaging layer, if one was started. A nil components value (the bus
// disabled) is a no-op.
func AddVersionBusToSupervisor(tree *supervisor.SupervisorTree, components *VersionBusComponents) {
	if components == nil || components.Server == nil {
		return
	}
	tree.AddMessagingService(services.NewVersionBusService(components.Server, 10*time.Second))
}
