// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !nats

package main

import (
	"github.com/mfolsom1/eventreco/internal/supervisor"
)

// AddVersionBusToSupervisor is a no-op in builds without the nats tag.
func AddVersionBusToSupervisor(tree *supervisor.SupervisorTree, components *VersionBusComponents) {
}
