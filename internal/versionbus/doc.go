// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package versionbus notifies live server processes when the Model Builder
// publishes a new model version, so the serving engine's response cache can
// be invalidated without waiting for its entries to expire on their own. It
// is a thin Watermill wrapper around a single NATS subject; build with
// -tags=nats to enable it, otherwise the stub keeps callers compiling.
package versionbus
