// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package connector provides the read-only view over the domain schema
// that the Model Builder and Recommendation Engine depend on: events,
// users, interactions, and the social graph. The HTTP surface, the
// database schema, and authentication are external collaborators; this
// package specifies only the contract the core consumes.
//
// Two implementations are provided: a DuckDB-backed Connector for
// production (see duckdb.go) and a JSON-fixture-backed Connector for
// deterministic tests (see fixture.go), following the original
// prototype's fixture-driven MockDatabaseConnector.
package connector

import (
	"context"
	"time"

	"github.com/mfolsom1/eventreco/internal/domain"
)

// FriendStatus captures a followee's RSVP status on a specific event, used
// for social boost computation.
type FriendStatus struct {
	UserID string
	Status domain.InteractionKind // InteractionGoing or InteractionInterested
}

// Connector is the read-only interface every core component depends on.
// All methods are idempotent and must be safe for concurrent use; a single
// Connector instance is shared across concurrently served requests.
type Connector interface {
	// FutureEvents returns non-archived events with start_time in the
	// future, relative to now.
	FutureEvents(ctx context.Context, now time.Time) ([]domain.Event, error)

	// ActiveUsers returns all users known to the system.
	ActiveUsers(ctx context.Context) ([]domain.User, error)

	// User returns a single user by id, or apperrors.NotFound if absent.
	User(ctx context.Context, userID string) (domain.User, error)

	// UserInteractions returns a user's interactions with created_at
	// within [since, now].
	UserInteractions(ctx context.Context, userID string, since, now time.Time) ([]domain.Interaction, error)

	// Followees returns the set of user ids a user follows.
	Followees(ctx context.Context, userID string) ([]string, error)

	// CategoryDictionary returns the known category names.
	CategoryDictionary(ctx context.Context) ([]string, error)

	// TagDictionary returns the known tag vocabulary.
	TagDictionary(ctx context.Context) ([]string, error)

	// FriendStatuses returns, for a single event, the subset of the
	// viewer's followees who are going or interested.
	FriendStatuses(ctx context.Context, viewerID string, eventID int64) ([]FriendStatus, error)

	// Event returns a single event by id, or apperrors.NotFound if absent.
	Event(ctx context.Context, eventID int64) (domain.Event, error)
}
