// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package domain defines the core entities shared across the recommendation
// pipeline: events, users, interactions, and the social graph. Types here
// carry no behavior beyond simple accessors; algorithms live in the
// packages that consume them.
package domain

import "time"

// AccountKind distinguishes natural persons from organizational accounts.
// Recommendation behavior is identical for both kinds.
type AccountKind string

const (
	AccountIndividual   AccountKind = "individual"
	AccountOrganization AccountKind = "organization"
)

// InteractionKind enumerates the recognized interaction types. Order here
// has no significance; weights are looked up by value, not position.
type InteractionKind string

const (
	InteractionGoing           InteractionKind = "going"
	InteractionInterested      InteractionKind = "interested"
	InteractionOrganized       InteractionKind = "organized"
	InteractionViewed          InteractionKind = "viewed"
	InteractionFriendGoing     InteractionKind = "friend_going"
	InteractionFollowedUser    InteractionKind = "followed_user"
	InteractionJoinedInterest  InteractionKind = "joined_interest"
)

// InteractionWeights is the base weight table used for user-vector
// synthesis. followed_user and joined_interest are supplemental kinds
// carried over from the wider activity log; followed_user never
// contributes to vector synthesis directly (weight 0 for that purpose)
// since it describes a social edge, not an event affinity.
var InteractionWeights = map[InteractionKind]float64{
	InteractionGoing:          1.5,
	InteractionInterested:     1.0,
	InteractionOrganized:      2.0,
	InteractionViewed:         0.3,
	InteractionFriendGoing:    0.5,
	InteractionFollowedUser:   0.0,
	InteractionJoinedInterest: 0.4,
}

// InteractionWeight returns the configured weight for a kind, or 0 if the
// kind is unrecognized. Unrecognized kinds do not error; they simply do
// not move the needle on synthesis.
func InteractionWeight(kind InteractionKind) float64 {
	return InteractionWeights[kind]
}

// Event is a candidate for recommendation once it is neither archived nor
// in the past.
type Event struct {
	EventID       int64
	Title         string
	Description   string
	Category      string
	Tags          []string
	Location      string
	StartTime     time.Time
	EndTime       time.Time
	MaxAttendees  *int
	OrganizerID   string
	OrgAffiliation string
	Archived      bool
	ArchivedAt    *time.Time
}

// IsCandidate reports whether the event may appear in recommendations at
// the given instant: not archived and starting strictly in the future.
func (e Event) IsCandidate(now time.Time) bool {
	return !e.Archived && e.StartTime.After(now)
}

// AutoArchiveAt is when the event auto-archives: one day after it ends.
func (e Event) AutoArchiveAt() time.Time {
	return e.EndTime.Add(24 * time.Hour)
}

// PurgeAt is when an archived event is permanently removed: five days
// after archiving. Returns the zero time if the event has not archived.
func (e Event) PurgeAt() time.Time {
	if e.ArchivedAt == nil {
		return time.Time{}
	}
	return e.ArchivedAt.Add(5 * 24 * time.Hour)
}

// User is a viewer, creator, or subject of social signals. Account kind
// does not alter recommendation behavior.
type User struct {
	UserID    string
	Username  string
	Bio       string
	Location  string
	Interests []string
	Kind      AccountKind
}

// Interaction records that a user engaged with an event in some way.
// Identity is (UserID, EventID, Kind); CreatedAt is required.
type Interaction struct {
	UserID    string
	EventID   int64
	Kind      InteractionKind
	CreatedAt time.Time
}

// SocialEdge is a directed follow relationship: Follower follows Followee.
// Self-loops are forbidden by construction at the connector boundary.
type SocialEdge struct {
	Follower  string
	Followee  string
	CreatedAt time.Time
}
