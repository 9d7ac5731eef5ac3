// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package connector

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/mfolsom1/eventreco/internal/apperrors"
	"github.com/mfolsom1/eventreco/internal/domain"
)

// FixtureEnvVar overrides the fixture path.
const FixtureEnvVar = "EVENTRECO_TEST_FIXTURE"

// fixtureDocument mirrors the production schema field-for-field, one JSON
// object per top-level collection.
type fixtureDocument struct {
	Events       []fixtureEvent       `json:"events"`
	Users        []fixtureUser        `json:"users"`
	Interactions []fixtureInteraction `json:"interactions"`
	SocialEdges  []fixtureSocialEdge  `json:"social_edges"`
}

type fixtureEvent struct {
	EventID        int64      `json:"event_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Tags           []string   `json:"tags"`
	Location       string     `json:"location"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	MaxAttendees   *int       `json:"max_attendees,omitempty"`
	OrganizerID    string     `json:"organizer_id"`
	OrgAffiliation string     `json:"org_affiliation,omitempty"`
	Archived       bool       `json:"archived"`
	ArchivedAt     *time.Time `json:"archived_at,omitempty"`
}

type fixtureUser struct {
	UserID    string   `json:"user_id"`
	Username  string   `json:"username"`
	Bio       string   `json:"bio"`
	Location  string   `json:"location"`
	Interests []string `json:"interests"`
	Kind      string   `json:"kind"`
}

type fixtureInteraction struct {
	UserID    string    `json:"user_id"`
	EventID   int64     `json:"event_id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

type fixtureSocialEdge struct {
	Follower  string    `json:"follower"`
	Followee  string    `json:"followee"`
	CreatedAt time.Time `json:"created_at"`
}

// FixtureConnector implements Connector over an in-memory document loaded
// from a JSON fixture file, or a small synthetic generator when no fixture
// is configured. It is used by every test in this repository and by
// "test mode" deployments.
type FixtureConnector struct {
	events       []domain.Event
	users        map[string]domain.User
	interactions []domain.Interaction
	edges        []domain.SocialEdge
}

// NewFixtureConnector loads path if non-empty, otherwise checks
// FixtureEnvVar, otherwise falls back to a small synthetic dataset.
func NewFixtureConnector(path string) (*FixtureConnector, error) {
	if path == "" {
		path = os.Getenv(FixtureEnvVar)
	}
	if path == "" {
		return newSyntheticFixtureConnector(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, fmt.Sprintf("read fixture %q", path), err)
	}
	var doc fixtureDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, fmt.Sprintf("parse fixture %q", path), err)
	}
	return fromDocument(doc), nil
}

func fromDocument(doc fixtureDocument) *FixtureConnector {
	c := &FixtureConnector{users: make(map[string]domain.User, len(doc.Users))}

	for _, e := range doc.Events {
		c.events = append(c.events, domain.Event{
			EventID:        e.EventID,
			Title:          e.Title,
			Description:    e.Description,
			Category:       e.Category,
			Tags:           e.Tags,
			Location:       e.Location,
			StartTime:      e.StartTime,
			EndTime:        e.EndTime,
			MaxAttendees:   e.MaxAttendees,
			OrganizerID:    e.OrganizerID,
			OrgAffiliation: e.OrgAffiliation,
			Archived:       e.Archived,
			ArchivedAt:     e.ArchivedAt,
		})
	}
	for _, u := range doc.Users {
		kind := domain.AccountIndividual
		if u.Kind == string(domain.AccountOrganization) {
			kind = domain.AccountOrganization
		}
		c.users[u.UserID] = domain.User{
			UserID:    u.UserID,
			Username:  u.Username,
			Bio:       u.Bio,
			Location:  u.Location,
			Interests: u.Interests,
			Kind:      kind,
		}
	}
	for _, i := range doc.Interactions {
		c.interactions = append(c.interactions, domain.Interaction{
			UserID:    i.UserID,
			EventID:   i.EventID,
			Kind:      domain.InteractionKind(i.Kind),
			CreatedAt: i.CreatedAt,
		})
	}
	for _, s := range doc.SocialEdges {
		if s.Follower == s.Followee {
			continue // self-loops forbidden
		}
		c.edges = append(c.edges, domain.SocialEdge{
			Follower:  s.Follower,
			Followee:  s.Followee,
			CreatedAt: s.CreatedAt,
		})
	}
	return c
}

// newSyntheticFixtureConnector builds a small deterministic dataset (12
// events, 4 users) so unit tests never require an external file.
func newSyntheticFixtureConnector() *FixtureConnector {
	now := time.Now().UTC()
	c := &FixtureConnector{users: make(map[string]domain.User)}

	categories := []string{"music", "food", "sports", "tech"}
	for i := 1; i <= 12; i++ {
		cat := categories[i%len(categories)]
		c.events = append(c.events, domain.Event{
			EventID:     int64(i),
			Title:       fmt.Sprintf("Synthetic Event %d", i),
			Description: fmt.Sprintf("A %s gathering for synthetic testing", cat),
			Category:    cat,
			Tags:        []string{cat, "synthetic"},
			Location:    "Test City",
			StartTime:   now.Add(time.Duration(i) * 24 * time.Hour),
			EndTime:     now.Add(time.Duration(i)*24*time.Hour + 2*time.Hour),
			OrganizerID: "user_organizer",
		})
	}

	users := []domain.User{
		{UserID: "user_001", Username: "alice", Bio: "loves live music", Location: "Test City", Interests: []string{"music", "food"}, Kind: domain.AccountIndividual},
		{UserID: "user_002", Username: "bob", Bio: "tech enthusiast", Location: "Test City", Interests: []string{"tech"}, Kind: domain.AccountIndividual},
		{UserID: "user_003", Username: "carol", Bio: "sports fan", Location: "Test City", Interests: []string{"sports"}, Kind: domain.AccountIndividual},
		{UserID: "user_organizer", Username: "acme-events", Bio: "we run events", Location: "Test City", Interests: []string{"music", "tech"}, Kind: domain.AccountOrganization},
	}
	for _, u := range users {
		c.users[u.UserID] = u
	}

	c.edges = []domain.SocialEdge{
		{Follower: "user_001", Followee: "user_002", CreatedAt: now.Add(-30 * 24 * time.Hour)},
		{Follower: "user_001", Followee: "user_003", CreatedAt: now.Add(-30 * 24 * time.Hour)},
	}

	c.interactions = []domain.Interaction{
		{UserID: "user_001", EventID: 1, Kind: domain.InteractionGoing, CreatedAt: now.Add(-2 * 24 * time.Hour)},
		{UserID: "user_002", EventID: 2, Kind: domain.InteractionGoing, CreatedAt: now.Add(-1 * 24 * time.Hour)},
	}

	return c
}

func (c *FixtureConnector) FutureEvents(_ context.Context, now time.Time) ([]domain.Event, error) {
	out := make([]domain.Event, 0, len(c.events))
	for _, e := range c.events {
		if e.IsCandidate(now) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out, nil
}

func (c *FixtureConnector) Event(_ context.Context, eventID int64) (domain.Event, error) {
	for _, e := range c.events {
		if e.EventID == eventID {
			return e, nil
		}
	}
	return domain.Event{}, apperrors.New(apperrors.NotFound, fmt.Sprintf("event %d not found", eventID))
}

func (c *FixtureConnector) ActiveUsers(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(c.users))
	for _, u := range c.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (c *FixtureConnector) User(_ context.Context, userID string) (domain.User, error) {
	u, ok := c.users[userID]
	if !ok {
		return domain.User{}, apperrors.New(apperrors.NotFound, fmt.Sprintf("user %q not found", userID))
	}
	return u, nil
}

func (c *FixtureConnector) UserInteractions(_ context.Context, userID string, since, now time.Time) ([]domain.Interaction, error) {
	out := make([]domain.Interaction, 0)
	for _, i := range c.interactions {
		if i.UserID != userID {
			continue
		}
		if i.CreatedAt.Before(since) || i.CreatedAt.After(now) {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

func (c *FixtureConnector) Followees(_ context.Context, userID string) ([]string, error) {
	out := make([]string, 0)
	for _, e := range c.edges {
		if e.Follower == userID {
			out = append(out, e.Followee)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (c *FixtureConnector) CategoryDictionary(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, e := range c.events {
		if e.Category != "" {
			seen[e.Category] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

func (c *FixtureConnector) TagDictionary(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, e := range c.events {
		for _, t := range e.Tags {
			seen[t] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

func (c *FixtureConnector) FriendStatuses(ctx context.Context, viewerID string, eventID int64) ([]FriendStatus, error) {
	followees, err := c.Followees(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	followeeSet := make(map[string]struct{}, len(followees))
	for _, f := range followees {
		followeeSet[f] = struct{}{}
	}

	out := make([]FriendStatus, 0)
	for _, i := range c.interactions {
		if i.EventID != eventID {
			continue
		}
		if _, ok := followeeSet[i.UserID]; !ok {
			continue
		}
		if i.Kind == domain.InteractionGoing || i.Kind == domain.InteractionInterested {
			out = append(out, FriendStatus{UserID: i.UserID, Status: i.Kind})
		}
	}
	return out, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
