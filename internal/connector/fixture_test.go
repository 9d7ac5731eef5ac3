// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package connector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfolsom1/eventreco/internal/domain"
)

func writeFixture(t *testing.T, doc fixtureDocument) string {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestFixtureConnectorLoadsFromFile(t *testing.T) {
	now := time.Now().UTC()
	doc := fixtureDocument{
		Events: []fixtureEvent{
			{EventID: 1, Title: "Concert", Category: "music", Tags: []string{"live"}, StartTime: now.Add(48 * time.Hour), EndTime: now.Add(50 * time.Hour), OrganizerID: "org1"},
		},
		Users: []fixtureUser{
			{UserID: "u1", Username: "alice", Interests: []string{"music"}, Kind: "individual"},
		},
	}
	path := writeFixture(t, doc)

	c, err := NewFixtureConnector(path)
	require.NoError(t, err)

	events, err := c.FutureEvents(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Concert", events[0].Title)

	user, err := c.User(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestFixtureConnectorSyntheticFallback(t *testing.T) {
	c, err := NewFixtureConnector("")
	require.NoError(t, err)

	events, err := c.FutureEvents(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	users, err := c.ActiveUsers(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, users)
}

func TestFixtureConnectorFriendStatuses(t *testing.T) {
	now := time.Now().UTC()
	doc := fixtureDocument{
		Events: []fixtureEvent{
			{EventID: 42, Title: "Party", StartTime: now.Add(24 * time.Hour), EndTime: now.Add(26 * time.Hour), OrganizerID: "org1"},
		},
		Users: []fixtureUser{
			{UserID: "viewer", Kind: "individual"},
			{UserID: "friend1", Kind: "individual"},
		},
		SocialEdges: []fixtureSocialEdge{
			{Follower: "viewer", Followee: "friend1", CreatedAt: now.Add(-100 * time.Hour)},
		},
		Interactions: []fixtureInteraction{
			{UserID: "friend1", EventID: 42, Kind: string(domain.InteractionGoing), CreatedAt: now},
		},
	}
	path := writeFixture(t, doc)
	c, err := NewFixtureConnector(path)
	require.NoError(t, err)

	statuses, err := c.FriendStatuses(context.Background(), "viewer", 42)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "friend1", statuses[0].UserID)
}

func TestFixtureConnectorRejectsSelfLoop(t *testing.T) {
	doc := fixtureDocument{
		Users: []fixtureUser{{UserID: "u1", Kind: "individual"}},
		SocialEdges: []fixtureSocialEdge{
			{Follower: "u1", Followee: "u1", CreatedAt: time.Now()},
		},
	}
	path := writeFixture(t, doc)
	c, err := NewFixtureConnector(path)
	require.NoError(t, err)

	followees, err := c.Followees(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, followees)
}
