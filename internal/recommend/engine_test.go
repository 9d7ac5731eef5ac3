// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfolsom1/eventreco/internal/connector"
	"github.com/mfolsom1/eventreco/internal/embedding"
	"github.com/mfolsom1/eventreco/internal/modelbuilder"
	"github.com/mfolsom1/eventreco/internal/vectorstore"
)

func newTestEngine(t *testing.T) (*Engine, *connector.FixtureConnector, *vectorstore.Store) {
	t.Helper()
	conn, err := connector.NewFixtureConnector("")
	require.NoError(t, err)
	store, err := vectorstore.New(t.TempDir())
	require.NoError(t, err)
	artifacts, err := modelbuilder.NewArtifactWriter(t.TempDir())
	require.NoError(t, err)

	builder := &modelbuilder.Builder{
		Connector: conn,
		Embedder:  embedding.NewHashEmbedder(32),
		Store:     store,
		Artifacts: artifacts,
		Config:    modelbuilder.DefaultConfig(),
		Logger:    zerolog.Nop(),
	}
	_, err = builder.Build(context.Background())
	require.NoError(t, err)

	e := &Engine{
		Store:     store,
		Connector: conn,
		Embedder:  embedding.NewHashEmbedder(32),
		Breakers:  NewBreakers(5, time.Second),
		Config:    DefaultConfig(),
		Logger:    zerolog.Nop(),
	}
	return e, conn, store
}

func TestRecommendColdStartUsesStoredProfileVector(t *testing.T) {
	e, _, _ := newTestEngine(t)
	resp, err := e.Recommend(context.Background(), Request{ViewerID: "user_003", K: 5, Strategy: StrategyHybrid})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Items)
	for _, item := range resp.Items {
		assert.NotEqual(t, SourceFallback, item.Source)
	}
}

func TestRecommendExcludesOrganizedAndGoingEvents(t *testing.T) {
	e, _, _ := newTestEngine(t)

	resp, err := e.Recommend(context.Background(), Request{ViewerID: "user_organizer", K: 20, Strategy: StrategyHybrid})
	require.NoError(t, err)
	assert.Empty(t, resp.Items, "user_organizer organizes every synthetic event; none may appear")

	resp, err = e.Recommend(context.Background(), Request{ViewerID: "user_001", K: 20, Strategy: StrategyHybrid})
	require.NoError(t, err)
	for _, item := range resp.Items {
		assert.NotEqual(t, int64(1), item.EventID, "user_001 is already going to event 1")
	}
}

func TestRecommendFriendsOnlyDropsCandidatesWithNoFriends(t *testing.T) {
	e, _, _ := newTestEngine(t)
	resp, err := e.Recommend(context.Background(), Request{ViewerID: "user_001", K: 20, Strategy: StrategyFriendsOnly})
	require.NoError(t, err)
	for _, item := range resp.Items {
		assert.Greater(t, item.FriendCount, 0)
		assert.Equal(t, SourceSocial, item.Source)
	}
}

func TestRecommendFriendsBoostedLiftsFriendAttendedEvents(t *testing.T) {
	e, _, _ := newTestEngine(t)
	resp, err := e.Recommend(context.Background(), Request{ViewerID: "user_001", K: 20, Strategy: StrategyFriendsBoosted})
	require.NoError(t, err)

	var event2Found bool
	for _, item := range resp.Items {
		if item.EventID == 2 {
			event2Found = true
			assert.Equal(t, 1, item.FriendCount) // user_002 is going, user_001 follows user_002
		}
	}
	require.True(t, event2Found, "event 2 (followee user_002 going) should be a candidate")
}

func TestRecommendFallsBackOnVectorStoreCorruption(t *testing.T) {
	e, _, store := newTestEngine(t)

	corruptMatrixFile(t, store, vectorstore.EventsCollection)

	resp, err := e.Recommend(context.Background(), Request{ViewerID: "user_001", K: 5, Strategy: StrategyHybrid})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Items)
	for _, item := range resp.Items {
		assert.Equal(t, SourceFallback, item.Source)
		assert.Equal(t, float64(0), item.Score)
	}
}

// corruptMatrixFile follows the published symlink for collection and
// truncates matrix.bin so its checksum no longer matches the manifest,
// forcing every subsequent Read to fail with IntegrityError.
func corruptMatrixFile(t *testing.T, store *vectorstore.Store, collection string) {
	t.Helper()
	link := filepath.Join(store.Root(), collection)
	target, err := os.Readlink(link)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(target, "matrix.bin"), []byte{0x00}, 0o644))
}

func TestRecommendDefaultsKAndStrategy(t *testing.T) {
	e, _, _ := newTestEngine(t)
	resp, err := e.Recommend(context.Background(), Request{ViewerID: "user_002"})
	require.NoError(t, err)
	assert.Equal(t, StrategyHybrid, resp.Strategy)
	assert.LessOrEqual(t, len(resp.Items), 10)
}

func TestRecommendRejectsOutOfRangeK(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, err := e.Recommend(context.Background(), Request{ViewerID: "user_001", K: 51})
	require.Error(t, err)
}

func TestRecommendRejectsUnknownStrategy(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, err := e.Recommend(context.Background(), Request{ViewerID: "user_001", K: 5, Strategy: "nonexistent"})
	require.Error(t, err)
}

func TestRecommendReflectsLatestModelVersionAfterRebuild(t *testing.T) {
	e, conn, store := newTestEngine(t)
	first, err := e.Recommend(context.Background(), Request{ViewerID: "user_001", K: 5, Strategy: StrategyHybrid})
	require.NoError(t, err)

	artifacts, err := modelbuilder.NewArtifactWriter(t.TempDir())
	require.NoError(t, err)
	builder := &modelbuilder.Builder{
		Connector: conn,
		Embedder:  embedding.NewHashEmbedder(32),
		Store:     store,
		Artifacts: artifacts,
		Config:    modelbuilder.DefaultConfig(),
		Logger:    zerolog.Nop(),
	}
	time.Sleep(2 * time.Millisecond) // ensure a distinct generation timestamp
	_, err = builder.Build(context.Background())
	require.NoError(t, err)

	second, err := e.Recommend(context.Background(), Request{ViewerID: "user_001", K: 5, Strategy: StrategyHybrid})
	require.NoError(t, err)
	assert.NotEqual(t, first.ModelVersion, second.ModelVersion)
}

