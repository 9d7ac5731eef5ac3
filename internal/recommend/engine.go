// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/mfolsom1/eventreco/internal/apperrors"
	"github.com/mfolsom1/eventreco/internal/connector"
	"github.com/mfolsom1/eventreco/internal/domain"
	"github.com/mfolsom1/eventreco/internal/embedding"
	"github.com/mfolsom1/eventreco/internal/modelbuilder"
	"github.com/mfolsom1/eventreco/internal/textproc"
	"github.com/mfolsom1/eventreco/internal/vectorstore"
)

// Cache is an optional response cache keyed by the caller. The engine
// never depends on the concrete cache implementation, only this
// byte-oriented contract, so a badger-backed cache package can implement
// it without importing this package (which would create a cycle since
// this package's Response type would otherwise need to be visible there).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Engine is the online request handler. It holds no mutable state beyond
// its collaborators; every Recommend call acquires its own vector store
// snapshot, giving it the request's model-version snapshot isolation for
// free from the store's generation-symlink discipline.
type Engine struct {
	Store     *vectorstore.Store
	Connector connector.Connector
	Embedder  embedding.Embedder
	Breakers  *Breakers
	Cache     Cache
	Config    Config
	Logger    zerolog.Logger
	Clock     func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now().UTC()
}

// Recommend runs the full pipeline for one request: Init -> Synthesize ->
// Retrieve -> Boost -> Rank -> Emit. Any step may divert to Fallback,
// which emits a popularity-ordered list and terminates; the engine never
// returns an empty success.
func (e *Engine) Recommend(ctx context.Context, req Request) (Response, error) {
	now := e.now()

	if req.K == 0 {
		req.K = 10
	}
	if req.Strategy == "" {
		req.Strategy = StrategyHybrid
	}
	if req.K < 1 || req.K > 50 {
		return Response{}, apperrors.New(apperrors.InvalidArgument, fmt.Sprintf("k=%d out of range [1,50]", req.K))
	}
	weights, err := ResolveStrategy(req.Strategy)
	if err != nil {
		return Response{}, err
	}

	eventsSnap, err := guarded(e.Breakers.VectorStore, ctx, e.Config.VectorStoreTimeout,
		func(context.Context) (*vectorstore.Snapshot, error) { return e.Store.Read(vectorstore.EventsCollection) })
	if err != nil {
		return e.fallback(ctx, req, now)
	}

	if e.Cache != nil {
		key := cacheKey(req.ViewerID, eventsSnap.Manifest.CreatedAt, req.K, req.Strategy)
		if raw, ok, cerr := e.Cache.Get(ctx, key); cerr == nil && ok {
			var cached Response
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		}
	}

	usersSnap, err := guarded(e.Breakers.VectorStore, ctx, e.Config.VectorStoreTimeout,
		func(context.Context) (*vectorstore.Snapshot, error) { return e.Store.Read(vectorstore.UsersCollection) })
	if err != nil {
		return e.fallback(ctx, req, now)
	}

	viewerVec, ok, err := e.synthesizeUserVector(ctx, req.ViewerID, eventsSnap, usersSnap, now)
	if err != nil {
		if apperrors.Is(err, apperrors.NotFound) || apperrors.Is(err, apperrors.Degraded) {
			return e.fallback(ctx, req, now)
		}
		return Response{}, err
	}
	if !ok {
		return e.fallback(ctx, req, now)
	}

	exclude, err := e.exclusionEventIDs(ctx, req.ViewerID, now)
	if err != nil {
		return e.fallback(ctx, req, now)
	}

	eventIndex := make(map[string]int, len(eventsSnap.IDs))
	for i, id := range eventsSnap.IDs {
		eventIndex[id] = i
	}

	filter := func(id string, _ json.RawMessage) bool {
		idx, ok := eventIndex[id]
		if !ok {
			return false
		}
		meta, err := decodeEventMetadata(eventsSnap.Metadata[idx])
		if err != nil {
			return false
		}
		if !meta.StartTime.After(now) {
			return false
		}
		if meta.OrganizerID == req.ViewerID {
			return false
		}
		if _, excluded := exclude[id]; excluded {
			return false
		}
		return true
	}

	kSearch := e.Config.KSearchFloor
	if want := e.Config.KSearchMultiple * req.K; want > kSearch {
		kSearch = want
	}

	candidates, err := eventsSnap.Search(viewerVec, kSearch, filter)
	if err != nil {
		return e.fallback(ctx, req, now)
	}

	items, err := e.scoreAndRank(ctx, req, weights, candidates, eventsSnap, eventIndex, now)
	if err != nil {
		return e.fallback(ctx, req, now)
	}
	if len(items) > req.K {
		items = items[:req.K]
	}
	for i := range items {
		items[i].Rank = i + 1
	}

	resp := Response{
		ModelVersion: eventsSnap.Manifest.CreatedAt.UTC().Format(time.RFC3339Nano),
		Strategy:     req.Strategy,
		GeneratedAt:  now,
		Items:        items,
	}

	if e.Cache != nil {
		if raw, merr := json.Marshal(resp); merr == nil {
			_ = e.Cache.Set(ctx, cacheKey(req.ViewerID, eventsSnap.Manifest.CreatedAt, req.K, req.Strategy), raw)
		}
	}

	return resp, nil
}

func cacheKey(viewerID string, modelVersion time.Time, k int, strategy string) string {
	return fmt.Sprintf("%s|%s|%d|%s", viewerID, modelVersion.UTC().Format(time.RFC3339Nano), k, strategy)
}

func decodeEventMetadata(raw json.RawMessage) (modelbuilder.EventMetadata, error) {
	var m modelbuilder.EventMetadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return modelbuilder.EventMetadata{}, apperrors.Wrap(apperrors.IntegrityError, "decode event metadata", err)
	}
	return m, nil
}

// synthesizeUserVector implements algorithm step 1. It returns ok=false
// when the viewer has no usable vector by any path (no stored profile row,
// no interactions, and no on-demand embedding possible), which the caller
// treats as a fallback trigger.
func (e *Engine) synthesizeUserVector(ctx context.Context, viewerID string, eventsSnap, usersSnap *vectorstore.Snapshot, now time.Time) ([]float32, bool, error) {
	var storedVec []float32
	for i, id := range usersSnap.IDs {
		if id == viewerID {
			storedVec = usersSnap.Matrix[i]
			break
		}
	}

	user, userErr := guarded(e.Breakers.Connector, ctx, e.Config.ConnectorTimeout,
		func(ctx context.Context) (domain.User, error) { return e.Connector.User(ctx, viewerID) })
	viewerExists := userErr == nil

	if !viewerExists && storedVec == nil {
		return nil, false, nil
	}

	since := now.Add(-time.Duration(e.Config.RecencyHorizonDays) * 24 * time.Hour)
	interactions, err := guarded(e.Breakers.Connector, ctx, e.Config.ConnectorTimeout,
		func(ctx context.Context) ([]domain.Interaction, error) { return e.Connector.UserInteractions(ctx, viewerID, since, now) })
	if err != nil {
		if storedVec != nil {
			return embedding.Normalize(storedVec), true, nil
		}
		return nil, false, apperrors.Wrap(apperrors.Degraded, "load viewer interactions", err)
	}

	if len(interactions) == 0 {
		if storedVec != nil {
			return embedding.Normalize(storedVec), true, nil
		}
		if viewerExists {
			text := textproc.UserProfile(user)
			vecs, err := e.Embedder.Embed(ctx, []string{text})
			if err != nil || len(vecs) != 1 {
				return nil, false, nil
			}
			return vecs[0], true, nil
		}
		return nil, false, nil
	}

	eventIndex := make(map[string]int, len(eventsSnap.IDs))
	for i, id := range eventsSnap.IDs {
		eventIndex[id] = i
	}

	dim := eventsSnap.Manifest.Dim
	weighted := make([]float32, dim)
	var totalWeight float64
	for _, in := range interactions {
		idx, ok := eventIndex[fmt.Sprintf("%d", in.EventID)]
		if !ok {
			continue
		}
		ageDays := now.Sub(in.CreatedAt).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		weight := domain.InteractionWeight(in.Kind) * math.Exp(-ageDays/14)
		if weight <= 0 {
			continue
		}
		row := eventsSnap.Matrix[idx]
		for d := 0; d < dim && d < len(row); d++ {
			weighted[d] += float32(weight) * row[d]
		}
		totalWeight += weight
	}

	if totalWeight == 0 {
		if storedVec != nil {
			return embedding.Normalize(storedVec), true, nil
		}
		return nil, false, nil
	}
	for d := range weighted {
		weighted[d] = float32(float64(weighted[d]) / totalWeight)
	}

	if storedVec != nil {
		blend := e.Config.ColdStartBlend
		blended := make([]float32, dim)
		for d := 0; d < dim; d++ {
			var stored float32
			if d < len(storedVec) {
				stored = storedVec[d]
			}
			blended[d] = float32((1-blend)*float64(weighted[d]) + blend*float64(stored))
		}
		return embedding.Normalize(blended), true, nil
	}
	return embedding.Normalize(weighted), true, nil
}

// exclusionEventIDs collects every event the viewer organized or is going
// to, across all time (not bounded to the recency horizon used for
// synthesis), so a long-past RSVP still excludes the event.
func (e *Engine) exclusionEventIDs(ctx context.Context, viewerID string, now time.Time) (map[string]struct{}, error) {
	interactions, err := guarded(e.Breakers.Connector, ctx, e.Config.ConnectorTimeout,
		func(ctx context.Context) ([]domain.Interaction, error) {
			return e.Connector.UserInteractions(ctx, viewerID, time.Time{}, now)
		})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Degraded, "load viewer exclusion set", err)
	}
	set := make(map[string]struct{})
	for _, in := range interactions {
		if in.Kind == domain.InteractionGoing || in.Kind == domain.InteractionOrganized {
			set[fmt.Sprintf("%d", in.EventID)] = struct{}{}
		}
	}
	return set, nil
}

// scoreAndRank implements algorithm steps 3-6: social boost, recency
// weighting, final score, provenance, then a full sort with tie-breaks.
func (e *Engine) scoreAndRank(ctx context.Context, req Request, weights StrategyWeights, candidates []vectorstore.Scored, eventsSnap *vectorstore.Snapshot, eventIndex map[string]int, now time.Time) ([]Item, error) {
	type ranked struct {
		item      Item
		startTime time.Time
	}
	out := make([]ranked, 0, len(candidates))

	for _, c := range candidates {
		idx := eventIndex[c.ID]
		meta, err := decodeEventMetadata(eventsSnap.Metadata[idx])
		if err != nil {
			continue
		}
		eventID, err := strconv.ParseInt(c.ID, 10, 64)
		if err != nil {
			continue
		}

		statuses, err := guarded(e.Breakers.Connector, ctx, e.Config.ConnectorTimeout,
			func(ctx context.Context) ([]connector.FriendStatus, error) {
				return e.Connector.FriendStatuses(ctx, req.ViewerID, eventID)
			})
		if err != nil {
			return nil, err
		}
		friendCount := len(statuses)

		if weights.DropNoFriends && friendCount == 0 {
			continue
		}

		friendMultiplier := min(friendCount, weights.FriendCap)
		daysUntilStart := int(meta.StartTime.Sub(now) / (24 * time.Hour))
		recencyMult := recencyMultiplier(daysUntilStart)

		var score float64
		var source Source
		if weights.BaseSimWeight == 0 {
			score = weights.FriendStep * float64(friendMultiplier)
			source = SourceSocial
		} else {
			friendBoost := 1 + weights.FriendStep*float64(friendMultiplier)
			score = c.Score * friendBoost * recencyMult
			contentMaterial := c.Score > sourceThreshold
			socialMaterial := (friendBoost - 1) > sourceThreshold
			switch {
			case contentMaterial && socialMaterial:
				source = SourceContentSocial
			case socialMaterial:
				source = SourceSocial
			default:
				source = SourceContent
			}
		}

		out = append(out, ranked{
			item: Item{
				EventID:     eventID,
				Score:       score,
				FriendCount: friendCount,
				Source:      source,
			},
			startTime: meta.StartTime,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].item.Score != out[j].item.Score {
			return out[i].item.Score > out[j].item.Score
		}
		if !out[i].startTime.Equal(out[j].startTime) {
			return out[i].startTime.Before(out[j].startTime)
		}
		return out[i].item.EventID < out[j].item.EventID
	})

	items := make([]Item, len(out))
	for i, r := range out {
		items[i] = r.item
	}
	return items, nil
}

func recencyMultiplier(daysUntilStart int) float64 {
	switch {
	case daysUntilStart <= 7:
		return 1.25
	case daysUntilStart <= 14:
		return 1.10
	default:
		return 1.00
	}
}

// fallback returns the top-K upcoming events ordered by start_time
// ascending, tie-broken by event_id ascending, all tagged source=fallback
// and score=0. It never itself fails except on a connector error, in
// which case the caller has genuinely nothing left to serve.
func (e *Engine) fallback(ctx context.Context, req Request, now time.Time) (Response, error) {
	events, err := guarded(e.Breakers.Connector, ctx, e.Config.ConnectorTimeout,
		func(ctx context.Context) ([]domain.Event, error) { return e.Connector.FutureEvents(ctx, now) })
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.Internal, "fallback: load future events", err)
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].StartTime.Equal(events[j].StartTime) {
			return events[i].StartTime.Before(events[j].StartTime)
		}
		return events[i].EventID < events[j].EventID
	})

	k := req.K
	if k > len(events) {
		k = len(events)
	}
	items := make([]Item, k)
	for i := 0; i < k; i++ {
		items[i] = Item{EventID: events[i].EventID, Score: 0, FriendCount: 0, Source: SourceFallback, Rank: i + 1}
	}

	modelVersion := "unknown"
	if manifest, err := e.Store.Stat(vectorstore.EventsCollection); err == nil {
		modelVersion = manifest.CreatedAt.UTC().Format(time.RFC3339Nano)
	}

	return Response{
		ModelVersion: modelVersion,
		Strategy:     req.Strategy,
		GeneratedAt:  now,
		Items:        items,
	}, nil
}
