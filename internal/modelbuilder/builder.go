// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package modelbuilder implements the offline batch job that turns the
// current connector-visible state of events, users, and interactions into
// a new, versioned set of vector store collections.
package modelbuilder

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/mfolsom1/eventreco/internal/apperrors"
	"github.com/mfolsom1/eventreco/internal/connector"
	"github.com/mfolsom1/eventreco/internal/domain"
	"github.com/mfolsom1/eventreco/internal/embedding"
	"github.com/mfolsom1/eventreco/internal/metrics"
	"github.com/mfolsom1/eventreco/internal/textproc"
	"github.com/mfolsom1/eventreco/internal/vectorstore"
)

// Config controls the abort thresholds and top-K width of a build run.
type Config struct {
	MinEvents int
	MinUsers  int
	UserSimK  int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{MinEvents: 5, MinUsers: 1, UserSimK: 20}
}

// Notifier is implemented by anything that wants to hear about successful
// builds. It is optional: a nil Notifier is a valid, silent no-op.
type Notifier interface {
	PublishModelVersion(ctx context.Context, version string) error
}

// Builder orchestrates one build run: read from Connector, compose text,
// embed, write vector store collections, emit metrics.
type Builder struct {
	Connector connector.Connector
	Embedder  embedding.Embedder
	Store     *vectorstore.Store
	Artifacts *ArtifactWriter
	Notifier  Notifier
	Config    Config
	Logger    zerolog.Logger
}

// Result summarizes one completed build.
type Result struct {
	Version    string
	EventCount int
	UserCount  int
	Metrics    Metrics
}

// Build runs the seven orchestration steps in order. Any failure aborts
// the entire run with the previous vector store collections left intact;
// there is no partial publication.
func (b *Builder) Build(ctx context.Context) (result Result, err error) {
	log := b.Logger.With().Str("component", "modelbuilder").Logger()

	runStart := time.Now()
	outcome := "error"
	defer func() {
		metrics.RecordBuilderRun(outcome, time.Since(runStart))
	}()

	// Step 1: categories and interest vocabulary. They are only loaded and
	// logged; the coverage metrics of step 7 are computed from the records.
	categories, err := b.Connector.CategoryDictionary(ctx)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.Internal, "load category dictionary", err)
	}
	tags, err := b.Connector.TagDictionary(ctx)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.Internal, "load tag dictionary", err)
	}
	log.Debug().Int("categories", len(categories)).Int("tags", len(tags)).Msg("loaded vocabulary")

	// Step 2: future non-archived events.
	now := time.Now().UTC()
	events, err := b.Connector.FutureEvents(ctx, now)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.Internal, "load future events", err)
	}
	if len(events) < b.Config.MinEvents {
		outcome = "aborted_min_events"
		return Result{}, apperrors.New(apperrors.Internal,
			fmt.Sprintf("only %d future events available, need at least %d", len(events), b.Config.MinEvents))
	}

	// Step 3: compose and embed events in bounded batches.
	eventIDs, eventMatrix, eventMetadata, eventCoverage, err := b.buildEventArtifact(ctx, events)
	if err != nil {
		return Result{}, err
	}

	// Step 4: active users.
	users, err := b.Connector.ActiveUsers(ctx)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.Internal, "load active users", err)
	}
	if len(users) < b.Config.MinUsers {
		outcome = "aborted_min_users"
		return Result{}, apperrors.New(apperrors.Internal,
			fmt.Sprintf("only %d active users available, need at least %d", len(users), b.Config.MinUsers))
	}

	// Step 4 (continued): compose and embed users.
	userIDs, userMatrix, userMetadata, userCoverage, err := b.buildUserArtifact(ctx, users)
	if err != nil {
		return Result{}, err
	}

	// Step 5: user-user cosine similarity, top-K per user.
	simSubjects, simNeighbors, simScores := topKUserSimilarity(userIDs, userMatrix, b.Config.UserSimK)

	// Step 6: write three collections atomically.
	algorithm := fmt.Sprintf("hash-cosine-d%d", b.Embedder.Dim())
	if err := b.Store.Write(vectorstore.EventsCollection, eventIDs, eventMatrix, eventMetadata, algorithm); err != nil {
		return Result{}, apperrors.Wrap(apperrors.Internal, "write events collection", err)
	}
	if err := b.Store.Write(vectorstore.UsersCollection, userIDs, userMatrix, userMetadata, algorithm); err != nil {
		return Result{}, apperrors.Wrap(apperrors.Internal, "write users collection", err)
	}
	if err := b.Store.WriteUserSim(simSubjects, simNeighbors, simScores, algorithm); err != nil {
		return Result{}, apperrors.Wrap(apperrors.Internal, "write user_sim collection", err)
	}

	// Step 7: quality metrics.
	determinismOK, err := b.spotCheckDeterminism(ctx, events)
	if err != nil {
		return Result{}, err
	}
	diversity := meanPairwiseCosineDiversity(eventMatrix)
	buildMetrics := Metrics{
		EventCoverage:               eventCoverage,
		UserCoverage:                userCoverage,
		EmbeddingDeterministic:      determinismOK,
		MeanPairwiseCosineDiversity: diversity,
		EventCount:                  len(eventIDs),
		UserCount:                   len(userIDs),
	}
	metrics.RecordBuilderBatch(len(eventIDs), len(userIDs), diversity)

	eventsManifest, err := b.Store.Stat(vectorstore.EventsCollection)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.Internal, "stat events collection after write", err)
	}
	usersManifest, err := b.Store.Stat(vectorstore.UsersCollection)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.Internal, "stat users collection after write", err)
	}
	version := eventsManifest.CreatedAt.UTC().Format(time.RFC3339Nano)

	record := VersionRecord{
		Version:        version,
		CreatedAt:      eventsManifest.CreatedAt,
		EventCount:     len(eventIDs),
		UserCount:      len(userIDs),
		EventsChecksum: eventsManifest.SHA256Hex,
		UsersChecksum:  usersManifest.SHA256Hex,
	}
	if b.Artifacts != nil {
		if err := b.Artifacts.AppendVersion(record); err != nil {
			return Result{}, err
		}
		if err := b.Artifacts.WriteMetrics(buildMetrics); err != nil {
			return Result{}, err
		}
	}

	if b.Notifier != nil {
		if err := b.Notifier.PublishModelVersion(ctx, version); err != nil {
			log.Warn().Err(err).Msg("failed to publish model version notification")
		}
	}

	log.Info().Str("version", version).Int("events", len(eventIDs)).Int("users", len(userIDs)).Msg("build complete")
	outcome = "published"
	return Result{Version: version, EventCount: len(eventIDs), UserCount: len(userIDs), Metrics: buildMetrics}, nil
}

func (b *Builder) buildEventArtifact(ctx context.Context, events []domain.Event) (ids []string, matrix [][]float32, metadata []json.RawMessage, coverage float64, err error) {
	texts := make([]string, len(events))
	nonEmpty := 0
	for i, e := range events {
		texts[i] = textproc.Event(e)
		if hasContentField(e.Title, e.Description, e.Category, e.Location) || len(e.Tags) > 0 {
			nonEmpty++
		}
	}

	vectors, err := embedBatched(ctx, b.Embedder, texts)
	if err != nil {
		return nil, nil, nil, 0, err
	}

	ids = make([]string, len(events))
	matrix = make([][]float32, len(events))
	metadata = make([]json.RawMessage, len(events))
	for i, e := range events {
		ids[i] = fmt.Sprintf("%d", e.EventID)
		matrix[i] = vectors[i]
		meta := EventMetadata{
			Title:          e.Title,
			Category:       e.Category,
			Tags:           e.Tags,
			Location:       e.Location,
			StartTime:      e.StartTime,
			EndTime:        e.EndTime,
			OrganizerID:    e.OrganizerID,
			OrgAffiliation: e.OrgAffiliation,
		}
		raw, err := json.Marshal(meta)
		if err != nil {
			return nil, nil, nil, 0, apperrors.Wrap(apperrors.Internal, "marshal event metadata", err)
		}
		metadata[i] = raw
	}

	if len(events) > 0 {
		coverage = float64(nonEmpty) / float64(len(events))
	}
	return ids, matrix, metadata, coverage, nil
}

func (b *Builder) buildUserArtifact(ctx context.Context, users []domain.User) (ids []string, matrix [][]float32, metadata []json.RawMessage, coverage float64, err error) {
	texts := make([]string, len(users))
	nonEmpty := 0
	for i, u := range users {
		texts[i] = textproc.UserProfile(u)
		if hasContentField(u.Bio) || len(u.Interests) > 0 {
			nonEmpty++
		}
	}

	vectors, err := embedBatched(ctx, b.Embedder, texts)
	if err != nil {
		return nil, nil, nil, 0, err
	}

	ids = make([]string, len(users))
	matrix = make([][]float32, len(users))
	metadata = make([]json.RawMessage, len(users))
	for i, u := range users {
		ids[i] = u.UserID
		matrix[i] = vectors[i]
		meta := UserMetadata{
			Username:  u.Username,
			Bio:       u.Bio,
			Interests: u.Interests,
			Kind:      string(u.Kind),
		}
		raw, err := json.Marshal(meta)
		if err != nil {
			return nil, nil, nil, 0, apperrors.Wrap(apperrors.Internal, "marshal user metadata", err)
		}
		metadata[i] = raw
	}

	if len(users) > 0 {
		coverage = float64(nonEmpty) / float64(len(users))
	}
	return ids, matrix, metadata, coverage, nil
}

func hasContentField(fields ...string) bool {
	for _, f := range fields {
		if f != "" {
			return true
		}
	}
	return false
}

// embedBatched calls embedder in chunks of embedding.BatchSize and
// concatenates the per-batch outputs. It does not compare them against a
// single full-input call; it relies on the batch-invariance guarantee the
// Embedder interface requires of every implementation.
func embedBatched(ctx context.Context, embedder embedding.Embedder, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedding.BatchSize {
		end := start + embedding.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, apperrors.Wrap(apperrors.Internal, "embed batch", err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// spotCheckDeterminism re-embeds a single canonical text and confirms the
// result is bit-identical to the first pass, without a second full-corpus
// embedding run.
func (b *Builder) spotCheckDeterminism(ctx context.Context, events []domain.Event) (bool, error) {
	if len(events) == 0 {
		return true, nil
	}
	text := textproc.Event(events[0])
	first, err := b.Embedder.Embed(ctx, []string{text})
	if err != nil {
		return false, apperrors.Wrap(apperrors.Internal, "determinism spot-check embed (pass 1)", err)
	}
	second, err := b.Embedder.Embed(ctx, []string{text})
	if err != nil {
		return false, apperrors.Wrap(apperrors.Internal, "determinism spot-check embed (pass 2)", err)
	}
	if len(first) != 1 || len(second) != 1 || len(first[0]) != len(second[0]) {
		return false, nil
	}
	for i := range first[0] {
		if first[0][i] != second[0][i] {
			return false, nil
		}
	}
	return true, nil
}

// meanPairwiseCosineDiversity computes 1 - mean(cosine similarity) across
// all pairs in a bounded random-order sample of rows, so builder runs over
// large corpora stay cheap. Rows are assumed unit-normalized.
func meanPairwiseCosineDiversity(matrix [][]float32) float64 {
	const sampleSize = 50
	n := len(matrix)
	if n < 2 {
		return 0
	}
	sample := matrix
	if n > sampleSize {
		sample = make([][]float32, sampleSize)
		for i, p := range rand.Perm(n)[:sampleSize] {
			sample[i] = matrix[p]
		}
	}
	var sumSim float64
	pairs := 0
	for i := 0; i < len(sample); i++ {
		for j := i + 1; j < len(sample); j++ {
			sumSim += cosine(sample[i], sample[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return 1 - sumSim/float64(pairs)
}

func cosine(a, b []float32) float64 {
	var dot float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// topKUserSimilarity computes cosine similarity between every pair of
// normalized user rows and keeps the top K neighbors per subject,
// descending by score, ties broken by ascending neighbor id.
func topKUserSimilarity(userIDs []string, userMatrix [][]float32, k int) (subjects []string, neighbors [][]string, scores [][]float32) {
	n := len(userIDs)
	subjects = make([]string, n)
	neighbors = make([][]string, n)
	scores = make([][]float32, n)

	for i := 0; i < n; i++ {
		type candidate struct {
			id    string
			score float32
		}
		candidates := make([]candidate, 0, n-1)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			candidates = append(candidates, candidate{id: userIDs[j], score: float32(cosine(userMatrix[i], userMatrix[j]))})
		}
		sort.Slice(candidates, func(a, b int) bool {
			if candidates[a].score != candidates[b].score {
				return candidates[a].score > candidates[b].score
			}
			return candidates[a].id < candidates[b].id
		})
		width := k
		if width > len(candidates) {
			width = len(candidates)
		}
		ids := make([]string, width)
		sims := make([]float32, width)
		for w := 0; w < width; w++ {
			ids[w] = candidates[w].id
			sims[w] = candidates[w].score
		}
		subjects[i] = userIDs[i]
		neighbors[i] = ids
		scores[i] = sims
	}
	return subjects, neighbors, scores
}
