// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package modelbuilder

import (
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/mfolsom1/eventreco/internal/apperrors"
)

// Metrics is the quality-metrics record emitted at the end of a build,
// written to model_artifacts/metrics.json.
type Metrics struct {
	EventCoverage               float64 `json:"event_coverage"`
	UserCoverage                float64 `json:"user_coverage"`
	EmbeddingDeterministic      bool    `json:"embedding_deterministic"`
	MeanPairwiseCosineDiversity float64 `json:"mean_pairwise_cosine_diversity"`
	EventCount                  int     `json:"event_count"`
	UserCount                   int     `json:"user_count"`
}

// VersionRecord is one entry appended to model_artifacts/versions.json
// after a successful build.
type VersionRecord struct {
	Version        string    `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	EventCount     int       `json:"event_count"`
	UserCount      int       `json:"user_count"`
	EventsChecksum string    `json:"events_checksum"`
	UsersChecksum  string    `json:"users_checksum"`
}

// ArtifactWriter persists build-run artifacts (metrics, version history)
// under a directory separate from the vector store's own generation
// directories, matching the on-disk layout's model_artifacts/ tree.
type ArtifactWriter struct {
	dir string
}

// NewArtifactWriter returns a writer rooted at dir, creating it if needed.
func NewArtifactWriter(dir string) (*ArtifactWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "create model artifacts directory", err)
	}
	return &ArtifactWriter{dir: dir}, nil
}

// WriteMetrics overwrites metrics.json with the latest build's metrics.
func (a *ArtifactWriter) WriteMetrics(m Metrics) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "marshal metrics.json", err)
	}
	if err := os.WriteFile(filepath.Join(a.dir, "metrics.json"), data, 0o644); err != nil {
		return apperrors.Wrap(apperrors.Internal, "write metrics.json", err)
	}
	return nil
}

// AppendVersion adds record to the end of versions.json's history, reading
// and rewriting the whole file. Safe under the Model Builder's own
// single-writer discipline: only one build runs at a time.
func (a *ArtifactWriter) AppendVersion(record VersionRecord) error {
	path := filepath.Join(a.dir, "versions.json")
	var history []VersionRecord

	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &history); err != nil {
			return apperrors.Wrap(apperrors.IntegrityError, "parse versions.json", err)
		}
	} else if !os.IsNotExist(err) {
		return apperrors.Wrap(apperrors.Internal, "read versions.json", err)
	}

	history = append(history, record)

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "marshal versions.json", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.Wrap(apperrors.Internal, "write versions.json", err)
	}
	return nil
}

// LatestVersion returns the most recently appended version record, or the
// zero value and false if none exists yet.
func (a *ArtifactWriter) LatestVersion() (VersionRecord, bool, error) {
	path := filepath.Join(a.dir, "versions.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return VersionRecord{}, false, nil
	}
	if err != nil {
		return VersionRecord{}, false, apperrors.Wrap(apperrors.Internal, "read versions.json", err)
	}
	var history []VersionRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return VersionRecord{}, false, apperrors.Wrap(apperrors.IntegrityError, "parse versions.json", err)
	}
	if len(history) == 0 {
		return VersionRecord{}, false, nil
	}
	return history[len(history)-1], true, nil
}
