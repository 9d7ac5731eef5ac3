// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package vectorstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/mfolsom1/eventreco/internal/apperrors"
)

// UserSimCollection is the fixed name of the user-user similarity
// collection.
const UserSimCollection = "user_sim"

// UserSimSnapshot is a consistent view of the top-K similar-users table.
// Row i holds subject user Subjects[i]'s neighbors: NeighborIDs[i] is the
// ordered (descending similarity) list of neighbor user ids, and
// Scores[i] holds the parallel cosine similarity scores. This is a
// deliberate specialization of the generic per-id-row contract used by
// events/users: user_sim needs K identities per row rather than one, so
// its ids.json is a JSON array of arrays instead of a flat array, and it
// carries no metadata.json, matching the fixed on-disk layout for
// user_sim.
type UserSimSnapshot struct {
	Manifest    Manifest
	Subjects    []string
	NeighborIDs [][]string
	Scores      [][]float32
}

// WriteUserSim publishes a new version of the user_sim collection. Every
// row of neighborIDs and scores must have the same length K, which becomes
// the manifest's declared dimension.
func (s *Store) WriteUserSim(subjects []string, neighborIDs [][]string, scores [][]float32, algorithm string) error {
	if len(subjects) != len(neighborIDs) || len(subjects) != len(scores) {
		return apperrors.New(apperrors.Internal, "subjects/neighborIDs/scores length mismatch")
	}
	k := 0
	if len(scores) > 0 {
		k = len(scores[0])
		for i := range scores {
			if len(scores[i]) != k || len(neighborIDs[i]) != k {
				return apperrors.New(apperrors.Internal, fmt.Sprintf("row %d neighbor count mismatch", i))
			}
		}
	}

	matrixBytes := EncodeMatrix(scores)
	createdAt := time.Now().UTC()
	manifest := Manifest{
		Name:          UserSimCollection,
		CreatedAt:     createdAt,
		Dim:           k,
		Rows:          len(subjects),
		Algorithm:     algorithm,
		SHA256Hex:     checksum(matrixBytes),
		SchemaVersion: SchemaVersion,
	}

	idsPayload := struct {
		Subjects []string   `json:"subjects"`
		Neighbors [][]string `json:"neighbors"`
	}{Subjects: subjects, Neighbors: neighborIDs}
	idsBytes, err := json.Marshal(idsPayload)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "marshal user_sim ids.json", err)
	}
	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "marshal user_sim manifest.json", err)
	}

	return s.publish(UserSimCollection, createdAt, map[string][]byte{
		"matrix.bin":    matrixBytes,
		"ids.json":      idsBytes,
		"manifest.json": manifestBytes,
	})
}

// ReadUserSim acquires a consistent snapshot of the user_sim collection
// using the same resolve-once discipline as Read.
func (s *Store) ReadUserSim() (*UserSimSnapshot, error) {
	target, err := s.resolve(UserSimCollection)
	if err != nil {
		return nil, err
	}

	manifest, err := readManifest(target)
	if err != nil {
		return nil, err
	}

	matrixBytes, err := os.ReadFile(filepath.Join(target, "matrix.bin"))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IntegrityError, "read user_sim matrix.bin", err)
	}
	if checksum(matrixBytes) != manifest.SHA256Hex {
		return nil, apperrors.New(apperrors.IntegrityError, "checksum mismatch for user_sim")
	}
	scores, err := DecodeMatrix(matrixBytes, manifest.Dim)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IntegrityError, "decode user_sim matrix.bin", err)
	}

	idsBytes, err := os.ReadFile(filepath.Join(target, "ids.json"))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IntegrityError, "read user_sim ids.json", err)
	}
	var payload struct {
		Subjects  []string   `json:"subjects"`
		Neighbors [][]string `json:"neighbors"`
	}
	if err := json.Unmarshal(idsBytes, &payload); err != nil {
		return nil, apperrors.Wrap(apperrors.IntegrityError, "parse user_sim ids.json", err)
	}
	if len(payload.Subjects) != manifest.Rows || len(payload.Neighbors) != manifest.Rows || len(scores) != manifest.Rows {
		return nil, apperrors.New(apperrors.IntegrityError, "user_sim row count mismatch against manifest")
	}

	return &UserSimSnapshot{
		Manifest:    manifest,
		Subjects:    payload.Subjects,
		NeighborIDs: payload.Neighbors,
		Scores:      scores,
	}, nil
}
