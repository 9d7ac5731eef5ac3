// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package vectorstore

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/mfolsom1/eventreco/internal/apperrors"
	"github.com/mfolsom1/eventreco/internal/metrics"
)

// Fixed collection names.
const (
	EventsCollection = "events"
	UsersCollection  = "users"
)

// Store is a durable, atomically swappable set of named vector collections
// rooted at a single directory on disk. It supports many concurrent
// readers and one writer at a time per collection; readers never observe a
// torn write.
//
// Publication uses a generation-symlink scheme: each Write lands its
// payload in a freshly named version directory, then atomically repoints
// a symlink named after the collection to that directory. A reader
// resolves the symlink exactly once at the start of a Read and opens every
// file (manifest, matrix, ids, metadata) against the resolved concrete
// path, so a concurrent swap mid-read can never mix bytes from two
// versions. The store retains the two most recent generations per
// collection so an in-flight reader from the previous generation always
// has somewhere valid to read from, even mid-swap; the generation before
// that is removed on the next successful write.
type Store struct {
	root string
}

// New returns a Store rooted at dir. The directory is created if it does
// not exist.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "create vector store root", err)
	}
	return &Store{root: dir}, nil
}

// Snapshot is a consistent, point-in-time view of one collection: the
// manifest that was visible when the read began, plus its ids, matrix, and
// metadata read from the exact same version directory.
type Snapshot struct {
	Collection string
	Manifest   Manifest
	IDs        []string
	Matrix     [][]float32
	Metadata   []json.RawMessage // nil for collections without metadata (user_sim)
}

// Root returns the directory the store is rooted at.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) collectionLink(collection string) string {
	return filepath.Join(s.root, collection)
}

// Write publishes a new version of collection. metadata may be nil (as for
// user_sim, which carries no per-id feature sidecar). All rows of matrix
// must have the same length, equal to the declared dimension.
func (s *Store) Write(collection string, ids []string, matrix [][]float32, metadata []json.RawMessage, algorithm string) error {
	start := time.Now()
	err := s.write(collection, ids, matrix, metadata, algorithm)
	metrics.RecordVectorStoreOperation("write", collection, time.Since(start), err)
	return err
}

func (s *Store) write(collection string, ids []string, matrix [][]float32, metadata []json.RawMessage, algorithm string) error {
	if len(ids) != len(matrix) {
		return apperrors.New(apperrors.Internal, fmt.Sprintf("ids/%d and matrix/%d length mismatch", len(ids), len(matrix)))
	}
	if metadata != nil && len(metadata) != len(ids) {
		return apperrors.New(apperrors.Internal, fmt.Sprintf("ids/%d and metadata/%d length mismatch", len(ids), len(metadata)))
	}

	dim := 0
	if len(matrix) > 0 {
		dim = len(matrix[0])
		for i, row := range matrix {
			if len(row) != dim {
				return apperrors.New(apperrors.Internal, fmt.Sprintf("row %d has dimension %d, expected %d", i, len(row), dim))
			}
		}
	}

	matrixBytes := EncodeMatrix(matrix)
	manifest := Manifest{
		Name:          collection,
		CreatedAt:     time.Now().UTC(),
		Dim:           dim,
		Rows:          len(ids),
		Algorithm:     algorithm,
		SHA256Hex:     checksum(matrixBytes),
		SchemaVersion: SchemaVersion,
	}

	files := map[string][]byte{"matrix.bin": matrixBytes}
	idsBytes, err := json.Marshal(ids)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "marshal ids.json", err)
	}
	files["ids.json"] = idsBytes
	if metadata != nil {
		metaBytes, err := json.Marshal(metadata)
		if err != nil {
			return apperrors.Wrap(apperrors.Internal, "marshal metadata.json", err)
		}
		files["metadata.json"] = metaBytes
	}
	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "marshal manifest.json", err)
	}
	files["manifest.json"] = manifestBytes

	return s.publish(collection, manifest.CreatedAt, files)
}

// publish writes files into a fresh generation directory and atomically
// repoints collection's symlink at it, pruning generations older than the
// immediately preceding one. Shared by Write and WriteUserSim.
func (s *Store) publish(collection string, createdAt time.Time, files map[string][]byte) error {
	genDir := filepath.Join(s.root, fmt.Sprintf(".%s@%d", collection, createdAt.UnixNano()))
	if err := os.MkdirAll(genDir, 0o755); err != nil {
		return apperrors.Wrap(apperrors.Internal, "create version directory", err)
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(genDir, name), data, 0o644); err != nil {
			return apperrors.Wrap(apperrors.Internal, fmt.Sprintf("write %s", name), err)
		}
	}

	previousTarget, _ := os.Readlink(s.collectionLink(collection))

	tmpLink := filepath.Join(s.root, fmt.Sprintf(".link-%s-tmp", collection))
	os.Remove(tmpLink)
	if err := os.Symlink(genDir, tmpLink); err != nil {
		return apperrors.Wrap(apperrors.Internal, "create symlink", err)
	}
	if err := os.Rename(tmpLink, s.collectionLink(collection)); err != nil {
		return apperrors.Wrap(apperrors.Internal, "publish symlink", err)
	}

	s.pruneOldGenerations(collection, genDir, previousTarget)
	return nil
}

// resolve returns the concrete generation directory currently visible for
// collection.
func (s *Store) resolve(collection string) (string, error) {
	target, err := os.Readlink(s.collectionLink(collection))
	if err != nil {
		return "", apperrors.Wrap(apperrors.NotFound, fmt.Sprintf("collection %q not published", collection), err)
	}
	return target, nil
}

// pruneOldGenerations removes on-disk generations for collection other
// than the current one (genDir) and the immediately preceding one
// (previousTarget), which is retained for one further cycle so an
// in-flight reader from that generation is never disrupted.
func (s *Store) pruneOldGenerations(collection, genDir, previousTarget string) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return
	}
	prefix := "." + collection + "@"
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if len(name) < len(prefix) || name[:len(prefix)] != prefix {
			continue
		}
		full := filepath.Join(s.root, name)
		if full == genDir || full == previousTarget {
			continue
		}
		os.RemoveAll(full)
	}
}

// Exists reports whether collection has ever been published.
func (s *Store) Exists(collection string) bool {
	_, err := s.resolve(collection)
	return err == nil
}

// Stat returns the manifest currently visible for collection without
// reading the full matrix.
func (s *Store) Stat(collection string) (Manifest, error) {
	target, err := s.resolve(collection)
	if err != nil {
		return Manifest{}, err
	}
	return readManifest(target)
}

func readManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return Manifest{}, apperrors.Wrap(apperrors.IntegrityError, "read manifest.json", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, apperrors.Wrap(apperrors.IntegrityError, "parse manifest.json", err)
	}
	return m, nil
}

// Read acquires a consistent snapshot of collection: the symlink is
// resolved once, and every subsequent file read happens against that
// resolved directory, so a concurrent Write can never produce a torn read.
func (s *Store) Read(collection string) (*Snapshot, error) {
	start := time.Now()
	snap, err := s.read(collection)
	metrics.RecordVectorStoreOperation("read", collection, time.Since(start), err)
	return snap, err
}

func (s *Store) read(collection string) (*Snapshot, error) {
	target, err := s.resolve(collection)
	if err != nil {
		return nil, err
	}

	manifest, err := readManifest(target)
	if err != nil {
		return nil, err
	}

	matrixBytes, err := os.ReadFile(filepath.Join(target, "matrix.bin"))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IntegrityError, "read matrix.bin", err)
	}
	if checksum(matrixBytes) != manifest.SHA256Hex {
		return nil, apperrors.New(apperrors.IntegrityError, fmt.Sprintf("checksum mismatch for collection %q", collection))
	}

	matrix, err := DecodeMatrix(matrixBytes, manifest.Dim)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IntegrityError, "decode matrix.bin", err)
	}
	if len(matrix) != manifest.Rows {
		return nil, apperrors.New(apperrors.IntegrityError, fmt.Sprintf("matrix has %d rows, manifest declares %d", len(matrix), manifest.Rows))
	}

	idsBytes, err := os.ReadFile(filepath.Join(target, "ids.json"))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IntegrityError, "read ids.json", err)
	}
	var ids []string
	if err := json.Unmarshal(idsBytes, &ids); err != nil {
		return nil, apperrors.Wrap(apperrors.IntegrityError, "parse ids.json", err)
	}
	if len(ids) != manifest.Rows {
		return nil, apperrors.New(apperrors.IntegrityError, fmt.Sprintf("ids has %d entries, manifest declares %d", len(ids), manifest.Rows))
	}

	var metadata []json.RawMessage
	if metaBytes, err := os.ReadFile(filepath.Join(target, "metadata.json")); err == nil {
		if err := json.Unmarshal(metaBytes, &metadata); err != nil {
			return nil, apperrors.Wrap(apperrors.IntegrityError, "parse metadata.json", err)
		}
		if len(metadata) != manifest.Rows {
			return nil, apperrors.New(apperrors.IntegrityError, fmt.Sprintf("metadata has %d entries, manifest declares %d", len(metadata), manifest.Rows))
		}
	} else if !os.IsNotExist(err) {
		return nil, apperrors.Wrap(apperrors.IntegrityError, "read metadata.json", err)
	}

	return &Snapshot{
		Collection: collection,
		Manifest:   manifest,
		IDs:        ids,
		Matrix:     matrix,
		Metadata:   metadata,
	}, nil
}

// Scored is one result row from Search.
type Scored struct {
	ID    string
	Score float64
}

// FilterFunc decides whether a candidate row should be considered, given
// its id and raw metadata (nil if the collection carries none).
type FilterFunc func(id string, metadata json.RawMessage) bool

// Search computes cosine similarity between query and every row of
// collection, applies filter, and returns the top-k ordered by descending
// score with ties broken by ascending id. query is normalized before
// comparison; matrix rows are assumed pre-normalized by the writer.
// Returns fewer than k only when fewer rows pass the filter.
func (s *Store) Search(collection string, query []float32, k int, filter FilterFunc) ([]Scored, error) {
	snap, err := s.Read(collection)
	if err != nil {
		return nil, err
	}
	return snap.Search(query, k, filter)
}

// Search runs a top-k cosine similarity search over an already-acquired
// snapshot.
func (snap *Snapshot) Search(query []float32, k int, filter FilterFunc) ([]Scored, error) {
	if len(query) != snap.Manifest.Dim {
		return nil, apperrors.New(apperrors.InvalidArgument, fmt.Sprintf("query dimension %d does not match collection dimension %d", len(query), snap.Manifest.Dim))
	}

	normalizedQuery := normalize(query)

	candidates := make([]Scored, 0, len(snap.IDs))
	for i, id := range snap.IDs {
		if filter != nil {
			var meta json.RawMessage
			if snap.Metadata != nil {
				meta = snap.Metadata[i]
			}
			if !filter(id, meta) {
				continue
			}
		}
		score := dot(normalizedQuery, snap.Matrix[i])
		candidates = append(candidates, Scored{ID: id, Score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})

	if k < len(candidates) {
		candidates = candidates[:k]
	}
	metrics.RecordVectorStoreSearch(snap.Collection, len(candidates))
	return candidates, nil
}

func dot(a, b []float32) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
