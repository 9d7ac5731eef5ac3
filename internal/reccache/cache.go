// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reccache is a BadgerDB-backed cache for serialized recommendation
// responses, keyed by the caller (viewer, model version, k, strategy) and
// evicted by BadgerDB's native per-entry TTL rather than a manual sweep.
package reccache

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/mfolsom1/eventreco/internal/apperrors"
	"github.com/mfolsom1/eventreco/internal/metrics"
)

const keyPrefix = "rec:"
const cacheType = "recommend"

// Store implements the recommend.Cache contract (Get/Set of raw bytes)
// without importing that package, which would create an import cycle.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens (or creates) a BadgerDB database at dir and returns a Store
// whose entries expire after ttl.
func Open(dir string, ttl time.Duration) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "open reccache badger db", err)
	}
	return &Store{db: db, ttl: ttl}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached value for key, or ok=false if absent or expired.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.Degraded, "reccache get", err)
	}
	if value != nil {
		metrics.RecordCacheHit(cacheType)
	} else {
		metrics.RecordCacheMiss(cacheType)
	}
	return value, value != nil, nil
}

// Set stores value under key with the store's configured TTL.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(keyPrefix+key), value)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return apperrors.Wrap(apperrors.Degraded, "reccache set", err)
	}
	return nil
}

// InvalidateAll drops every cached response, used when a new model version
// is published so stale recommendations are never served against it.
func (s *Store) InvalidateAll(_ context.Context) error {
	err := s.db.DropPrefix([]byte(keyPrefix))
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "reccache invalidate all", err)
	}
	metrics.RecordCacheInvalidation(cacheType)
	return nil
}
