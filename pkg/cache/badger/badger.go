// Package badger provides the embedded neighbor cache on BadgerDB. Entries
// carry a TTL and age out on their own; explicit invalidation comes from the
// entity mutation event consumer.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/orgmesh/backend/pkg/logger"
	"github.com/orgmesh/backend/pkg/mapgraph"

	"github.com/dgraph-io/badger/v4"
)

// NeighborCache implements mapgraph.NeighborCache. All operations are
// best-effort: read failures surface as misses and write failures are logged
// and dropped, so a broken cache store never fails a map request.
type NeighborCache struct {
	db *badger.DB
}

// NewNeighborCacheParams configures the cache store.
type NewNeighborCacheParams struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps the store off disk, used by tests.
	InMemory bool
}

// NewNeighborCache opens the backing store.
func NewNeighborCache(params NewNeighborCacheParams) (*NeighborCache, error) {
	opts := badger.DefaultOptions(params.Path).WithLogger(nil)
	if params.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open neighbor cache: %w", err)
	}
	return &NeighborCache{db: db}, nil
}

func (c *NeighborCache) Close() error {
	return c.db.Close()
}

func (c *NeighborCache) GetNeighbors(ctx context.Context, tenantID int64, ref mapgraph.EntityRef) (mapgraph.NeighborSet, bool) {
	var set mapgraph.NeighborSet

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(tenantID, ref))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &set)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logger.Warn("[Cache] Neighbor read failed", "entity", ref.NodeID(), "err", err)
		}
		return nil, false
	}
	return set, true
}

func (c *NeighborCache) SetNeighbors(ctx context.Context, tenantID int64, ref mapgraph.EntityRef, set mapgraph.NeighborSet, ttl time.Duration) {
	data, err := json.Marshal(set)
	if err != nil {
		logger.Warn("[Cache] Neighbor encode failed", "entity", ref.NodeID(), "err", err)
		return
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(cacheKey(tenantID, ref), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		logger.Warn("[Cache] Neighbor write failed", "entity", ref.NodeID(), "err", err)
	}
}

func (c *NeighborCache) InvalidateNeighbors(ctx context.Context, tenantID int64, ref mapgraph.EntityRef) {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(cacheKey(tenantID, ref))
	})
	if err != nil {
		logger.Warn("[Cache] Neighbor invalidate failed", "entity", ref.NodeID(), "err", err)
	}
}

func cacheKey(tenantID int64, ref mapgraph.EntityRef) []byte {
	return fmt.Appendf(nil, "neighbors:%d:%s:%d", tenantID, ref.Kind, ref.ID)
}
