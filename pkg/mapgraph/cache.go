package mapgraph

import (
	"context"
	"time"
)

// NeighborSet maps a relation tag ("manager", "members", ...) to the ids of
// the directly related entities. Ids are unique within a tag; order carries
// no meaning.
type NeighborSet map[string][]int64

// NeighborCache caches computed neighbor sets per (tenant, kind, id). Every
// operation is best-effort: a Get error is treated as a miss and a Set error
// is ignored, so an unavailable backing store degrades to always-miss and
// never aborts a request. Concurrent writers for the same key may race; the
// last write wins, which is acceptable because both computed the same data.
type NeighborCache interface {
	// GetNeighbors returns the cached set and true on a hit. A miss or a
	// backing store failure returns false.
	GetNeighbors(ctx context.Context, tenantID int64, ref EntityRef) (NeighborSet, bool)
	// SetNeighbors stores the set with the given TTL.
	SetNeighbors(ctx context.Context, tenantID int64, ref EntityRef, set NeighborSet, ttl time.Duration)
	// InvalidateNeighbors drops the entry for the given entity, if present.
	InvalidateNeighbors(ctx context.Context, tenantID int64, ref EntityRef)
}

// NopCache is a NeighborCache that never hits. It is the degraded mode used
// when no cache backend is available, and doubles as a test double.
type NopCache struct{}

func (NopCache) GetNeighbors(ctx context.Context, tenantID int64, ref EntityRef) (NeighborSet, bool) {
	return nil, false
}

func (NopCache) SetNeighbors(ctx context.Context, tenantID int64, ref EntityRef, set NeighborSet, ttl time.Duration) {
}

func (NopCache) InvalidateNeighbors(ctx context.Context, tenantID int64, ref EntityRef) {}
