// Package spatial answers coordinate queries over positioned map nodes.
//
// Two backends exist: an indexed one that pushes geometric predicates to the
// store, and a scan fallback that filters tenant positions in-process. The
// backend is chosen once at startup; on top of that, Index degrades any
// failing operation to the scan path so a broken geometry store never
// surfaces to the caller.
package spatial

import (
	"context"

	"github.com/orgmesh/backend/pkg/logger"
	"github.com/orgmesh/backend/pkg/mapgraph"
)

// Backend is the spatial query contract.
//
// QueryRadius returns nodes ordered nearest-first. In the scan fallback the
// radius degrades to a square bounding box, so results are a superset of
// exact circular containment; callers must not assume the exact circle.
// QueryViewport is unordered. Nearest returns nil when the tenant has no
// positioned nodes; equidistant candidates tie-break on lowest node id.
type Backend interface {
	QueryRadius(ctx context.Context, tenantID int64, centerX, centerY, radius float64, nodeTypes []mapgraph.NodeType, limit int) ([]mapgraph.Node, error)
	QueryViewport(ctx context.Context, tenantID int64, minX, minY, maxX, maxY float64, nodeTypes []mapgraph.NodeType, limit int) ([]mapgraph.Node, error)
	Nearest(ctx context.Context, tenantID int64, x, y float64, nodeType *mapgraph.NodeType) (*mapgraph.Node, float64, error)
}

// Index dispatches to a primary backend and falls back to a secondary on any
// error. With a nil primary it serves from the fallback directly.
type Index struct {
	primary  Backend
	fallback Backend
}

func NewIndex(primary, fallback Backend) *Index {
	return &Index{primary: primary, fallback: fallback}
}

func (i *Index) QueryRadius(ctx context.Context, tenantID int64, centerX, centerY, radius float64, nodeTypes []mapgraph.NodeType, limit int) ([]mapgraph.Node, error) {
	if i.primary != nil {
		nodes, err := i.primary.QueryRadius(ctx, tenantID, centerX, centerY, radius, nodeTypes, limit)
		if err == nil {
			return nodes, nil
		}
		logger.Warn("[Spatial] Radius query failed, using scan fallback", "err", err)
	}
	return i.fallback.QueryRadius(ctx, tenantID, centerX, centerY, radius, nodeTypes, limit)
}

func (i *Index) QueryViewport(ctx context.Context, tenantID int64, minX, minY, maxX, maxY float64, nodeTypes []mapgraph.NodeType, limit int) ([]mapgraph.Node, error) {
	if i.primary != nil {
		nodes, err := i.primary.QueryViewport(ctx, tenantID, minX, minY, maxX, maxY, nodeTypes, limit)
		if err == nil {
			return nodes, nil
		}
		logger.Warn("[Spatial] Viewport query failed, using scan fallback", "err", err)
	}
	return i.fallback.QueryViewport(ctx, tenantID, minX, minY, maxX, maxY, nodeTypes, limit)
}

func (i *Index) Nearest(ctx context.Context, tenantID int64, x, y float64, nodeType *mapgraph.NodeType) (*mapgraph.Node, float64, error) {
	if i.primary != nil {
		node, distance, err := i.primary.Nearest(ctx, tenantID, x, y, nodeType)
		if err == nil {
			return node, distance, nil
		}
		logger.Warn("[Spatial] Nearest query failed, using scan fallback", "err", err)
	}
	return i.fallback.Nearest(ctx, tenantID, x, y, nodeType)
}
