package spatial

import (
	"context"
	"math"
	"sort"

	"github.com/orgmesh/backend/pkg/mapgraph"
)

// PositionSource supplies every positioned node of a tenant, optionally
// narrowed by node type.
type PositionSource interface {
	Positions(ctx context.Context, tenantID int64, nodeTypes []mapgraph.NodeType) ([]mapgraph.Node, error)
}

// ScanBackend is the fallback Backend: it loads all candidate positions and
// evaluates the geometry in-process. Radius containment is approximated by
// the square bounding box [cx-r, cx+r] x [cy-r, cy+r].
type ScanBackend struct {
	source PositionSource
}

func NewScanBackend(source PositionSource) *ScanBackend {
	return &ScanBackend{source: source}
}

func (s *ScanBackend) QueryRadius(ctx context.Context, tenantID int64, centerX, centerY, radius float64, nodeTypes []mapgraph.NodeType, limit int) ([]mapgraph.Node, error) {
	nodes, err := s.source.Positions(ctx, tenantID, nodeTypes)
	if err != nil {
		return nil, err
	}

	var hits []mapgraph.Node
	for _, node := range nodes {
		if node.Position == nil {
			continue
		}
		if math.Abs(node.Position.X-centerX) > radius || math.Abs(node.Position.Y-centerY) > radius {
			continue
		}
		hits = append(hits, node)
	}

	sort.Slice(hits, func(i, j int) bool {
		di := distance(hits[i].Position.X, hits[i].Position.Y, centerX, centerY)
		dj := distance(hits[j].Position.X, hits[j].Position.Y, centerX, centerY)
		if di != dj {
			return di < dj
		}
		return hits[i].ID < hits[j].ID
	})

	return clip(hits, limit), nil
}

func (s *ScanBackend) QueryViewport(ctx context.Context, tenantID int64, minX, minY, maxX, maxY float64, nodeTypes []mapgraph.NodeType, limit int) ([]mapgraph.Node, error) {
	nodes, err := s.source.Positions(ctx, tenantID, nodeTypes)
	if err != nil {
		return nil, err
	}

	var hits []mapgraph.Node
	for _, node := range nodes {
		if node.Position == nil {
			continue
		}
		if node.Position.X < minX || node.Position.X > maxX || node.Position.Y < minY || node.Position.Y > maxY {
			continue
		}
		hits = append(hits, node)
	}

	return clip(hits, limit), nil
}

func (s *ScanBackend) Nearest(ctx context.Context, tenantID int64, x, y float64, nodeType *mapgraph.NodeType) (*mapgraph.Node, float64, error) {
	var types []mapgraph.NodeType
	if nodeType != nil {
		types = []mapgraph.NodeType{*nodeType}
	}

	nodes, err := s.source.Positions(ctx, tenantID, types)
	if err != nil {
		return nil, 0, err
	}

	var (
		best     *mapgraph.Node
		bestDist float64
	)
	for i := range nodes {
		node := nodes[i]
		if node.Position == nil {
			continue
		}
		d := distance(node.Position.X, node.Position.Y, x, y)
		switch {
		case best == nil, d < bestDist:
			best, bestDist = &nodes[i], d
		case d == bestDist && node.ID < best.ID:
			best = &nodes[i]
		}
	}

	if best == nil {
		return nil, 0, nil
	}
	return best, bestDist, nil
}

func distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x1-x2, y1-y2)
}

func clip(nodes []mapgraph.Node, limit int) []mapgraph.Node {
	if limit > 0 && len(nodes) > limit {
		return nodes[:limit]
	}
	return nodes
}
