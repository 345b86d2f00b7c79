// Package pgx implements the indexed spatial backend on PostgreSQL with
// pgvector. Positions are stored both as plain x/y columns (viewport range
// scans) and as 2-d vectors (distance ordering via the <-> operator).
package pgx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pgdb "github.com/orgmesh/backend/pkg/db/pgx"
	"github.com/orgmesh/backend/pkg/mapgraph"

	"github.com/jackc/pgx/v5"
)

// SpatialBackend implements spatial.Backend and spatial.PositionSource, so it
// also feeds the scan fallback.
type SpatialBackend struct {
	queries *pgdb.Queries
}

func NewSpatialBackend(db pgdb.DBTX) *SpatialBackend {
	return &SpatialBackend{queries: pgdb.New(db)}
}

// Available probes whether the pgvector extension is installed.
func (b *SpatialBackend) Available(ctx context.Context) (bool, error) {
	return b.queries.HasVectorExtension(ctx)
}

func (b *SpatialBackend) QueryRadius(ctx context.Context, tenantID int64, centerX, centerY, radius float64, nodeTypes []mapgraph.NodeType, limit int) ([]mapgraph.Node, error) {
	rows, err := b.queries.GetPositionsWithinRadius(ctx, pgdb.GetPositionsWithinRadiusParams{
		TenantID:  tenantID,
		CenterX:   centerX,
		CenterY:   centerY,
		Radius:    radius,
		NodeTypes: typeTokens(nodeTypes),
		Limit:     queryLimit(limit),
	})
	if err != nil {
		return nil, err
	}
	return positionNodes(rows), nil
}

func (b *SpatialBackend) QueryViewport(ctx context.Context, tenantID int64, minX, minY, maxX, maxY float64, nodeTypes []mapgraph.NodeType, limit int) ([]mapgraph.Node, error) {
	rows, err := b.queries.GetPositionsInViewport(ctx, pgdb.GetPositionsInViewportParams{
		TenantID:  tenantID,
		MinX:      minX,
		MaxX:      maxX,
		MinY:      minY,
		MaxY:      maxY,
		NodeTypes: typeTokens(nodeTypes),
		Limit:     queryLimit(limit),
	})
	if err != nil {
		return nil, err
	}
	return positionNodes(rows), nil
}

func (b *SpatialBackend) Nearest(ctx context.Context, tenantID int64, x, y float64, nodeType *mapgraph.NodeType) (*mapgraph.Node, float64, error) {
	var types []mapgraph.NodeType
	if nodeType != nil {
		types = []mapgraph.NodeType{*nodeType}
	}

	row, err := b.queries.GetNearestPosition(ctx, pgdb.GetNearestPositionParams{
		TenantID:  tenantID,
		X:         x,
		Y:         y,
		NodeTypes: typeTokens(types),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	node := positionNode(row.NodePositionRow)
	return &node, row.Distance, nil
}

// Positions implements spatial.PositionSource for the scan fallback.
func (b *SpatialBackend) Positions(ctx context.Context, tenantID int64, nodeTypes []mapgraph.NodeType) ([]mapgraph.Node, error) {
	rows, err := b.queries.GetTenantPositions(ctx, pgdb.GetTenantPositionsParams{
		TenantID:  tenantID,
		NodeTypes: typeTokens(nodeTypes),
	})
	if err != nil {
		return nil, err
	}
	return positionNodes(rows), nil
}

func positionNodes(rows []pgdb.NodePositionRow) []mapgraph.Node {
	nodes := make([]mapgraph.Node, 0, len(rows))
	for _, row := range rows {
		nodes = append(nodes, positionNode(row))
	}
	return nodes
}

func positionNode(row pgdb.NodePositionRow) mapgraph.Node {
	return mapgraph.Node{
		ID:       fmt.Sprintf("%s_%d", strings.ToLower(row.NodeType), row.EntityID),
		Type:     mapgraph.NodeType(row.NodeType),
		Label:    row.Label,
		Position: &mapgraph.Position{X: row.X, Y: row.Y},
	}
}

func typeTokens(types []mapgraph.NodeType) []string {
	tokens := make([]string, 0, len(types))
	for _, t := range types {
		tokens = append(tokens, string(t))
	}
	return tokens
}

func queryLimit(limit int) int32 {
	if limit <= 0 {
		return 500
	}
	return int32(limit)
}
