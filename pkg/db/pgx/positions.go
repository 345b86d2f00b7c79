package pgx

import (
	"context"

	"github.com/pgvector/pgvector-go"
)

// NodePositionRow is one spatially indexed node. Label is denormalized so the
// spatial path can build nodes without touching the entity tables.
type NodePositionRow struct {
	TenantID int64
	NodeType string
	EntityID int64
	Label    string
	X        float64
	Y        float64
}

const positionColumns = `tenant_id, node_type, entity_id, label, x, y`

const getPositionsInViewport = `
SELECT ` + positionColumns + `
FROM node_positions
WHERE tenant_id = $1
  AND x BETWEEN $2 AND $3
  AND y BETWEEN $4 AND $5
  AND (cardinality($6::text[]) = 0 OR node_type = ANY($6))
LIMIT $7
`

type GetPositionsInViewportParams struct {
	TenantID  int64
	MinX      float64
	MaxX      float64
	MinY      float64
	MaxY      float64
	NodeTypes []string
	Limit     int32
}

func (q *Queries) GetPositionsInViewport(ctx context.Context, arg GetPositionsInViewportParams) ([]NodePositionRow, error) {
	rows, err := q.db.Query(ctx, getPositionsInViewport,
		arg.TenantID, arg.MinX, arg.MaxX, arg.MinY, arg.MaxY, typesOrEmpty(arg.NodeTypes), arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPositions(rows)
}

// getPositionsWithinRadius narrows with the bounding box first so the btree
// index applies, then filters to the exact circle and orders by pgvector L2
// distance.
const getPositionsWithinRadius = `
SELECT ` + positionColumns + `
FROM node_positions
WHERE tenant_id = $1
  AND x BETWEEN $2 - $4 AND $2 + $4
  AND y BETWEEN $3 - $4 AND $3 + $4
  AND pos <-> $5 <= $4
  AND (cardinality($6::text[]) = 0 OR node_type = ANY($6))
ORDER BY pos <-> $5, entity_id
LIMIT $7
`

type GetPositionsWithinRadiusParams struct {
	TenantID  int64
	CenterX   float64
	CenterY   float64
	Radius    float64
	NodeTypes []string
	Limit     int32
}

func (q *Queries) GetPositionsWithinRadius(ctx context.Context, arg GetPositionsWithinRadiusParams) ([]NodePositionRow, error) {
	center := pgvector.NewVector([]float32{float32(arg.CenterX), float32(arg.CenterY)})
	rows, err := q.db.Query(ctx, getPositionsWithinRadius,
		arg.TenantID, arg.CenterX, arg.CenterY, arg.Radius, center, typesOrEmpty(arg.NodeTypes), arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPositions(rows)
}

// Equidistant candidates tie-break on lowest entity id.
const getNearestPosition = `
SELECT ` + positionColumns + `, pos <-> $2 AS distance
FROM node_positions
WHERE tenant_id = $1
  AND (cardinality($3::text[]) = 0 OR node_type = ANY($3))
ORDER BY pos <-> $2, entity_id
LIMIT 1
`

type GetNearestPositionParams struct {
	TenantID  int64
	X         float64
	Y         float64
	NodeTypes []string
}

type NearestPositionRow struct {
	NodePositionRow
	Distance float64
}

func (q *Queries) GetNearestPosition(ctx context.Context, arg GetNearestPositionParams) (NearestPositionRow, error) {
	point := pgvector.NewVector([]float32{float32(arg.X), float32(arg.Y)})
	row := q.db.QueryRow(ctx, getNearestPosition, arg.TenantID, point, typesOrEmpty(arg.NodeTypes))
	var n NearestPositionRow
	err := row.Scan(&n.TenantID, &n.NodeType, &n.EntityID, &n.Label, &n.X, &n.Y, &n.Distance)
	return n, err
}

const getTenantPositions = `
SELECT ` + positionColumns + `
FROM node_positions
WHERE tenant_id = $1
  AND (cardinality($2::text[]) = 0 OR node_type = ANY($2))
`

type GetTenantPositionsParams struct {
	TenantID  int64
	NodeTypes []string
}

func (q *Queries) GetTenantPositions(ctx context.Context, arg GetTenantPositionsParams) ([]NodePositionRow, error) {
	rows, err := q.db.Query(ctx, getTenantPositions, arg.TenantID, typesOrEmpty(arg.NodeTypes))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPositions(rows)
}

const hasVectorExtension = `
SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'vector')
`

// HasVectorExtension probes whether pgvector is installed, which decides the
// spatial backend at startup.
func (q *Queries) HasVectorExtension(ctx context.Context) (bool, error) {
	var available bool
	err := q.db.QueryRow(ctx, hasVectorExtension).Scan(&available)
	return available, err
}

type positionRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanPositions(rows positionRows) ([]NodePositionRow, error) {
	var positions []NodePositionRow
	for rows.Next() {
		var p NodePositionRow
		if err := rows.Scan(&p.TenantID, &p.NodeType, &p.EntityID, &p.Label, &p.X, &p.Y); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func typesOrEmpty(types []string) []string {
	if types == nil {
		return []string{}
	}
	return types
}
