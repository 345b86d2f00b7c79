package pgx

import "context"

const getGoalByID = `
SELECT g.id, g.tenant_id, g.name, g.status, g.parent_id, p.x, p.y
FROM goals g
LEFT JOIN node_positions p
  ON p.tenant_id = g.tenant_id AND p.node_type = 'GOAL' AND p.entity_id = g.id
WHERE g.tenant_id = $1 AND g.id = $2
`

const getGoalsByIDs = `
SELECT g.id, g.tenant_id, g.name, g.status, g.parent_id, p.x, p.y
FROM goals g
LEFT JOIN node_positions p
  ON p.tenant_id = g.tenant_id AND p.node_type = 'GOAL' AND p.entity_id = g.id
WHERE g.tenant_id = $1 AND g.id = ANY($2)
`

type GoalRow struct {
	ID       int64
	TenantID int64
	Name     string
	Status   string
	ParentID *int64
	X        *float64
	Y        *float64
}

type GetGoalByIDParams struct {
	TenantID int64
	ID       int64
}

func (q *Queries) GetGoalByID(ctx context.Context, arg GetGoalByIDParams) (GoalRow, error) {
	row := q.db.QueryRow(ctx, getGoalByID, arg.TenantID, arg.ID)
	var g GoalRow
	err := row.Scan(&g.ID, &g.TenantID, &g.Name, &g.Status, &g.ParentID, &g.X, &g.Y)
	return g, err
}

type GetGoalsByIDsParams struct {
	TenantID int64
	IDs      []int64
}

func (q *Queries) GetGoalsByIDs(ctx context.Context, arg GetGoalsByIDsParams) ([]GoalRow, error) {
	rows, err := q.db.Query(ctx, getGoalsByIDs, arg.TenantID, arg.IDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []GoalRow
	for rows.Next() {
		var g GoalRow
		if err := rows.Scan(&g.ID, &g.TenantID, &g.Name, &g.Status, &g.ParentID, &g.X, &g.Y); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}
