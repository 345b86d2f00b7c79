package pgx

import (
	"context"
	"time"
)

const getProjectByID = `
SELECT pr.id, pr.tenant_id, pr.name, pr.status, pr.owning_team_id, pr.goal_id, pr.due_date, p.x, p.y
FROM projects pr
LEFT JOIN node_positions p
  ON p.tenant_id = pr.tenant_id AND p.node_type = 'PROJECT' AND p.entity_id = pr.id
WHERE pr.tenant_id = $1 AND pr.id = $2
`

const getProjectsByIDs = `
SELECT pr.id, pr.tenant_id, pr.name, pr.status, pr.owning_team_id, pr.goal_id, pr.due_date, p.x, p.y
FROM projects pr
LEFT JOIN node_positions p
  ON p.tenant_id = pr.tenant_id AND p.node_type = 'PROJECT' AND p.entity_id = pr.id
WHERE pr.tenant_id = $1 AND pr.id = ANY($2)
`

type ProjectRow struct {
	ID           int64
	TenantID     int64
	Name         string
	Status       string
	OwningTeamID *int64
	GoalID       *int64
	DueDate      *time.Time
	X            *float64
	Y            *float64
}

type GetProjectByIDParams struct {
	TenantID int64
	ID       int64
}

func (q *Queries) GetProjectByID(ctx context.Context, arg GetProjectByIDParams) (ProjectRow, error) {
	row := q.db.QueryRow(ctx, getProjectByID, arg.TenantID, arg.ID)
	var p ProjectRow
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Status, &p.OwningTeamID, &p.GoalID, &p.DueDate, &p.X, &p.Y)
	return p, err
}

type GetProjectsByIDsParams struct {
	TenantID int64
	IDs      []int64
}

func (q *Queries) GetProjectsByIDs(ctx context.Context, arg GetProjectsByIDsParams) ([]ProjectRow, error) {
	rows, err := q.db.Query(ctx, getProjectsByIDs, arg.TenantID, arg.IDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []ProjectRow
	for rows.Next() {
		var p ProjectRow
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Status, &p.OwningTeamID, &p.GoalID, &p.DueDate, &p.X, &p.Y); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

const getUserProjectIDs = `
SELECT pp.project_id
FROM project_participants pp
JOIN projects pr ON pr.id = pp.project_id
WHERE pr.tenant_id = $1 AND pp.user_id = $2
`

type GetUserProjectIDsParams struct {
	TenantID int64
	UserID   int64
}

func (q *Queries) GetUserProjectIDs(ctx context.Context, arg GetUserProjectIDsParams) ([]int64, error) {
	rows, err := q.db.Query(ctx, getUserProjectIDs, arg.TenantID, arg.UserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
