package pgx

import "context"

const getTeamByID = `
SELECT t.id, t.tenant_id, t.name, t.lead_id, p.x, p.y
FROM teams t
LEFT JOIN node_positions p
  ON p.tenant_id = t.tenant_id AND p.node_type = 'TEAM' AND p.entity_id = t.id
WHERE t.tenant_id = $1 AND t.id = $2
`

const getTeamsByIDs = `
SELECT t.id, t.tenant_id, t.name, t.lead_id, p.x, p.y
FROM teams t
LEFT JOIN node_positions p
  ON p.tenant_id = t.tenant_id AND p.node_type = 'TEAM' AND p.entity_id = t.id
WHERE t.tenant_id = $1 AND t.id = ANY($2)
`

type TeamRow struct {
	ID       int64
	TenantID int64
	Name     string
	LeadID   *int64
	X        *float64
	Y        *float64
}

type GetTeamByIDParams struct {
	TenantID int64
	ID       int64
}

func (q *Queries) GetTeamByID(ctx context.Context, arg GetTeamByIDParams) (TeamRow, error) {
	row := q.db.QueryRow(ctx, getTeamByID, arg.TenantID, arg.ID)
	var t TeamRow
	err := row.Scan(&t.ID, &t.TenantID, &t.Name, &t.LeadID, &t.X, &t.Y)
	return t, err
}

type GetTeamsByIDsParams struct {
	TenantID int64
	IDs      []int64
}

func (q *Queries) GetTeamsByIDs(ctx context.Context, arg GetTeamsByIDsParams) ([]TeamRow, error) {
	rows, err := q.db.Query(ctx, getTeamsByIDs, arg.TenantID, arg.IDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []TeamRow
	for rows.Next() {
		var t TeamRow
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Name, &t.LeadID, &t.X, &t.Y); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

const getTeamProjectIDs = `
SELECT id FROM projects WHERE tenant_id = $1 AND owning_team_id = $2
`

type GetTeamProjectIDsParams struct {
	TenantID int64
	TeamID   int64
}

func (q *Queries) GetTeamProjectIDs(ctx context.Context, arg GetTeamProjectIDsParams) ([]int64, error) {
	rows, err := q.db.Query(ctx, getTeamProjectIDs, arg.TenantID, arg.TeamID)
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
