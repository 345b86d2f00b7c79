package pgx

import "context"

const getUserByID = `
SELECT u.id, u.tenant_id, u.name, u.email, u.title, u.avatar_key, u.manager_id, u.team_id, p.x, p.y
FROM users u
LEFT JOIN node_positions p
  ON p.tenant_id = u.tenant_id AND p.node_type = 'USER' AND p.entity_id = u.id
WHERE u.tenant_id = $1 AND u.id = $2
`

const getUsersByIDs = `
SELECT u.id, u.tenant_id, u.name, u.email, u.title, u.avatar_key, u.manager_id, u.team_id, p.x, p.y
FROM users u
LEFT JOIN node_positions p
  ON p.tenant_id = u.tenant_id AND p.node_type = 'USER' AND p.entity_id = u.id
WHERE u.tenant_id = $1 AND u.id = ANY($2)
`

type UserRow struct {
	ID        int64
	TenantID  int64
	Name      string
	Email     *string
	Title     *string
	AvatarKey *string
	ManagerID *int64
	TeamID    *int64
	X         *float64
	Y         *float64
}

type GetUserByIDParams struct {
	TenantID int64
	ID       int64
}

func (q *Queries) GetUserByID(ctx context.Context, arg GetUserByIDParams) (UserRow, error) {
	row := q.db.QueryRow(ctx, getUserByID, arg.TenantID, arg.ID)
	var u UserRow
	err := row.Scan(&u.ID, &u.TenantID, &u.Name, &u.Email, &u.Title, &u.AvatarKey, &u.ManagerID, &u.TeamID, &u.X, &u.Y)
	return u, err
}

type GetUsersByIDsParams struct {
	TenantID int64
	IDs      []int64
}

func (q *Queries) GetUsersByIDs(ctx context.Context, arg GetUsersByIDsParams) ([]UserRow, error) {
	rows, err := q.db.Query(ctx, getUsersByIDs, arg.TenantID, arg.IDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserRow
	for rows.Next() {
		var u UserRow
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Name, &u.Email, &u.Title, &u.AvatarKey, &u.ManagerID, &u.TeamID, &u.X, &u.Y); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const getTeamMemberIDs = `
SELECT id FROM users WHERE tenant_id = $1 AND team_id = $2
`

type GetTeamMemberIDsParams struct {
	TenantID int64
	TeamID   int64
}

func (q *Queries) GetTeamMemberIDs(ctx context.Context, arg GetTeamMemberIDsParams) ([]int64, error) {
	rows, err := q.db.Query(ctx, getTeamMemberIDs, arg.TenantID, arg.TeamID)
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
