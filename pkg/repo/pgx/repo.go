// Package pgx implements the entity read facade on PostgreSQL.
package pgx

import (
	"context"
	"errors"
	"fmt"

	pgdb "github.com/orgmesh/backend/pkg/db/pgx"
	"github.com/orgmesh/backend/pkg/mapgraph"

	"github.com/jackc/pgx/v5"
)

// EntityRepo reads users, teams, projects and goals for the expansion engine.
// It is read-only; every lookup is tenant-scoped.
type EntityRepo struct {
	queries *pgdb.Queries
}

func NewEntityRepo(db pgdb.DBTX) *EntityRepo {
	return &EntityRepo{queries: pgdb.New(db)}
}

// Get resolves one entity. Missing or cross-tenant ids return
// mapgraph.ErrNotFound; kinds outside the closed set are an explicit error,
// never a crash.
func (r *EntityRepo) Get(ctx context.Context, tenantID int64, kind mapgraph.EntityKind, id int64) (mapgraph.Entity, error) {
	var (
		entity mapgraph.Entity
		err    error
	)

	switch kind {
	case mapgraph.KindUser:
		var row pgdb.UserRow
		row, err = r.queries.GetUserByID(ctx, pgdb.GetUserByIDParams{TenantID: tenantID, ID: id})
		entity = userEntity(row)
	case mapgraph.KindTeam:
		var row pgdb.TeamRow
		row, err = r.queries.GetTeamByID(ctx, pgdb.GetTeamByIDParams{TenantID: tenantID, ID: id})
		entity = teamEntity(row)
	case mapgraph.KindProject:
		var row pgdb.ProjectRow
		row, err = r.queries.GetProjectByID(ctx, pgdb.GetProjectByIDParams{TenantID: tenantID, ID: id})
		entity = projectEntity(row)
	case mapgraph.KindGoal:
		var row pgdb.GoalRow
		row, err = r.queries.GetGoalByID(ctx, pgdb.GetGoalByIDParams{TenantID: tenantID, ID: id})
		entity = goalEntity(row)
	default:
		return mapgraph.Entity{}, fmt.Errorf("unsupported entity kind: %s", kind)
	}

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mapgraph.Entity{}, mapgraph.ErrNotFound
		}
		return mapgraph.Entity{}, err
	}
	return entity, nil
}

// GetMulti resolves a batch of ids of one kind. Ids that do not resolve are
// omitted from the result rather than reported.
func (r *EntityRepo) GetMulti(ctx context.Context, tenantID int64, kind mapgraph.EntityKind, ids []int64) ([]mapgraph.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	entities := make([]mapgraph.Entity, 0, len(ids))
	switch kind {
	case mapgraph.KindUser:
		rows, err := r.queries.GetUsersByIDs(ctx, pgdb.GetUsersByIDsParams{TenantID: tenantID, IDs: ids})
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			entities = append(entities, userEntity(row))
		}
	case mapgraph.KindTeam:
		rows, err := r.queries.GetTeamsByIDs(ctx, pgdb.GetTeamsByIDsParams{TenantID: tenantID, IDs: ids})
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			entities = append(entities, teamEntity(row))
		}
	case mapgraph.KindProject:
		rows, err := r.queries.GetProjectsByIDs(ctx, pgdb.GetProjectsByIDsParams{TenantID: tenantID, IDs: ids})
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			entities = append(entities, projectEntity(row))
		}
	case mapgraph.KindGoal:
		rows, err := r.queries.GetGoalsByIDs(ctx, pgdb.GetGoalsByIDsParams{TenantID: tenantID, IDs: ids})
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			entities = append(entities, goalEntity(row))
		}
	default:
		return nil, fmt.Errorf("unsupported entity kind: %s", kind)
	}

	return entities, nil
}

func (r *EntityRepo) TeamMemberIDs(ctx context.Context, tenantID int64, teamID int64) ([]int64, error) {
	return r.queries.GetTeamMemberIDs(ctx, pgdb.GetTeamMemberIDsParams{TenantID: tenantID, TeamID: teamID})
}

func (r *EntityRepo) TeamProjectIDs(ctx context.Context, tenantID int64, teamID int64) ([]int64, error) {
	return r.queries.GetTeamProjectIDs(ctx, pgdb.GetTeamProjectIDsParams{TenantID: tenantID, TeamID: teamID})
}

func (r *EntityRepo) UserProjectIDs(ctx context.Context, tenantID int64, userID int64) ([]int64, error) {
	return r.queries.GetUserProjectIDs(ctx, pgdb.GetUserProjectIDsParams{TenantID: tenantID, UserID: userID})
}

func userEntity(row pgdb.UserRow) mapgraph.Entity {
	return mapgraph.Entity{
		Kind:      mapgraph.KindUser,
		ID:        row.ID,
		TenantID:  row.TenantID,
		Name:      row.Name,
		Email:     deref(row.Email),
		Title:     deref(row.Title),
		AvatarKey: deref(row.AvatarKey),
		ManagerID: row.ManagerID,
		TeamID:    row.TeamID,
		X:         row.X,
		Y:         row.Y,
	}
}

func teamEntity(row pgdb.TeamRow) mapgraph.Entity {
	return mapgraph.Entity{
		Kind:     mapgraph.KindTeam,
		ID:       row.ID,
		TenantID: row.TenantID,
		Name:     row.Name,
		LeadID:   row.LeadID,
		X:        row.X,
		Y:        row.Y,
	}
}

func projectEntity(row pgdb.ProjectRow) mapgraph.Entity {
	return mapgraph.Entity{
		Kind:         mapgraph.KindProject,
		ID:           row.ID,
		TenantID:     row.TenantID,
		Name:         row.Name,
		Status:       row.Status,
		OwningTeamID: row.OwningTeamID,
		GoalID:       row.GoalID,
		DueDate:      row.DueDate,
		X:            row.X,
		Y:            row.Y,
	}
}

func goalEntity(row pgdb.GoalRow) mapgraph.Entity {
	return mapgraph.Entity{
		Kind:     mapgraph.KindGoal,
		ID:       row.ID,
		TenantID: row.TenantID,
		Name:     row.Name,
		Status:   row.Status,
		ParentID: row.ParentID,
		X:        row.X,
		Y:        row.Y,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
