package mapgraph

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// EntityKind enumerates the underlying entity kinds the expansion engine
// traverses. It is a closed set; adding a kind requires a matching entry in
// the relation table in relations.go.
type EntityKind string

const (
	KindUser    EntityKind = "user"
	KindTeam    EntityKind = "team"
	KindProject EntityKind = "project"
	KindGoal    EntityKind = "goal"
)

// KindForNodeType maps an expandable node type to its entity kind.
func KindForNodeType(t NodeType) (EntityKind, bool) {
	switch t {
	case NodeTypeUser:
		return KindUser, true
	case NodeTypeTeam:
		return KindTeam, true
	case NodeTypeProject:
		return KindProject, true
	case NodeTypeGoal:
		return KindGoal, true
	default:
		return "", false
	}
}

// NodeTypeForKind is the inverse of KindForNodeType.
func NodeTypeForKind(k EntityKind) NodeType {
	switch k {
	case KindUser:
		return NodeTypeUser
	case KindTeam:
		return NodeTypeTeam
	case KindProject:
		return NodeTypeProject
	default:
		return NodeTypeGoal
	}
}

// EntityRef identifies one entity within a tenant.
type EntityRef struct {
	Kind EntityKind
	ID   int64
}

// NodeID derives the stable node identifier for the referenced entity.
func (r EntityRef) NodeID() string {
	return fmt.Sprintf("%s_%d", r.Kind, r.ID)
}

// Entity is the read model the expansion engine and view assembler work on.
// Relationship fields are pointers so a missing relationship is
// distinguishable from a reference to id 0.
type Entity struct {
	Kind     EntityKind
	ID       int64
	TenantID int64

	Name   string
	Email  string
	Title  string
	Status string

	AvatarKey string

	ManagerID    *int64
	TeamID       *int64
	LeadID       *int64
	OwningTeamID *int64
	GoalID       *int64
	ParentID     *int64

	DueDate *time.Time

	X *float64
	Y *float64
}

// Ref returns the entity's reference.
func (e Entity) Ref() EntityRef {
	return EntityRef{Kind: e.Kind, ID: e.ID}
}

// ErrNotFound is returned by EntityReader implementations when the requested
// entity does not exist or belongs to another tenant.
var ErrNotFound = errors.New("entity not found")

// EntityReader is the read-only contract the core has against the backing
// entity store. Implementations must scope every lookup to the given tenant
// and report missing entities with ErrNotFound (Get) or by omission
// (GetMulti).
type EntityReader interface {
	Get(ctx context.Context, tenantID int64, kind EntityKind, id int64) (Entity, error)
	GetMulti(ctx context.Context, tenantID int64, kind EntityKind, ids []int64) ([]Entity, error)

	TeamMemberIDs(ctx context.Context, tenantID int64, teamID int64) ([]int64, error)
	TeamProjectIDs(ctx context.Context, tenantID int64, teamID int64) ([]int64, error)
	UserProjectIDs(ctx context.Context, tenantID int64, userID int64) ([]int64, error)
}
