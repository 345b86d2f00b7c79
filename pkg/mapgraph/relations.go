package mapgraph

// relationDirection says which endpoint of a traversed relationship is the
// edge source. Some relationships are discovered from the far end (a team
// enumerates its members, but the canonical edge points user -> team).
type relationDirection int

const (
	// directionOut: edge source is the expanded entity.
	directionOut relationDirection = iota
	// directionIn: edge source is the neighbor.
	directionIn
)

// relation describes one canonical relationship of an entity kind. Tag is the
// key the neighbor set is partitioned by in the cache.
type relation struct {
	Tag       string
	Neighbor  EntityKind
	Edge      EdgeType
	Direction relationDirection
}

// relationsByKind is the canonical relationship table for the four
// expandable entity kinds.
var relationsByKind = map[EntityKind][]relation{
	KindUser: {
		{Tag: "manager", Neighbor: KindUser, Edge: EdgeTypeReportsTo, Direction: directionOut},
		{Tag: "team", Neighbor: KindTeam, Edge: EdgeTypeMemberOf, Direction: directionOut},
		{Tag: "projects", Neighbor: KindProject, Edge: EdgeTypeParticipatesIn, Direction: directionOut},
	},
	KindTeam: {
		{Tag: "lead", Neighbor: KindUser, Edge: EdgeTypeLeads, Direction: directionOut},
		{Tag: "members", Neighbor: KindUser, Edge: EdgeTypeMemberOf, Direction: directionIn},
		{Tag: "projects", Neighbor: KindProject, Edge: EdgeTypeOwns, Direction: directionOut},
	},
	KindProject: {
		{Tag: "team", Neighbor: KindTeam, Edge: EdgeTypeOwns, Direction: directionIn},
		{Tag: "goal", Neighbor: KindGoal, Edge: EdgeTypeAlignedTo, Direction: directionOut},
	},
	KindGoal: {
		{Tag: "parent", Neighbor: KindGoal, Edge: EdgeTypeParentOf, Direction: directionOut},
	},
}
