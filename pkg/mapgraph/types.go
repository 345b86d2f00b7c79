package mapgraph

import (
	"fmt"
	"strings"
)

// NodeType identifies the kind of entity a map node represents.
type NodeType string

const (
	NodeTypeUser           NodeType = "USER"
	NodeTypeTeam           NodeType = "TEAM"
	NodeTypeProject        NodeType = "PROJECT"
	NodeTypeGoal           NodeType = "GOAL"
	NodeTypeDepartment     NodeType = "DEPARTMENT"
	NodeTypeKnowledgeAsset NodeType = "KNOWLEDGE_ASSET"
	NodeTypeTeamCluster    NodeType = "TEAM_CLUSTER"
)

var nodeTypes = map[NodeType]struct{}{
	NodeTypeUser:           {},
	NodeTypeTeam:           {},
	NodeTypeProject:        {},
	NodeTypeGoal:           {},
	NodeTypeDepartment:     {},
	NodeTypeKnowledgeAsset: {},
	NodeTypeTeamCluster:    {},
}

// UnsupportedTypeError reports a type token outside the known node type enum.
// The offending value is preserved so it can be named in error responses.
type UnsupportedTypeError struct {
	Value string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported node type: %s", e.Value)
}

// ParseNodeType converts a request token into a NodeType. Matching is
// case-insensitive.
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := nodeTypes[t]; !ok {
		return "", &UnsupportedTypeError{Value: s}
	}
	return t, nil
}

// EdgeType identifies the relationship a map edge represents.
type EdgeType string

const (
	EdgeTypeReportsTo      EdgeType = "REPORTS_TO"
	EdgeTypeMemberOf       EdgeType = "MEMBER_OF"
	EdgeTypeLeads          EdgeType = "LEADS"
	EdgeTypeOwns           EdgeType = "OWNS"
	EdgeTypeParticipatesIn EdgeType = "PARTICIPATES_IN"
	EdgeTypeAlignedTo      EdgeType = "ALIGNED_TO"
	EdgeTypeParentOf       EdgeType = "PARENT_OF"
)

// Position is an optional layout hint for nodes that carry spatial
// coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is the assembled view representation of one underlying entity.
// Data holds entity-specific attributes; absent attributes are omitted from
// the payload rather than emitted as null.
type Node struct {
	ID       string         `json:"id"`
	Type     NodeType       `json:"type"`
	Label    string         `json:"label"`
	Data     map[string]any `json:"data,omitempty"`
	Position *Position      `json:"position,omitempty"`
}

// Edge is a directed, typed relationship between two nodes of the same view.
type Edge struct {
	ID     string         `json:"id"`
	Source string         `json:"source"`
	Target string         `json:"target"`
	Type   EdgeType       `json:"type"`
	Data   map[string]any `json:"data,omitempty"`
}

// EdgeID builds the deterministic identifier for an edge.
func EdgeID(source string, edgeType EdgeType, target string) string {
	return fmt.Sprintf("%s_%s_%s", source, edgeType, target)
}

// View is the externally visible node/edge representation returned by map
// queries. Callers must treat both slices as unordered collections.
type View struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
