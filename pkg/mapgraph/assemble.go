package mapgraph

import (
	"fmt"
	"sort"
)

// DefaultClusterThreshold is the member count at which a team's individual
// member nodes collapse into one TEAM_CLUSTER node.
const DefaultClusterThreshold = 4

// Filters narrows the assembled view. Both filters are conjunctive: an
// entity is kept only when its type passes Types (when given) and its status
// passes Statuses (when given). Entity kinds without a status concept always
// pass the status filter.
type Filters struct {
	Types    []NodeType
	Statuses []string
}

// ClusterOptions controls team clustering. MinMembers <= 0 falls back to
// DefaultClusterThreshold.
type ClusterOptions struct {
	Enabled    bool
	MinMembers int
}

// NodeFromEntity converts one entity into its view node. Payload fields that
// are absent on the entity are omitted, never emitted as null.
func NodeFromEntity(entity Entity) Node {
	node := Node{
		ID:    entity.Ref().NodeID(),
		Type:  NodeTypeForKind(entity.Kind),
		Label: entity.Name,
		Data:  map[string]any{},
	}

	switch entity.Kind {
	case KindUser:
		if entity.Email != "" {
			node.Data["email"] = entity.Email
		}
		if entity.Title != "" {
			node.Data["title"] = entity.Title
		}
		if entity.AvatarKey != "" {
			node.Data["avatar_key"] = entity.AvatarKey
		}
		if entity.TeamID != nil {
			node.Data["team_id"] = EntityRef{Kind: KindTeam, ID: *entity.TeamID}.NodeID()
		}
	case KindTeam:
		if entity.LeadID != nil {
			node.Data["lead_id"] = EntityRef{Kind: KindUser, ID: *entity.LeadID}.NodeID()
		}
	case KindProject:
		if entity.Status != "" {
			node.Data["status"] = entity.Status
		}
		if entity.OwningTeamID != nil {
			node.Data["team_id"] = EntityRef{Kind: KindTeam, ID: *entity.OwningTeamID}.NodeID()
		}
		if entity.DueDate != nil {
			node.Data["due_date"] = entity.DueDate.Format("2006-01-02")
		}
	case KindGoal:
		if entity.Status != "" {
			node.Data["status"] = entity.Status
		}
	}

	if len(node.Data) == 0 {
		node.Data = nil
	}
	if entity.X != nil && entity.Y != nil {
		node.Position = &Position{X: *entity.X, Y: *entity.Y}
	}

	return node
}

// Assemble converts expanded entities and edges into the externally visible
// view. It applies the filters, collapses large teams into cluster nodes when
// requested, and guarantees that no emitted edge references a node missing
// from the result.
func Assemble(entities map[EntityRef]Entity, edges map[string]Edge, filters Filters, cluster ClusterOptions) *View {
	typeSet := make(map[NodeType]struct{}, len(filters.Types))
	for _, t := range filters.Types {
		typeSet[t] = struct{}{}
	}
	statusSet := make(map[string]struct{}, len(filters.Statuses))
	for _, s := range filters.Statuses {
		statusSet[s] = struct{}{}
	}

	kept := make(map[EntityRef]Entity, len(entities))
	for ref, entity := range entities {
		if len(typeSet) > 0 {
			if _, ok := typeSet[NodeTypeForKind(entity.Kind)]; !ok {
				continue
			}
		}
		if len(statusSet) > 0 && hasStatusConcept(entity.Kind) {
			if _, ok := statusSet[entity.Status]; !ok {
				continue
			}
		}
		kept[ref] = entity
	}

	nodes := make(map[string]Node, len(kept))
	for _, entity := range kept {
		node := NodeFromEntity(entity)
		nodes[node.ID] = node
	}

	// redirect maps a suppressed member node id to its cluster node id.
	redirect := make(map[string]string)
	if cluster.Enabled {
		threshold := cluster.MinMembers
		if threshold <= 0 {
			threshold = DefaultClusterThreshold
		}
		clusterTeams(kept, nodes, redirect, threshold)
	}

	view := &View{
		Nodes: make([]Node, 0, len(nodes)),
		Edges: make([]Edge, 0, len(edges)),
	}
	for _, node := range nodes {
		view.Nodes = append(view.Nodes, node)
	}

	emitted := make(map[string]struct{}, len(edges))
	for _, edge := range edges {
		source, target := edge.Source, edge.Target
		if to, ok := redirect[source]; ok {
			source = to
		}
		if to, ok := redirect[target]; ok {
			target = to
		}
		if source == target {
			continue
		}
		if _, ok := nodes[source]; !ok {
			continue
		}
		if _, ok := nodes[target]; !ok {
			continue
		}
		id := EdgeID(source, edge.Type, target)
		if _, ok := emitted[id]; ok {
			continue
		}
		emitted[id] = struct{}{}
		view.Edges = append(view.Edges, Edge{
			ID:     id,
			Source: source,
			Target: target,
			Type:   edge.Type,
			Data:   edge.Data,
		})
	}

	// Stable output is not part of the contract, but it keeps responses
	// diffable.
	sort.Slice(view.Nodes, func(i, j int) bool { return view.Nodes[i].ID < view.Nodes[j].ID })
	sort.Slice(view.Edges, func(i, j int) bool { return view.Edges[i].ID < view.Edges[j].ID })

	return view
}

// clusterTeams replaces the member nodes of every team meeting the threshold
// with one synthetic cluster node and records the edge redirects.
func clusterTeams(kept map[EntityRef]Entity, nodes map[string]Node, redirect map[string]string, threshold int) {
	membersByTeam := make(map[int64][]EntityRef)
	for ref, entity := range kept {
		if entity.Kind == KindUser && entity.TeamID != nil {
			membersByTeam[*entity.TeamID] = append(membersByTeam[*entity.TeamID], ref)
		}
	}

	for ref, entity := range kept {
		if entity.Kind != KindTeam {
			continue
		}
		members := membersByTeam[entity.ID]
		if len(members) < threshold {
			continue
		}

		teamNodeID := ref.NodeID()
		clusterID := teamNodeID + "_cluster"
		for _, member := range members {
			memberNodeID := member.NodeID()
			delete(nodes, memberNodeID)
			redirect[memberNodeID] = clusterID
		}
		nodes[clusterID] = Node{
			ID:    clusterID,
			Type:  NodeTypeTeamCluster,
			Label: fmt.Sprintf("%s members", entity.Name),
			Data: map[string]any{
				"team_id":     teamNodeID,
				"memberCount": len(members),
			},
		}
	}
}

func hasStatusConcept(kind EntityKind) bool {
	return kind == KindProject || kind == KindGoal
}
