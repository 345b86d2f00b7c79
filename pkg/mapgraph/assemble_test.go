package mapgraph

import (
	"reflect"
	"testing"
	"time"
)

func entityMap(entities ...Entity) map[EntityRef]Entity {
	out := make(map[EntityRef]Entity, len(entities))
	for _, e := range entities {
		out[e.Ref()] = e
	}
	return out
}

func edgeMap(edges ...Edge) map[string]Edge {
	out := make(map[string]Edge, len(edges))
	for _, e := range edges {
		e.ID = EdgeID(e.Source, e.Type, e.Target)
		out[e.ID] = e
	}
	return out
}

func nodeIDs(view *View) []string {
	ids := make([]string, 0, len(view.Nodes))
	for _, n := range view.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func viewEdgeIDs(view *View) []string {
	ids := make([]string, 0, len(view.Edges))
	for _, e := range view.Edges {
		ids = append(ids, e.ID)
	}
	return ids
}

func findNode(t *testing.T, view *View, id string) Node {
	t.Helper()
	for _, n := range view.Nodes {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("node %s not in view, have %v", id, nodeIDs(view))
	return Node{}
}

func TestAssemble_FiltersAreConjunctive(t *testing.T) {
	entities := entityMap(
		Entity{Kind: KindUser, ID: 1, TenantID: 1, Name: "Ada"},
		Entity{Kind: KindProject, ID: 1, TenantID: 1, Name: "Atlas", Status: "active"},
		Entity{Kind: KindProject, ID: 2, TenantID: 1, Name: "Borealis", Status: "planning"},
		Entity{Kind: KindGoal, ID: 1, TenantID: 1, Name: "Reliability", Status: "active"},
	)

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{
			name:    "no filters keeps everything",
			filters: Filters{},
			want:    []string{"goal_1", "project_1", "project_2", "user_1"},
		},
		{
			name:    "type filter alone",
			filters: Filters{Types: []NodeType{NodeTypeProject}},
			want:    []string{"project_1", "project_2"},
		},
		{
			name:    "status filter alone spares kinds without status",
			filters: Filters{Statuses: []string{"active"}},
			want:    []string{"goal_1", "project_1", "user_1"},
		},
		{
			name:    "type and status must both pass",
			filters: Filters{Types: []NodeType{NodeTypeProject}, Statuses: []string{"active"}},
			want:    []string{"project_1"},
		},
		{
			name:    "type filter excludes active goal",
			filters: Filters{Types: []NodeType{NodeTypeProject}, Statuses: []string{"active"}},
			want:    []string{"project_1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := Assemble(entities, nil, tt.filters, ClusterOptions{})
			got := nodeIDs(view)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected nodes %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAssemble_DropsEdgesWithFilteredEndpoints(t *testing.T) {
	entities := entityMap(
		Entity{Kind: KindProject, ID: 1, TenantID: 1, Name: "Atlas", Status: "active", GoalID: i64(1)},
		Entity{Kind: KindGoal, ID: 1, TenantID: 1, Name: "Reliability", Status: "done"},
	)
	edges := edgeMap(
		Edge{Source: "project_1", Target: "goal_1", Type: EdgeTypeAlignedTo},
	)

	view := Assemble(entities, edges, Filters{Statuses: []string{"active"}}, ClusterOptions{})

	if got := nodeIDs(view); !reflect.DeepEqual(got, []string{"project_1"}) {
		t.Fatalf("expected only project_1, got %v", got)
	}
	if len(view.Edges) != 0 {
		t.Fatalf("expected edge to the filtered goal to be dropped, got %v", viewEdgeIDs(view))
	}
}

func TestAssemble_ClusterBelowThreshold(t *testing.T) {
	entities := entityMap(
		Entity{Kind: KindTeam, ID: 1, TenantID: 1, Name: "Platform"},
		Entity{Kind: KindUser, ID: 1, TenantID: 1, Name: "A", TeamID: i64(1)},
		Entity{Kind: KindUser, ID: 2, TenantID: 1, Name: "B", TeamID: i64(1)},
		Entity{Kind: KindUser, ID: 3, TenantID: 1, Name: "C", TeamID: i64(1)},
	)

	view := Assemble(entities, nil, Filters{}, ClusterOptions{Enabled: true, MinMembers: 4})

	want := []string{"team_1", "user_1", "user_2", "user_3"}
	if got := nodeIDs(view); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected members kept below threshold, got %v", got)
	}
}

func TestAssemble_ClusterAtThreshold(t *testing.T) {
	entities := entityMap(
		Entity{Kind: KindTeam, ID: 1, TenantID: 1, Name: "Platform", LeadID: i64(1)},
		Entity{Kind: KindUser, ID: 1, TenantID: 1, Name: "A", TeamID: i64(1)},
		Entity{Kind: KindUser, ID: 2, TenantID: 1, Name: "B", TeamID: i64(1)},
		Entity{Kind: KindUser, ID: 3, TenantID: 1, Name: "C", TeamID: i64(1)},
		Entity{Kind: KindUser, ID: 4, TenantID: 1, Name: "D", TeamID: i64(1)},
		Entity{Kind: KindUser, ID: 5, TenantID: 1, Name: "E", TeamID: i64(1)},
	)
	edges := edgeMap(
		Edge{Source: "user_1", Target: "team_1", Type: EdgeTypeMemberOf},
		Edge{Source: "user_2", Target: "team_1", Type: EdgeTypeMemberOf},
		Edge{Source: "user_3", Target: "team_1", Type: EdgeTypeMemberOf},
		Edge{Source: "user_4", Target: "team_1", Type: EdgeTypeMemberOf},
		Edge{Source: "user_5", Target: "team_1", Type: EdgeTypeMemberOf},
		Edge{Source: "team_1", Target: "user_1", Type: EdgeTypeLeads},
	)

	view := Assemble(entities, edges, Filters{}, ClusterOptions{Enabled: true, MinMembers: 4})

	want := []string{"team_1", "team_1_cluster"}
	if got := nodeIDs(view); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected member nodes collapsed into a cluster, got %v", got)
	}

	clusterNode := findNode(t, view, "team_1_cluster")
	if clusterNode.Type != NodeTypeTeamCluster {
		t.Errorf("expected TEAM_CLUSTER node type, got %s", clusterNode.Type)
	}
	if clusterNode.Label != "Platform members" {
		t.Errorf("expected label 'Platform members', got %q", clusterNode.Label)
	}
	if got := clusterNode.Data["memberCount"]; got != 5 {
		t.Errorf("expected memberCount 5, got %v", got)
	}
	if got := clusterNode.Data["team_id"]; got != "team_1" {
		t.Errorf("expected team_id team_1, got %v", got)
	}

	// Five member edges collapse into one cluster edge; the lead edge is
	// redirected to the cluster too.
	wantEdges := []string{
		"team_1_LEADS_team_1_cluster",
		"team_1_cluster_MEMBER_OF_team_1",
	}
	if got := viewEdgeIDs(view); !reflect.DeepEqual(got, wantEdges) {
		t.Fatalf("expected redirected edges %v, got %v", wantEdges, got)
	}
}

func TestAssemble_ClusterIgnoresFilteredMembers(t *testing.T) {
	entities := entityMap(
		Entity{Kind: KindTeam, ID: 1, TenantID: 1, Name: "Platform"},
		Entity{Kind: KindUser, ID: 1, TenantID: 1, Name: "A", TeamID: i64(1)},
		Entity{Kind: KindUser, ID: 2, TenantID: 1, Name: "B", TeamID: i64(1)},
		Entity{Kind: KindUser, ID: 3, TenantID: 1, Name: "C", TeamID: i64(1)},
		Entity{Kind: KindUser, ID: 4, TenantID: 1, Name: "D", TeamID: i64(1)},
	)

	// The type filter removes every user before clustering runs, so no
	// cluster node appears.
	view := Assemble(entities, nil, Filters{Types: []NodeType{NodeTypeTeam}}, ClusterOptions{Enabled: true, MinMembers: 4})

	if got := nodeIDs(view); !reflect.DeepEqual(got, []string{"team_1"}) {
		t.Fatalf("expected only the team node, got %v", got)
	}
}

func TestAssemble_SelfLoopDropped(t *testing.T) {
	entities := entityMap(
		Entity{Kind: KindGoal, ID: 1, TenantID: 1, Name: "Loop", Status: "active"},
	)
	edges := edgeMap(
		Edge{Source: "goal_1", Target: "goal_1", Type: EdgeTypeParentOf},
	)

	view := Assemble(entities, edges, Filters{}, ClusterOptions{})
	if len(view.Edges) != 0 {
		t.Fatalf("expected self-loop dropped, got %v", viewEdgeIDs(view))
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	entities := entityMap(
		Entity{Kind: KindUser, ID: 2, TenantID: 1, Name: "B", TeamID: i64(1)},
		Entity{Kind: KindUser, ID: 1, TenantID: 1, Name: "A", TeamID: i64(1)},
		Entity{Kind: KindTeam, ID: 1, TenantID: 1, Name: "Platform"},
	)
	edges := edgeMap(
		Edge{Source: "user_1", Target: "team_1", Type: EdgeTypeMemberOf},
		Edge{Source: "user_2", Target: "team_1", Type: EdgeTypeMemberOf},
	)

	first := Assemble(entities, edges, Filters{}, ClusterOptions{})
	second := Assemble(entities, edges, Filters{}, ClusterOptions{})
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical views for identical input")
	}
}

func TestNodeFromEntity(t *testing.T) {
	due := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	x, y := 10.5, -3.0

	tests := []struct {
		name   string
		entity Entity
		want   Node
	}{
		{
			name:   "team without lead has no data",
			entity: Entity{Kind: KindTeam, ID: 1, Name: "Platform"},
			want:   Node{ID: "team_1", Type: NodeTypeTeam, Label: "Platform"},
		},
		{
			name: "user payload",
			entity: Entity{
				Kind: KindUser, ID: 7, Name: "Ada",
				Email: "ada@example.com", Title: "Engineer", TeamID: i64(1),
			},
			want: Node{
				ID: "user_7", Type: NodeTypeUser, Label: "Ada",
				Data: map[string]any{"email": "ada@example.com", "title": "Engineer", "team_id": "team_1"},
			},
		},
		{
			name: "project payload with due date and position",
			entity: Entity{
				Kind: KindProject, ID: 3, Name: "Atlas", Status: "active",
				OwningTeamID: i64(2), DueDate: &due, X: &x, Y: &y,
			},
			want: Node{
				ID: "project_3", Type: NodeTypeProject, Label: "Atlas",
				Data:     map[string]any{"status": "active", "team_id": "team_2", "due_date": "2026-09-30"},
				Position: &Position{X: 10.5, Y: -3.0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NodeFromEntity(tt.entity)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
