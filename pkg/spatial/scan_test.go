package spatial

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/orgmesh/backend/pkg/mapgraph"
)

type fakeSource struct {
	nodes []mapgraph.Node
	err   error
}

func (f *fakeSource) Positions(ctx context.Context, tenantID int64, nodeTypes []mapgraph.NodeType) ([]mapgraph.Node, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(nodeTypes) == 0 {
		return f.nodes, nil
	}
	var out []mapgraph.Node
	for _, node := range f.nodes {
		for _, t := range nodeTypes {
			if node.Type == t {
				out = append(out, node)
				break
			}
		}
	}
	return out, nil
}

func positioned(id string, nodeType mapgraph.NodeType, x, y float64) mapgraph.Node {
	return mapgraph.Node{ID: id, Type: nodeType, Label: id, Position: &mapgraph.Position{X: x, Y: y}}
}

func ids(nodes []mapgraph.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestScanRadius_BoundingBoxAndOrder(t *testing.T) {
	source := &fakeSource{nodes: []mapgraph.Node{
		positioned("user_1", mapgraph.NodeTypeUser, 1, 0),
		positioned("user_2", mapgraph.NodeTypeUser, 0, 5),
		// Inside the bounding box but outside the exact circle: the
		// scan path keeps it.
		positioned("user_3", mapgraph.NodeTypeUser, 9, 9),
		positioned("user_4", mapgraph.NodeTypeUser, 11, 0),
		{ID: "user_5", Type: mapgraph.NodeTypeUser, Label: "user_5"},
	}}
	backend := NewScanBackend(source)

	nodes, err := backend.QueryRadius(context.Background(), 1, 0, 0, 10, nil, 0)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	want := []string{"user_1", "user_2", "user_3"}
	got := ids(nodes)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected nearest-first order %v, got %v", want, got)
		}
	}
}

func TestScanRadius_Limit(t *testing.T) {
	source := &fakeSource{nodes: []mapgraph.Node{
		positioned("user_1", mapgraph.NodeTypeUser, 1, 0),
		positioned("user_2", mapgraph.NodeTypeUser, 2, 0),
		positioned("user_3", mapgraph.NodeTypeUser, 3, 0),
	}}
	backend := NewScanBackend(source)

	nodes, err := backend.QueryRadius(context.Background(), 1, 0, 0, 10, nil, 2)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got := ids(nodes); len(got) != 2 || got[0] != "user_1" || got[1] != "user_2" {
		t.Fatalf("expected the 2 nearest nodes, got %v", got)
	}
}

func TestScanViewport(t *testing.T) {
	source := &fakeSource{nodes: []mapgraph.Node{
		positioned("team_1", mapgraph.NodeTypeTeam, 5, 5),
		positioned("team_2", mapgraph.NodeTypeTeam, 10, 10),
		positioned("team_3", mapgraph.NodeTypeTeam, 15, 5),
		positioned("user_1", mapgraph.NodeTypeUser, 6, 6),
	}}
	backend := NewScanBackend(source)

	nodes, err := backend.QueryViewport(context.Background(), 1, 0, 0, 10, 10, []mapgraph.NodeType{mapgraph.NodeTypeTeam}, 0)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	got := ids(nodes)
	if len(got) != 2 {
		t.Fatalf("expected boundary-inclusive viewport match, got %v", got)
	}
	for _, id := range got {
		if id != "team_1" && id != "team_2" {
			t.Fatalf("unexpected node %s in viewport result %v", id, got)
		}
	}
}

func TestScanNearest_TieBreaksOnLowestID(t *testing.T) {
	source := &fakeSource{nodes: []mapgraph.Node{
		positioned("user_2", mapgraph.NodeTypeUser, 3, 0),
		positioned("user_1", mapgraph.NodeTypeUser, -3, 0),
		positioned("user_3", mapgraph.NodeTypeUser, 8, 0),
	}}
	backend := NewScanBackend(source)

	node, dist, err := backend.Nearest(context.Background(), 1, 0, 0, nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if node == nil {
		t.Fatal("expected a nearest node")
	}
	if node.ID != "user_1" {
		t.Errorf("expected equidistant tie to resolve to user_1, got %s", node.ID)
	}
	if math.Abs(dist-3) > 1e-9 {
		t.Errorf("expected distance 3, got %f", dist)
	}
}

func TestScanNearest_NoPositionedNodes(t *testing.T) {
	backend := NewScanBackend(&fakeSource{})

	node, _, err := backend.Nearest(context.Background(), 1, 0, 0, nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if node != nil {
		t.Fatalf("expected nil node for empty tenant, got %v", node)
	}
}

func TestScanNearest_TypeFilter(t *testing.T) {
	source := &fakeSource{nodes: []mapgraph.Node{
		positioned("user_1", mapgraph.NodeTypeUser, 1, 0),
		positioned("team_1", mapgraph.NodeTypeTeam, 5, 0),
	}}
	backend := NewScanBackend(source)

	teamType := mapgraph.NodeTypeTeam
	node, _, err := backend.Nearest(context.Background(), 1, 0, 0, &teamType)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if node == nil || node.ID != "team_1" {
		t.Fatalf("expected team_1 under type filter, got %v", node)
	}
}

// failingBackend errors on every operation so Index must fall back.
type failingBackend struct{}

func (failingBackend) QueryRadius(ctx context.Context, tenantID int64, centerX, centerY, radius float64, nodeTypes []mapgraph.NodeType, limit int) ([]mapgraph.Node, error) {
	return nil, errors.New("index unavailable")
}

func (failingBackend) QueryViewport(ctx context.Context, tenantID int64, minX, minY, maxX, maxY float64, nodeTypes []mapgraph.NodeType, limit int) ([]mapgraph.Node, error) {
	return nil, errors.New("index unavailable")
}

func (failingBackend) Nearest(ctx context.Context, tenantID int64, x, y float64, nodeType *mapgraph.NodeType) (*mapgraph.Node, float64, error) {
	return nil, 0, errors.New("index unavailable")
}

func TestIndex_FallsBackOnPrimaryError(t *testing.T) {
	source := &fakeSource{nodes: []mapgraph.Node{
		positioned("user_1", mapgraph.NodeTypeUser, 1, 1),
	}}
	index := NewIndex(failingBackend{}, NewScanBackend(source))

	nodes, err := index.QueryViewport(context.Background(), 1, 0, 0, 10, 10, nil, 0)
	if err != nil {
		t.Fatalf("expected fallback to absorb the primary failure, got %v", err)
	}
	if len(nodes) != 1 || nodes[0].ID != "user_1" {
		t.Fatalf("expected fallback result, got %v", ids(nodes))
	}
}

func TestIndex_NilPrimaryServesFallback(t *testing.T) {
	source := &fakeSource{nodes: []mapgraph.Node{
		positioned("user_1", mapgraph.NodeTypeUser, 0, 0),
	}}
	index := NewIndex(nil, NewScanBackend(source))

	node, _, err := index.Nearest(context.Background(), 1, 5, 5, nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if node == nil || node.ID != "user_1" {
		t.Fatalf("expected user_1, got %v", node)
	}
}
