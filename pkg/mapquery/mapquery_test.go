package mapquery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/orgmesh/backend/pkg/mapgraph"
)

type fakeRepo struct {
	entities     map[mapgraph.EntityRef]mapgraph.Entity
	teamMembers  map[int64][]int64
	teamProjects map[int64][]int64
	userProjects map[int64][]int64
	delay        time.Duration
}

func (f *fakeRepo) Get(ctx context.Context, tenantID int64, kind mapgraph.EntityKind, id int64) (mapgraph.Entity, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return mapgraph.Entity{}, ctx.Err()
		}
	}
	entity, ok := f.entities[mapgraph.EntityRef{Kind: kind, ID: id}]
	if !ok || entity.TenantID != tenantID {
		return mapgraph.Entity{}, mapgraph.ErrNotFound
	}
	return entity, nil
}

func (f *fakeRepo) GetMulti(ctx context.Context, tenantID int64, kind mapgraph.EntityKind, ids []int64) ([]mapgraph.Entity, error) {
	var out []mapgraph.Entity
	for _, id := range ids {
		entity, err := f.Get(ctx, tenantID, kind, id)
		if errors.Is(err, mapgraph.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

func (f *fakeRepo) TeamMemberIDs(ctx context.Context, tenantID int64, teamID int64) ([]int64, error) {
	return f.teamMembers[teamID], nil
}

func (f *fakeRepo) TeamProjectIDs(ctx context.Context, tenantID int64, teamID int64) ([]int64, error) {
	return f.teamProjects[teamID], nil
}

func (f *fakeRepo) UserProjectIDs(ctx context.Context, tenantID int64, userID int64) ([]int64, error) {
	return f.userProjects[userID], nil
}

// fakeSpatial records which query form the service dispatched.
type fakeSpatial struct {
	radiusCalls   int
	viewportCalls int
	nodes         []mapgraph.Node
}

func (f *fakeSpatial) QueryRadius(ctx context.Context, tenantID int64, centerX, centerY, radius float64, nodeTypes []mapgraph.NodeType, limit int) ([]mapgraph.Node, error) {
	f.radiusCalls++
	return f.nodes, nil
}

func (f *fakeSpatial) QueryViewport(ctx context.Context, tenantID int64, minX, minY, maxX, maxY float64, nodeTypes []mapgraph.NodeType, limit int) ([]mapgraph.Node, error) {
	f.viewportCalls++
	return f.nodes, nil
}

func (f *fakeSpatial) Nearest(ctx context.Context, tenantID int64, x, y float64, nodeType *mapgraph.NodeType) (*mapgraph.Node, float64, error) {
	if len(f.nodes) == 0 {
		return nil, 0, nil
	}
	return &f.nodes[0], 1.5, nil
}

type fakeAvatars struct {
	err error
}

func (f *fakeAvatars) DownloadURL(ctx context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/" + key, nil
}

func i64(v int64) *int64 { return &v }

func orgRepo() *fakeRepo {
	entities := map[mapgraph.EntityRef]mapgraph.Entity{
		{Kind: mapgraph.KindUser, ID: 1}: {Kind: mapgraph.KindUser, ID: 1, TenantID: 1, Name: "Ada", AvatarKey: "avatars/ada.png", ManagerID: i64(2), TeamID: i64(1)},
		{Kind: mapgraph.KindUser, ID: 2}: {Kind: mapgraph.KindUser, ID: 2, TenantID: 1, Name: "Grace", TeamID: i64(1)},
		{Kind: mapgraph.KindTeam, ID: 1}: {Kind: mapgraph.KindTeam, ID: 1, TenantID: 1, Name: "Platform"},
	}
	return &fakeRepo{
		entities:    entities,
		teamMembers: map[int64][]int64{1: {1, 2}},
	}
}

func newTestService(repo *fakeRepo, sp *fakeSpatial, avatars AvatarResolver) *Service {
	return NewService(NewServiceParams{
		Repo:     repo,
		Spatial:  sp,
		Avatars:  avatars,
		CacheTTL: time.Minute,
	})
}

func TestDefaultView(t *testing.T) {
	service := newTestService(orgRepo(), &fakeSpatial{}, nil)

	view, err := service.DefaultView(context.Background(), 1, 1, ViewOptions{})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	// Depth 1 from user 1 reaches the manager and the team.
	if len(view.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(view.Nodes))
	}
	if len(view.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(view.Edges))
	}
}

func TestCenteredView_NotFound(t *testing.T) {
	service := newTestService(orgRepo(), &fakeSpatial{}, nil)

	_, err := service.CenteredView(context.Background(), 1, mapgraph.EntityRef{Kind: mapgraph.KindUser, ID: 42}, 1, ViewOptions{})
	if !errors.Is(err, mapgraph.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCenteredView_Timeout(t *testing.T) {
	repo := orgRepo()
	repo.delay = 200 * time.Millisecond
	service := NewService(NewServiceParams{
		Repo:          repo,
		ExpandTimeout: 20 * time.Millisecond,
	})

	_, err := service.CenteredView(context.Background(), 1, mapgraph.EntityRef{Kind: mapgraph.KindUser, ID: 1}, 2, ViewOptions{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestCenteredView_ResolvesAvatars(t *testing.T) {
	service := newTestService(orgRepo(), &fakeSpatial{}, &fakeAvatars{})

	view, err := service.CenteredView(context.Background(), 1, mapgraph.EntityRef{Kind: mapgraph.KindUser, ID: 1}, 0, ViewOptions{})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(view.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(view.Nodes))
	}

	data := view.Nodes[0].Data
	if _, ok := data["avatar_key"]; ok {
		t.Error("expected avatar_key to be stripped")
	}
	if got := data["avatar"]; got != "https://cdn.example.com/avatars/ada.png" {
		t.Errorf("unexpected avatar url %v", got)
	}
}

func TestCenteredView_AvatarFailureDropsAvatar(t *testing.T) {
	service := newTestService(orgRepo(), &fakeSpatial{}, &fakeAvatars{err: errors.New("s3 down")})

	view, err := service.CenteredView(context.Background(), 1, mapgraph.EntityRef{Kind: mapgraph.KindUser, ID: 1}, 0, ViewOptions{})
	if err != nil {
		t.Fatalf("expected avatar failure to be absorbed, got %v", err)
	}

	data := view.Nodes[0].Data
	if _, ok := data["avatar"]; ok {
		t.Error("expected no avatar on resolution failure")
	}
	if _, ok := data["avatar_key"]; ok {
		t.Error("expected avatar_key to be stripped even on failure")
	}
}

func TestSpatialView_DispatchesRadiusOrViewport(t *testing.T) {
	sp := &fakeSpatial{nodes: []mapgraph.Node{{ID: "user_1", Type: mapgraph.NodeTypeUser}}}
	service := newTestService(orgRepo(), sp, nil)

	if _, err := service.SpatialView(context.Background(), 1, SpatialQuery{Radius: true, CenterX: 1, CenterY: 2, Range: 10}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if sp.radiusCalls != 1 || sp.viewportCalls != 0 {
		t.Fatalf("expected radius dispatch, got radius=%d viewport=%d", sp.radiusCalls, sp.viewportCalls)
	}

	if _, err := service.SpatialView(context.Background(), 1, SpatialQuery{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if sp.viewportCalls != 1 {
		t.Fatalf("expected viewport dispatch, got %d", sp.viewportCalls)
	}
}

func TestSpatialView_EmptyResultIsNotNull(t *testing.T) {
	service := newTestService(orgRepo(), &fakeSpatial{}, nil)

	view, err := service.SpatialView(context.Background(), 1, SpatialQuery{MaxX: 1, MaxY: 1})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if view.Nodes == nil || view.Edges == nil {
		t.Fatal("expected empty slices, not nil")
	}
	if len(view.Edges) != 0 {
		t.Fatalf("expected spatial view without edges, got %d", len(view.Edges))
	}
}

func TestNode_UnexpandableTypeNotFound(t *testing.T) {
	service := newTestService(orgRepo(), &fakeSpatial{}, nil)

	_, err := service.Node(context.Background(), 1, mapgraph.NodeTypeTeamCluster, 1)
	if !errors.Is(err, mapgraph.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-entity type, got %v", err)
	}
}

func TestNode_ReturnsEntityNode(t *testing.T) {
	service := newTestService(orgRepo(), &fakeSpatial{}, nil)

	node, err := service.Node(context.Background(), 1, mapgraph.NodeTypeTeam, 1)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if node.ID != "team_1" || node.Label != "Platform" {
		t.Fatalf("unexpected node %+v", node)
	}
}

func TestPaginate(t *testing.T) {
	makeView := func() *mapgraph.View {
		return &mapgraph.View{
			Nodes: []mapgraph.Node{
				{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"},
			},
			Edges: []mapgraph.Edge{
				{ID: "a_X_b", Source: "a", Target: "b"},
				{ID: "c_X_d", Source: "c", Target: "d"},
				{ID: "b_X_c", Source: "b", Target: "c"},
			},
		}
	}

	tests := []struct {
		name      string
		limit     int
		page      int
		wantNodes []string
		wantEdges []string
	}{
		{
			name:      "no limit leaves view untouched",
			limit:     0,
			wantNodes: []string{"a", "b", "c", "d", "e"},
			wantEdges: []string{"a_X_b", "c_X_d", "b_X_c"},
		},
		{
			name:      "first page keeps intra-page edges",
			limit:     2,
			page:      1,
			wantNodes: []string{"a", "b"},
			wantEdges: []string{"a_X_b"},
		},
		{
			name:      "second page",
			limit:     2,
			page:      2,
			wantNodes: []string{"c", "d"},
			wantEdges: []string{"c_X_d"},
		},
		{
			name:      "short last page",
			limit:     2,
			page:      3,
			wantNodes: []string{"e"},
			wantEdges: []string{},
		},
		{
			name:      "page beyond the end is empty",
			limit:     2,
			page:      9,
			wantNodes: []string{},
			wantEdges: []string{},
		},
		{
			name:      "page zero treated as first",
			limit:     3,
			page:      0,
			wantNodes: []string{"a", "b", "c"},
			wantEdges: []string{"a_X_b", "b_X_c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := makeView()
			paginate(view, tt.limit, tt.page)

			if len(view.Nodes) != len(tt.wantNodes) {
				t.Fatalf("expected nodes %v, got %d nodes", tt.wantNodes, len(view.Nodes))
			}
			for i, want := range tt.wantNodes {
				if view.Nodes[i].ID != want {
					t.Errorf("node %d: expected %s, got %s", i, want, view.Nodes[i].ID)
				}
			}
			if len(view.Edges) != len(tt.wantEdges) {
				t.Fatalf("expected edges %v, got %d edges", tt.wantEdges, len(view.Edges))
			}
			for i, want := range tt.wantEdges {
				if view.Edges[i].ID != want {
					t.Errorf("edge %d: expected %s, got %s", i, want, view.Edges[i].ID)
				}
			}
		})
	}
}
