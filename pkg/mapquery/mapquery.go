// Package mapquery is the entry point for living-map reads. It picks between
// the default view, centered expansion view and spatial view, and returns
// assembled node/edge graphs.
package mapquery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/orgmesh/backend/pkg/logger"
	"github.com/orgmesh/backend/pkg/mapgraph"
	"github.com/orgmesh/backend/pkg/spatial"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultDepth is the expansion depth of the default (uncentered) view.
const DefaultDepth = 1

// AvatarResolver turns a stored avatar object key into a fetchable URL.
// Resolution is best-effort; failures drop the avatar, never the request.
type AvatarResolver interface {
	DownloadURL(ctx context.Context, key string) (string, error)
}

// Service owns the read path composition: entity reader, neighbor cache,
// expansion engine and spatial backend. It is stateless per request and safe
// for concurrent use.
type Service struct {
	repo          mapgraph.EntityReader
	expander      *mapgraph.Expander
	spatial       spatial.Backend
	avatars       AvatarResolver
	expandTimeout time.Duration
	clusterMin    int
}

// NewServiceParams configures a Service.
type NewServiceParams struct {
	Repo    mapgraph.EntityReader
	Cache   mapgraph.NeighborCache
	Spatial spatial.Backend
	// Avatars is optional; nil disables avatar URL resolution.
	Avatars AvatarResolver

	// CacheTTL is the neighbor cache entry lifetime.
	CacheTTL time.Duration
	// ExpandTimeout bounds one expansion; zero disables the deadline.
	ExpandTimeout time.Duration
	// MaxParallel bounds concurrent neighbor lookups per BFS level.
	MaxParallel int
	// ClusterMinMembers is the team clustering threshold; zero uses the
	// default.
	ClusterMinMembers int
}

func NewService(params NewServiceParams) *Service {
	return &Service{
		repo: params.Repo,
		expander: mapgraph.NewExpander(mapgraph.NewExpanderParams{
			Repo:        params.Repo,
			Cache:       params.Cache,
			TTL:         params.CacheTTL,
			MaxParallel: params.MaxParallel,
		}),
		spatial:       params.Spatial,
		avatars:       params.Avatars,
		expandTimeout: params.ExpandTimeout,
		clusterMin:    params.ClusterMinMembers,
	}
}

// ViewOptions are the caller-supplied filters and pagination of the
// default/centered views.
type ViewOptions struct {
	Types        []mapgraph.NodeType
	Statuses     []string
	ClusterTeams bool
	// Limit/Page paginate the assembled node set. Limit <= 0 disables
	// pagination; Page is 1-based.
	Limit int
	Page  int
}

// SpatialQuery describes one spatial view request. Radius true selects the
// radius form, otherwise the viewport rectangle applies.
type SpatialQuery struct {
	Radius  bool
	CenterX float64
	CenterY float64
	Range   float64

	MinX float64
	MinY float64
	MaxX float64
	MaxY float64

	Types []mapgraph.NodeType
	Limit int
}

// DefaultView expands from the requesting user's own entity at depth 1.
func (s *Service) DefaultView(ctx context.Context, tenantID, userID int64, opts ViewOptions) (*mapgraph.View, error) {
	center := mapgraph.EntityRef{Kind: mapgraph.KindUser, ID: userID}
	return s.CenteredView(ctx, tenantID, center, DefaultDepth, opts)
}

// CenteredView expands from the given center at the given depth and
// assembles the result. A center that does not resolve is reported via
// mapgraph.ErrNotFound; an exceeded expansion deadline is reported via
// context.DeadlineExceeded with no partial result.
func (s *Service) CenteredView(ctx context.Context, tenantID int64, center mapgraph.EntityRef, depth int, opts ViewOptions) (*mapgraph.View, error) {
	correlationID := newCorrelationID()
	logger.Debug("[Map] Expanding view",
		"correlation_id", correlationID, "tenant", tenantID, "center", center.NodeID(), "depth", depth)

	if s.expandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.expandTimeout)
		defer cancel()
	}

	visited, edges, err := s.expander.Expand(ctx, tenantID, center, depth)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", center.NodeID(), err)
	}

	view := mapgraph.Assemble(visited, edges,
		mapgraph.Filters{Types: opts.Types, Statuses: opts.Statuses},
		mapgraph.ClusterOptions{Enabled: opts.ClusterTeams, MinMembers: s.clusterMin},
	)
	paginate(view, opts.Limit, opts.Page)
	s.resolveAvatars(ctx, view.Nodes)

	logger.Debug("[Map] View assembled",
		"correlation_id", correlationID, "nodes", len(view.Nodes), "edges", len(view.Edges))
	return view, nil
}

// SpatialView bypasses graph expansion and serves straight from the spatial
// backend. It returns nodes only; viewport questions are about visibility,
// not connectivity.
func (s *Service) SpatialView(ctx context.Context, tenantID int64, query SpatialQuery) (*mapgraph.View, error) {
	var (
		nodes []mapgraph.Node
		err   error
	)
	if query.Radius {
		nodes, err = s.spatial.QueryRadius(ctx, tenantID, query.CenterX, query.CenterY, query.Range, query.Types, query.Limit)
	} else {
		nodes, err = s.spatial.QueryViewport(ctx, tenantID, query.MinX, query.MinY, query.MaxX, query.MaxY, query.Types, query.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("spatial query: %w", err)
	}

	if nodes == nil {
		nodes = []mapgraph.Node{}
	}
	return &mapgraph.View{Nodes: nodes, Edges: []mapgraph.Edge{}}, nil
}

// NearestNode returns the positioned node closest to (x, y), or nil when the
// tenant has none.
func (s *Service) NearestNode(ctx context.Context, tenantID int64, x, y float64, nodeType *mapgraph.NodeType) (*mapgraph.Node, float64, error) {
	return s.spatial.Nearest(ctx, tenantID, x, y, nodeType)
}

// Node assembles a single node by type and id. Types outside the four
// expandable kinds report mapgraph.ErrNotFound.
func (s *Service) Node(ctx context.Context, tenantID int64, nodeType mapgraph.NodeType, id int64) (*mapgraph.Node, error) {
	kind, ok := mapgraph.KindForNodeType(nodeType)
	if !ok {
		return nil, mapgraph.ErrNotFound
	}

	entity, err := s.repo.Get(ctx, tenantID, kind, id)
	if err != nil {
		return nil, err
	}

	node := mapgraph.NodeFromEntity(entity)
	nodes := []mapgraph.Node{node}
	s.resolveAvatars(ctx, nodes)
	return &nodes[0], nil
}

// paginate slices the assembled node set and drops edges whose endpoints fall
// off the page. Pages are independent best-effort slices.
func paginate(view *mapgraph.View, limit, page int) {
	if limit <= 0 {
		return
	}
	if page < 1 {
		page = 1
	}

	sort.Slice(view.Nodes, func(i, j int) bool { return view.Nodes[i].ID < view.Nodes[j].ID })

	start := (page - 1) * limit
	if start >= len(view.Nodes) {
		view.Nodes = []mapgraph.Node{}
		view.Edges = []mapgraph.Edge{}
		return
	}
	end := start + limit
	if end > len(view.Nodes) {
		end = len(view.Nodes)
	}
	view.Nodes = view.Nodes[start:end]

	onPage := make(map[string]struct{}, len(view.Nodes))
	for _, node := range view.Nodes {
		onPage[node.ID] = struct{}{}
	}
	edges := view.Edges[:0]
	for _, edge := range view.Edges {
		if _, ok := onPage[edge.Source]; !ok {
			continue
		}
		if _, ok := onPage[edge.Target]; !ok {
			continue
		}
		edges = append(edges, edge)
	}
	view.Edges = edges
}

// resolveAvatars swaps stored avatar keys for presigned URLs on USER nodes.
func (s *Service) resolveAvatars(ctx context.Context, nodes []mapgraph.Node) {
	for i := range nodes {
		node := &nodes[i]
		if node.Type != mapgraph.NodeTypeUser || node.Data == nil {
			continue
		}
		key, ok := node.Data["avatar_key"].(string)
		if !ok || key == "" {
			continue
		}
		delete(node.Data, "avatar_key")

		if s.avatars == nil {
			continue
		}
		url, err := s.avatars.DownloadURL(ctx, key)
		if err != nil {
			logger.Warn("[Map] Avatar resolution failed", "node", node.ID, "err", err)
			continue
		}
		node.Data["avatar"] = url
	}
}

func newCorrelationID() string {
	id, err := gonanoid.New()
	if err != nil {
		return "unknown"
	}
	return id
}
