package mapgraph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orgmesh/backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Expander performs bounded-depth, level-synchronous breadth-first expansion
// over the canonical relationship table, consulting the neighbor cache before
// falling back to the entity reader. It holds no per-request state and is
// safe for concurrent use.
type Expander struct {
	repo     EntityReader
	cache    NeighborCache
	ttl      time.Duration
	parallel int
}

// NewExpanderParams configures an Expander.
type NewExpanderParams struct {
	Repo  EntityReader
	Cache NeighborCache
	// TTL for neighbor cache entries written on a miss.
	TTL time.Duration
	// MaxParallel bounds concurrent neighbor lookups within one BFS level.
	MaxParallel int
}

// NewExpander creates an Expander. A nil cache degrades to always-miss.
func NewExpander(params NewExpanderParams) *Expander {
	cache := params.Cache
	if cache == nil {
		cache = NopCache{}
	}
	parallel := params.MaxParallel
	if parallel <= 0 {
		parallel = 16
	}
	return &Expander{
		repo:     params.Repo,
		cache:    cache,
		ttl:      params.TTL,
		parallel: parallel,
	}
}

// traversal records one relationship hop discovered while expanding a level,
// before the far endpoint has been resolved.
type traversal struct {
	from EntityRef
	to   EntityRef
	rel  relation
}

// Expand resolves the center entity and walks up to depth relationship hops
// out from it. It returns every visited entity and every traversed edge whose
// endpoints both resolved. Depth 0 returns only the center.
//
// A center that does not resolve is a terminal error. Neighbor ids that no
// longer resolve (deleted rows, cross-tenant references) are dropped together
// with their edges. A context cancellation or deadline aborts the whole
// expansion; no partial result is returned.
func (e *Expander) Expand(ctx context.Context, tenantID int64, center EntityRef, depth int) (map[EntityRef]Entity, map[string]Edge, error) {
	centerEntity, err := e.repo.Get(ctx, tenantID, center.Kind, center.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve center %s: %w", center.NodeID(), err)
	}

	visited := map[EntityRef]Entity{center: centerEntity}
	edges := make(map[string]Edge)
	frontier := []Entity{centerEntity}

	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		sets, err := e.resolveLevel(ctx, tenantID, frontier)
		if err != nil {
			return nil, nil, err
		}

		var traversals []traversal
		candidates := make(map[EntityRef]struct{})
		for i, entity := range frontier {
			for _, rel := range relationsByKind[entity.Kind] {
				for _, id := range sets[i][rel.Tag] {
					neighbor := EntityRef{Kind: rel.Neighbor, ID: id}
					if neighbor == entity.Ref() {
						// Self-referential data (a user managing
						// themselves) must not loop.
						continue
					}
					traversals = append(traversals, traversal{from: entity.Ref(), to: neighbor, rel: rel})
					if _, seen := visited[neighbor]; !seen {
						candidates[neighbor] = struct{}{}
					}
				}
			}
		}

		next, err := e.resolveCandidates(ctx, tenantID, candidates)
		if err != nil {
			return nil, nil, err
		}
		for _, entity := range next {
			visited[entity.Ref()] = entity
		}

		for _, t := range traversals {
			if _, ok := visited[t.to]; !ok {
				continue
			}
			source, target := t.from.NodeID(), t.to.NodeID()
			if t.rel.Direction == directionIn {
				source, target = target, source
			}
			id := EdgeID(source, t.rel.Edge, target)
			if _, ok := edges[id]; !ok {
				edges[id] = Edge{ID: id, Source: source, Target: target, Type: t.rel.Edge}
			}
		}

		frontier = next
	}

	return visited, edges, nil
}

// resolveLevel fetches the neighbor set of every frontier entity, cache
// first. Lookups within the level run concurrently; per-entity failures
// degrade to an empty set so one bad entity cannot abort the request.
func (e *Expander) resolveLevel(ctx context.Context, tenantID int64, frontier []Entity) ([]NeighborSet, error) {
	sets := make([]NeighborSet, len(frontier))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.parallel)
	for i, entity := range frontier {
		eg.Go(func() error {
			if set, ok := e.cache.GetNeighbors(gCtx, tenantID, entity.Ref()); ok {
				sets[i] = set
				return nil
			}

			set, err := e.computeNeighbors(gCtx, tenantID, entity)
			if err != nil {
				if isContextErr(err) {
					return err
				}
				logger.Warn("[Map] Neighbor lookup failed", "entity", entity.Ref().NodeID(), "err", err)
				sets[i] = NeighborSet{}
				return nil
			}

			e.cache.SetNeighbors(gCtx, tenantID, entity.Ref(), set, e.ttl)
			sets[i] = set
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return sets, nil
}

// resolveCandidates batch-loads the not-yet-visited neighbors of one level,
// grouped per kind. Ids that do not resolve are silently excluded.
func (e *Expander) resolveCandidates(ctx context.Context, tenantID int64, candidates map[EntityRef]struct{}) ([]Entity, error) {
	byKind := make(map[EntityKind][]int64)
	for ref := range candidates {
		byKind[ref.Kind] = append(byKind[ref.Kind], ref.ID)
	}

	resolved := make([]Entity, 0, len(candidates))
	for kind, ids := range byKind {
		entities, err := e.repo.GetMulti(ctx, tenantID, kind, ids)
		if err != nil {
			if isContextErr(err) {
				return nil, err
			}
			logger.Warn("[Map] Neighbor batch lookup failed", "kind", kind, "count", len(ids), "err", err)
			continue
		}
		resolved = append(resolved, entities...)
	}

	return resolved, nil
}

// computeNeighbors derives the neighbor set of one entity from its
// relationship fields and the relationship lookups of the entity reader.
func (e *Expander) computeNeighbors(ctx context.Context, tenantID int64, entity Entity) (NeighborSet, error) {
	set := NeighborSet{}

	switch entity.Kind {
	case KindUser:
		if entity.ManagerID != nil {
			set["manager"] = []int64{*entity.ManagerID}
		}
		if entity.TeamID != nil {
			set["team"] = []int64{*entity.TeamID}
		}
		projects, err := e.repo.UserProjectIDs(ctx, tenantID, entity.ID)
		if err != nil {
			return nil, err
		}
		if len(projects) > 0 {
			set["projects"] = dedupeIDs(projects)
		}
	case KindTeam:
		if entity.LeadID != nil {
			set["lead"] = []int64{*entity.LeadID}
		}
		members, err := e.repo.TeamMemberIDs(ctx, tenantID, entity.ID)
		if err != nil {
			return nil, err
		}
		if len(members) > 0 {
			set["members"] = dedupeIDs(members)
		}
		projects, err := e.repo.TeamProjectIDs(ctx, tenantID, entity.ID)
		if err != nil {
			return nil, err
		}
		if len(projects) > 0 {
			set["projects"] = dedupeIDs(projects)
		}
	case KindProject:
		if entity.OwningTeamID != nil {
			set["team"] = []int64{*entity.OwningTeamID}
		}
		if entity.GoalID != nil {
			set["goal"] = []int64{*entity.GoalID}
		}
	case KindGoal:
		if entity.ParentID != nil {
			set["parent"] = []int64{*entity.ParentID}
		}
	}

	return set, nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
