package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/orgmesh/backend/internal/server/middleware"
	"github.com/orgmesh/backend/pkg/mapgraph"
	"github.com/orgmesh/backend/pkg/mapquery"
)

// GetMapDataHandler serves the living map. Three modes, selected by request
// parameters: the spatial view (use_spatial with a viewport or radius), the
// centered expansion view (center_node_id + depth), and the default view
// expanding from the requesting user at depth 1.
func GetMapDataHandler(c echo.Context) error {
	type getMapDataParams struct {
		CenterNodeID string   `query:"center_node_id"`
		Depth        *int     `query:"depth" validate:"omitempty,min=0,max=6"`
		Types        string   `query:"types"`
		Statuses     string   `query:"statuses"`
		ClusterTeams bool     `query:"cluster_teams"`
		Limit        int      `query:"limit" validate:"omitempty,min=1,max=500"`
		Page         int      `query:"page" validate:"omitempty,min=1"`
		UseSpatial   bool     `query:"use_spatial"`
		ViewX        *float64 `query:"view_x"`
		ViewY        *float64 `query:"view_y"`
		ViewWidth    *float64 `query:"view_width" validate:"omitempty,gt=0"`
		ViewHeight   *float64 `query:"view_height" validate:"omitempty,gt=0"`
		Radius       *float64 `query:"radius" validate:"omitempty,gt=0"`
	}

	params := new(getMapDataParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	types, err := parseNodeTypes(params.Types)
	if err != nil {
		return mapError(c, err)
	}

	ctx := c.Request().Context()
	svc := c.(*middleware.AppContext).App.Map

	if params.UseSpatial {
		query, ok := spatialQuery(params.ViewX, params.ViewY, params.ViewWidth, params.ViewHeight, params.Radius)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Spatial view requires view_x/view_y with either radius or view_width/view_height"})
		}
		query.Types = types
		query.Limit = params.Limit

		view, err := svc.SpatialView(ctx, user.TenantID, query)
		if err != nil {
			return mapError(c, err)
		}
		return c.JSON(http.StatusOK, view)
	}

	opts := mapquery.ViewOptions{
		Types:        types,
		Statuses:     parseStatuses(params.Statuses),
		ClusterTeams: params.ClusterTeams,
		Limit:        params.Limit,
		Page:         params.Page,
	}

	var view *mapgraph.View
	if params.CenterNodeID != "" {
		center, err := parseCenterNodeID(params.CenterNodeID)
		if err != nil {
			return mapError(c, err)
		}
		depth := mapquery.DefaultDepth
		if params.Depth != nil {
			depth = *params.Depth
		}
		view, err = svc.CenteredView(ctx, user.TenantID, center, depth, opts)
		if err != nil {
			return mapError(c, err)
		}
	} else {
		view, err = svc.DefaultView(ctx, user.TenantID, user.UserID, opts)
		if err != nil {
			return mapError(c, err)
		}
	}

	return c.JSON(http.StatusOK, view)
}

// spatialQuery validates the parameter combinations of the spatial mode.
// Radius wins when both radius and viewport dimensions are supplied.
func spatialQuery(viewX, viewY, viewWidth, viewHeight, radius *float64) (mapquery.SpatialQuery, bool) {
	if viewX == nil || viewY == nil {
		return mapquery.SpatialQuery{}, false
	}

	if radius != nil {
		return mapquery.SpatialQuery{
			Radius:  true,
			CenterX: *viewX,
			CenterY: *viewY,
			Range:   *radius,
		}, true
	}

	if viewWidth == nil || viewHeight == nil {
		return mapquery.SpatialQuery{}, false
	}
	return mapquery.SpatialQuery{
		MinX: *viewX,
		MinY: *viewY,
		MaxX: *viewX + *viewWidth,
		MaxY: *viewY + *viewHeight,
	}, true
}
