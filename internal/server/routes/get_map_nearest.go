package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/orgmesh/backend/internal/server/middleware"
	"github.com/orgmesh/backend/pkg/mapgraph"
)

// GetMapNearestHandler returns the positioned node closest to a point,
// optionally narrowed to one node type.
func GetMapNearestHandler(c echo.Context) error {
	type getMapNearestParams struct {
		X        *float64 `query:"x" validate:"required"`
		Y        *float64 `query:"y" validate:"required"`
		NodeType string   `query:"node_type"`
	}

	type getMapNearestResponse struct {
		Node     *mapgraph.Node `json:"node"`
		Distance float64        `json:"distance"`
	}

	params := new(getMapNearestParams)
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

	var nodeType *mapgraph.NodeType
	if params.NodeType != "" {
		t, err := mapgraph.ParseNodeType(params.NodeType)
		if err != nil {
			return mapError(c, err)
		}
		nodeType = &t
	}

	svc := c.(*middleware.AppContext).App.Map
	node, distance, err := svc.NearestNode(c.Request().Context(), user.TenantID, *params.X, *params.Y, nodeType)
	if err != nil {
		return mapError(c, err)
	}
	if node == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No positioned nodes"})
	}

	return c.JSON(http.StatusOK, getMapNearestResponse{Node: node, Distance: distance})
}
