package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/orgmesh/backend/internal/server/middleware"
	"github.com/orgmesh/backend/pkg/mapgraph"
)

// GetMapNodeHandler returns one assembled node by type and id.
func GetMapNodeHandler(c echo.Context) error {
	type getMapNodeParams struct {
		NodeType string `param:"node_type" validate:"required"`
		NodeID   int64  `param:"node_id" validate:"required"`
	}

	params := new(getMapNodeParams)
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

	nodeType, err := mapgraph.ParseNodeType(params.NodeType)
	if err != nil {
		return mapError(c, err)
	}

	svc := c.(*middleware.AppContext).App.Map
	node, err := svc.Node(c.Request().Context(), user.TenantID, nodeType, params.NodeID)
	if err != nil {
		return mapError(c, err)
	}

	return c.JSON(http.StatusOK, node)
}
