package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/orgmesh/backend/pkg/mapgraph"
)

// mapError translates core errors into the HTTP taxonomy: unsupported type
// tokens are 400 naming the value, missing entities are 404, an exceeded
// expansion deadline is 504. Cache and spatial degradation never reach this
// point; they are absorbed by the fallback paths.
func mapError(c echo.Context, err error) error {
	var unsupported *mapgraph.UnsupportedTypeError
	switch {
	case errors.As(err, &unsupported):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": unsupported.Error()})
	case errors.Is(err, errInvalidCenter):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid center_node_id"})
	case errors.Is(err, mapgraph.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Node not found"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, map[string]string{"error": "Map expansion timed out"})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}
