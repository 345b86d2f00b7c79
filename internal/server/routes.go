package server

import (
	"github.com/orgmesh/backend/internal/server/middleware"
	"github.com/orgmesh/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Living map routes
	apiRoutes.GET("/map/data", routes.GetMapDataHandler, middleware.RequirePermission("map.view"))
	apiRoutes.GET("/map/node/:node_type/:node_id", routes.GetMapNodeHandler, middleware.RequirePermission("map.view"))
	apiRoutes.GET("/map/nearest", routes.GetMapNearestHandler, middleware.RequirePermission("map.view"))
}
