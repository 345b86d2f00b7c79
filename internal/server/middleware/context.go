package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/orgmesh/backend/pkg/mapquery"
)

// AppUser is the authenticated caller. TenantID scopes every map query.
type AppUser struct {
	UserID      int64
	TenantID    int64
	Role        string
	Permissions []string
}

// App bundles the long-lived dependencies built once by the composition root.
type App struct {
	DBConn         *pgxpool.Pool
	Map            *mapquery.Service
	Key            *keyfunc.Keyfunc
	MasterAPIKey   string
	MasterUserID   int64
	MasterTenantID int64
}

// AppContext threads App and the authenticated user through every handler.
type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{c, app, nil})
		}
	}
}
