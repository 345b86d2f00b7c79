package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/orgmesh/backend/internal/queue"
	mid "github.com/orgmesh/backend/internal/server/middleware"
	"github.com/orgmesh/backend/internal/storage"
	"github.com/orgmesh/backend/internal/util"
	cachebadger "github.com/orgmesh/backend/pkg/cache/badger"
	"github.com/orgmesh/backend/pkg/logger"
	"github.com/orgmesh/backend/pkg/mapgraph"
	"github.com/orgmesh/backend/pkg/mapquery"
	repopgx "github.com/orgmesh/backend/pkg/repo/pgx"
	"github.com/orgmesh/backend/pkg/spatial"
	spatialpgx "github.com/orgmesh/backend/pkg/spatial/pgx"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	jwksURL := util.GetEnv("AUTH_URL") + "/jwks"
	k, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		logger.Fatal("Failed to load jwks keys", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseURL := util.GetEnv("DATABASE_URL")
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		logger.Fatal("Invalid database URL", "err", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	conn, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()
	if err := util.RetryErr(5, 2*time.Second, func() error { return conn.Ping(ctx) }); err != nil {
		logger.Fatal("Database unreachable", "err", err)
	}

	runMigrations(databaseURL)

	// Neighbor cache. A store that fails to open degrades to always-miss
	// instead of blocking startup.
	var neighborCache mapgraph.NeighborCache = mapgraph.NopCache{}
	cacheStore, err := cachebadger.NewNeighborCache(cachebadger.NewNeighborCacheParams{
		Path: util.GetEnvString("CACHE_DIR", "data/cache"),
	})
	if err != nil {
		logger.Warn("Neighbor cache unavailable, running without cache", "err", err)
	} else {
		neighborCache = cacheStore
		defer cacheStore.Close()
	}

	// Spatial backend selection happens once at startup: the indexed path
	// needs the pgvector extension, otherwise everything runs on the scan
	// fallback.
	pgBackend := spatialpgx.NewSpatialBackend(conn)
	scanBackend := spatial.NewScanBackend(pgBackend)
	var primary spatial.Backend
	if available, err := pgBackend.Available(ctx); err != nil || !available {
		logger.Warn("pgvector unavailable, spatial queries use scan fallback", "err", err)
	} else {
		primary = pgBackend
	}
	spatialIndex := spatial.NewIndex(primary, scanBackend)

	// Entity mutation events feed the in-process cache invalidator. The
	// broker being down is tolerated; entries then age out via TTL only.
	if qConn, err := queue.Init(); err != nil {
		logger.Warn("Queue unavailable, cache invalidation disabled", "err", err)
	} else {
		defer qConn.Close()
		ch, err := qConn.Channel()
		if err != nil {
			logger.Warn("Failed to open queue channel", "err", err)
		} else if err := queue.Setup(ch); err != nil {
			logger.Warn("Failed to set up invalidation queue", "err", err)
		} else if err := queue.StartInvalidationConsumer(ctx, ch, neighborCache); err != nil {
			logger.Warn("Failed to start invalidation consumer", "err", err)
		}
	}

	var avatars mapquery.AvatarResolver
	if util.GetEnv("AWS_BUCKET") != "" {
		if s3Client := storage.NewS3Client(ctx); s3Client != nil {
			avatars = storage.NewAvatarStore(s3Client)
		}
	}

	mapService := mapquery.NewService(mapquery.NewServiceParams{
		Repo:              repopgx.NewEntityRepo(conn),
		Cache:             neighborCache,
		Spatial:           spatialIndex,
		Avatars:           avatars,
		CacheTTL:          util.GetEnvDuration("MAP_CACHE_TTL", 5*time.Minute),
		ExpandTimeout:     util.GetEnvDuration("MAP_EXPAND_TIMEOUT", 10*time.Second),
		MaxParallel:       util.GetEnvInt("MAP_PARALLEL_LOOKUPS", 16),
		ClusterMinMembers: util.GetEnvInt("MAP_CLUSTER_MIN_MEMBERS", mapgraph.DefaultClusterThreshold),
	})

	app := &mid.App{
		DBConn:         conn,
		Map:            mapService,
		Key:            &k,
		MasterAPIKey:   util.GetEnv("MASTER_API_KEY"),
		MasterUserID:   int64(util.GetEnvInt("MASTER_USER_ID", 0)),
		MasterTenantID: int64(util.GetEnvInt("MASTER_TENANT_ID", 0)),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

func runMigrations(databaseURL string) {
	// The migrate pgx driver registers under its own scheme.
	migrateURL := strings.Replace(databaseURL, "postgres://", "pgx5://", 1)
	m, err := migrate.New("file://migrations", migrateURL)
	if err != nil {
		logger.Fatal("Failed to initialize migrations", "err", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Failed to run migrations", "err", err)
	}
}
