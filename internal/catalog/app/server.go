package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"gocatalog_api/config"
	"gocatalog_api/internal/auth"
	"gocatalog_api/internal/catalog/app/web/handlers"
	"gocatalog_api/internal/catalog/business/services/catalogsync"
	"gocatalog_api/internal/catalog/business/services/progress"
	"gocatalog_api/internal/catalog/storage"
	"gocatalog_api/internal/catalog/storage/memory"
	"gocatalog_api/internal/catalog/storage/repositories"
	"gocatalog_api/metrics"
	catalogmigrations "gocatalog_api/migrations/catalog"
	"gocatalog_api/pkg/dbconnect"
	"gocatalog_api/pkg/dbconnect/migration"
	"gocatalog_api/pkg/dbconnect/postgres"
	"gocatalog_api/pkg/logger"
	"gocatalog_api/pkg/middleware"
)

type CatalogServer struct {
	cfg *config.AppConfig
	log *zap.Logger

	db           dbconnect.Database
	redis        redis.UniversalClient
	orchestrator *catalogsync.Orchestrator
	echo         *echo.Echo
}

func NewCatalogServer(cfg *config.AppConfig, log *zap.Logger) *CatalogServer {
	return &CatalogServer{cfg: cfg, log: logger.Nop(log).Named("catalog-server")}
}

// Setup opens the local store and the progress store and builds the router.
func (s *CatalogServer) Setup(ctx context.Context) error {
	store, err := s.openStore()
	if err != nil {
		return err
	}
	progressStore, err := s.openProgress(ctx)
	if err != nil {
		return err
	}

	s.orchestrator = catalogsync.New(catalogsync.Options{
		Connections: s.cfg,
		Store:       store,
		Progress:    progressStore,
		Values:      s.cfg.Sync,
		Grace:       s.cfg.Progress.Grace,
		Log:         s.log,
	})
	s.echo = s.routes()
	return nil
}

func (s *CatalogServer) openStore() (storage.Store, error) {
	if s.cfg.Storage.Backend == "memory" {
		s.log.Warn("using in-memory catalog store, data is lost on restart")
		return memory.NewStore(), nil
	}

	s.db = postgres.NewPgConnector(config.GetPostgresConfig(), s.log)
	db, err := s.db.Connect()
	if err != nil {
		return nil, fmt.Errorf("error connecting to PostgreSQL: %w", err)
	}
	if err := migration.Apply(db.DB, catalogmigrations.All()...); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	s.log.Info("catalog migrations applied successfully")
	return repositories.NewStore(db), nil
}

func (s *CatalogServer) openProgress(ctx context.Context) (progress.Store, error) {
	if s.cfg.Progress.Backend != "redis" {
		return progress.NewMemoryStore(), nil
	}

	s.redis = redis.NewClient(&redis.Options{
		Addr:     s.cfg.Redis.Addr,
		Password: s.cfg.Redis.Password,
		DB:       s.cfg.Redis.DB,
	})
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis %s unreachable: %w", s.cfg.Redis.Addr, err)
	}
	return progress.NewRedisStore(s.redis, s.cfg.Redis.Prefix, progress.DefaultStaleTTL), nil
}

func (s *CatalogServer) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(s.log.Named("http")))
	e.Use(middleware.PrometheusMiddleware())

	e.GET("/metrics", echo.WrapHandler(metrics.MetricsHandler()))
	e.GET("/healthz", s.health)

	var guards []echo.MiddlewareFunc
	if s.cfg.Auth.JWTSecret != "" {
		var roles []string
		if s.cfg.Auth.Role != "" {
			roles = append(roles, s.cfg.Auth.Role)
		}
		guards = append(guards, auth.AuthMiddleware(s.cfg.Auth.JWTSecret, roles...))
	}
	connections := e.Group("/api/v1/connections", guards...)
	handlers.NewSyncHandler(s.orchestrator, s.log).Register(connections)
	return e
}

func (s *CatalogServer) health(c echo.Context) error {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "error": err.Error()})
		}
	}
	if s.redis != nil {
		if err := s.redis.Ping(c.Request().Context()).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "error": err.Error()})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// Handler exposes the router; Setup must have been called.
func (s *CatalogServer) Handler() http.Handler {
	return s.echo
}

// Run serves HTTP until ctx is cancelled, then shuts down within the configured timeout.
func (s *CatalogServer) Run(ctx context.Context) error {
	if err := s.Setup(ctx); err != nil {
		return multierr.Append(err, s.close())
	}

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + s.cfg.Server.Port
		s.log.Info("starting server", zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		s.log.Info("shutting down")
	case serveErr = <-errCh:
		s.log.Error("server stopped", zap.Error(serveErr))
	}
	return multierr.Append(serveErr, s.Shutdown())
}

// Shutdown stops accepting requests, lets running syncs record their status and
// closes the stores.
func (s *CatalogServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	var err error
	if s.echo != nil {
		err = multierr.Append(err, s.echo.Shutdown(ctx))
	}
	if s.orchestrator != nil {
		err = multierr.Append(err, s.orchestrator.Close(ctx))
	}
	return multierr.Append(err, s.close())
}

func (s *CatalogServer) close() error {
	var err error
	if s.redis != nil {
		err = multierr.Append(err, s.redis.Close())
	}
	if s.db != nil {
		err = multierr.Append(err, s.db.Close())
	}
	return err
}
