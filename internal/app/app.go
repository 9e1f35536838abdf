package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/yungbote/storyfeed-backend/internal/data/db"
	"github.com/yungbote/storyfeed-backend/internal/data/snapshot"
	httpapi "github.com/yungbote/storyfeed-backend/internal/http"
	httpH "github.com/yungbote/storyfeed-backend/internal/http/handlers"
	"github.com/yungbote/storyfeed-backend/internal/observability"
	"github.com/yungbote/storyfeed-backend/internal/platform/envutil"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics
	Server   *httpapi.Server

	store        *dbpkg.Service
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)

	store, err := dbpkg.Open(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init content store: %w", err)
	}
	theDB := store.DB()
	if cfg.AutoMigrate {
		if err := dbpkg.AutoMigrateAll(theDB); err != nil {
			log.Sync()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
		if err := dbpkg.EnsureFeedIndexes(theDB); err != nil {
			log.Warn("feed index creation failed (continuing)", "error", err)
		}
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log, cfg, clients, metrics)
	serviceset := wireServices(theDB, log, cfg, reposet, metrics)

	a := &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		store:        store,
		otelShutdown: otelShutdown,
	}

	checks := map[string]httpH.Pinger{"store": storePinger(a)}
	if clients.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return clients.Redis.Ping(ctx).Err() }
	}
	handlerset := wireHandlers(log, serviceset, checks)
	middleware := wireMiddleware(log, cfg, metrics)
	a.Server = wireServer(log, cfg, handlerset, middleware, metrics)
	return a, nil
}

// Seed imports cfg.SeedSnapshot when one is configured.
func (a *App) Seed(ctx context.Context) error {
	if a == nil || a.Cfg.SeedSnapshot == "" {
		return nil
	}
	snap, err := snapshot.Load(a.Cfg.SeedSnapshot)
	if err != nil {
		return fmt.Errorf("load seed snapshot: %w", err)
	}
	if _, err := a.Services.Content.Import(ctx, snap); err != nil {
		return fmt.Errorf("import seed snapshot: %w", err)
	}
	return nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Metrics.StartStoreCollector(ctx, a.Log, a.DB)
	a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
	return a.Server.Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Log.Warn("content store close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	a.Log.Sync()
}
