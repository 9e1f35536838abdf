package app

import (
	"context"

	httpapi "github.com/yungbote/storyfeed-backend/internal/http"
	httpH "github.com/yungbote/storyfeed-backend/internal/http/handlers"
	httpMW "github.com/yungbote/storyfeed-backend/internal/http/middleware"
	"github.com/yungbote/storyfeed-backend/internal/observability"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

type Middleware struct {
	Auth        *httpMW.AuthMiddleware
	RateLimiter *httpMW.ClientRateLimiter
}

type Handlers struct {
	Health *httpH.HealthHandler
	Feed   *httpH.FeedHandler
	View   *httpH.ViewHandler
}

func wireHandlers(log *logger.Logger, services Services, checks map[string]httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(checks),
		Feed:   httpH.NewFeedHandler(services.Feed),
		View:   httpH.NewViewHandler(services.Views),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, metrics *observability.Metrics) Middleware {
	log.Info("Wiring middleware...")
	mw := Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.AnonKey, cfg.JWTSecretKey, metrics),
	}
	if cfg.RateLimitRPS > 0 {
		mw.RateLimiter = httpMW.NewClientRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	return mw
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *httpapi.Server {
	return httpapi.NewServer(log, httpapi.ServerConfig{
		Addr:            cfg.HTTPAddr,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, httpapi.RouterConfig{
		Log:            log,
		ServiceName:    cfg.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		Metrics:        metrics,
		RateLimiter:    middleware.RateLimiter,
		AuthMiddleware: middleware.Auth,
		FeedHandler:    handlers.Feed,
		ViewHandler:    handlers.View,
		HealthHandler:  handlers.Health,
	})
}

func storePinger(a *App) httpH.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
