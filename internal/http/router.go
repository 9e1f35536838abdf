package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/storyfeed-backend/internal/http/handlers"
	httpMW "github.com/yungbote/storyfeed-backend/internal/http/middleware"
	"github.com/yungbote/storyfeed-backend/internal/http/response"
	"github.com/yungbote/storyfeed-backend/internal/observability"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	Metrics        *observability.Metrics
	RateLimiter    *httpMW.ClientRateLimiter
	AuthMiddleware *httpMW.AuthMiddleware

	FeedHandler   *httpH.FeedHandler
	ViewHandler   *httpH.ViewHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	if cfg.Metrics != nil {
		r.Use(httpMW.Metrics(cfg.Metrics))
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	r.NoRoute(func(c *gin.Context) {
		response.RespondError(c, http.StatusNotFound, "not_found", nil)
	})
	var requireAPIAuth gin.HandlerFunc = func(*gin.Context) {}
	if cfg.AuthMiddleware.Enabled() {
		requireAPIAuth = cfg.AuthMiddleware.RequireAuth()
	}
	r.NoMethod(func(c *gin.Context) {
		// Auth runs before the method check on /api.
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			requireAPIAuth(c)
			if c.IsAborted() {
				return
			}
		}
		response.RespondError(c, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	api.Use(httpMW.RateLimit(cfg.RateLimiter, cfg.Metrics))
	if cfg.AuthMiddleware.Enabled() {
		api.Use(requireAPIAuth)
	}
	{
		// Feed
		if cfg.FeedHandler != nil {
			api.POST("/feed", cfg.FeedHandler.GetFeed)
		}

		// View log
		if cfg.ViewHandler != nil {
			api.POST("/views", cfg.ViewHandler.Record)
			api.GET("/views", cfg.ViewHandler.List)
			api.DELETE("/views", cfg.ViewHandler.Forget)
		}
	}

	return r
}
