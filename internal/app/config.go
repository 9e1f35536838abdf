package app

import (
	"time"

	redisclient "github.com/yungbote/storyfeed-backend/internal/clients/redis"
	dbpkg "github.com/yungbote/storyfeed-backend/internal/data/db"
	"github.com/yungbote/storyfeed-backend/internal/platform/envutil"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
	"github.com/yungbote/storyfeed-backend/internal/services"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string

	HTTPAddr        string
	ShutdownTimeout time.Duration

	DB          dbpkg.Config
	AutoMigrate bool
	// SeedSnapshot is an optional YAML snapshot imported at startup.
	SeedSnapshot string

	Redis           redisclient.Config
	KeywordCacheTTL time.Duration

	Feed services.FeedConfig

	AnonKey      string
	JWTSecretKey string
	CORSOrigins  []string

	RateLimitRPS   float64
	RateLimitBurst int
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		ServiceName: envutil.String("SERVICE_NAME", "storyfeed"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),

		HTTPAddr:        envutil.String("HTTP_ADDR", ":"+envutil.String("PORT", "8080")),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DB:           dbpkg.ConfigFromEnv(),
		AutoMigrate:  envutil.Bool("DB_AUTO_MIGRATE", true),
		SeedSnapshot: envutil.String("SEED_SNAPSHOT", ""),

		Redis:           redisclient.ConfigFromEnv(),
		KeywordCacheTTL: envutil.Duration("KEYWORD_CACHE_TTL", 10*time.Minute),

		Feed: services.FeedConfig{
			DefaultPageSize:   envutil.Int("FEED_DEFAULT_PAGE_SIZE", services.DefaultPageSize),
			MaxPageSize:       envutil.Int("FEED_MAX_PAGE_SIZE", services.MaxPageSize),
			KeywordLevelMatch: envutil.Bool("FEED_KEYWORD_LEVEL_MATCH", false),
			HistoryLimit:      envutil.Int("FEED_HISTORY_LIMIT", 500),
		},

		AnonKey:      envutil.String("ANON_KEY", ""),
		JWTSecretKey: envutil.String("JWT_SECRET_KEY", ""),
		CORSOrigins:  envutil.CSV("CORS_ALLOW_ORIGINS", []string{"*"}),

		RateLimitRPS:   envutil.Float("RATE_LIMIT_RPS", 0),
		RateLimitBurst: envutil.Int("RATE_LIMIT_BURST", 20),
	}
	if cfg.AnonKey == "" && cfg.JWTSecretKey == "" {
		log.Warn("ANON_KEY and JWT_SECRET_KEY unset; /api routes are unauthenticated")
	}
	return cfg
}
