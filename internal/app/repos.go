package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/storyfeed-backend/internal/data/cache"
	"github.com/yungbote/storyfeed-backend/internal/data/repos"
	"github.com/yungbote/storyfeed-backend/internal/observability"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

type Repos struct {
	Story      repos.StoryRepo
	InfoCard   repos.InfoCardRepo
	Keyword    repos.KeywordRepo
	ViewRecord repos.ViewRecordRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, metrics *observability.Metrics) Repos {
	log.Info("Wiring repos...")
	keywords := repos.NewKeywordRepo(db, log)
	if clients.Redis != nil {
		keywords = cache.NewKeywordCache(keywords, clients.Redis, cfg.KeywordCacheTTL, log, metrics)
	}
	return Repos{
		Story:      repos.NewStoryRepo(db, log),
		InfoCard:   repos.NewInfoCardRepo(db, log),
		Keyword:    keywords,
		ViewRecord: repos.NewViewRecordRepo(db, log),
	}
}
