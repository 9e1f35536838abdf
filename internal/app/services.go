package app

import (
	"github.com/facebookgo/clock"
	"gorm.io/gorm"

	"github.com/yungbote/storyfeed-backend/internal/observability"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
	"github.com/yungbote/storyfeed-backend/internal/services"
)

type Services struct {
	Feed    services.FeedService
	Views   services.ViewService
	Content services.ContentService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	clk := clock.New()
	return Services{
		Feed: services.NewFeedService(log, cfg.Feed, services.FeedDeps{
			Stories:   reposet.Story,
			InfoCards: reposet.InfoCard,
			Keywords:  reposet.Keyword,
			Views:     reposet.ViewRecord,
			Clock:     clk,
			Metrics:   metrics,
		}),
		Views:   services.NewViewService(log, reposet.ViewRecord, clk, metrics),
		Content: services.NewContentService(db, log, clk, reposet.Story, reposet.InfoCard, reposet.Keyword),
	}
}
