package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/storyfeed-backend/internal/data/repos/content"
	"github.com/yungbote/storyfeed-backend/internal/data/repos/views"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

type StoryRepo = content.StoryRepo
type InfoCardRepo = content.InfoCardRepo
type KeywordRepo = content.KeywordRepo

type ViewRecordRepo = views.ViewRecordRepo

func NewStoryRepo(db *gorm.DB, baseLog *logger.Logger) StoryRepo {
	return content.NewStoryRepo(db, baseLog)
}

func NewInfoCardRepo(db *gorm.DB, baseLog *logger.Logger) InfoCardRepo {
	return content.NewInfoCardRepo(db, baseLog)
}

func NewKeywordRepo(db *gorm.DB, baseLog *logger.Logger) KeywordRepo {
	return content.NewKeywordRepo(db, baseLog)
}

func NewViewRecordRepo(db *gorm.DB, baseLog *logger.Logger) ViewRecordRepo {
	return views.NewViewRecordRepo(db, baseLog)
}
