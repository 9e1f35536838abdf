package content

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/storyfeed-backend/internal/domain"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

type KeywordRepo interface {
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Keyword, error)
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Keyword) error
}

type keywordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKeywordRepo(db *gorm.DB, baseLog *logger.Logger) KeywordRepo {
	return &keywordRepo{db: db, log: baseLog.With("repo", "KeywordRepo")}
}

func (r *keywordRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Keyword, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := []*types.Keyword{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("keyword_id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *keywordRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Keyword) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "keyword_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"translations_json",
				"audio_json",
				"level",
				"updated_at",
			}),
		}).
		Create(&rows).Error
}
