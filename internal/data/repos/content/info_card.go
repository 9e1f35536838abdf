package content

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/storyfeed-backend/internal/domain"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

type InfoCardRepo interface {
	// ListOrdered returns cards by ascending sort order. A non-positive limit
	// returns every card from offset on.
	ListOrdered(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.InfoCard, error)
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.InfoCard) error
}

type infoCardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInfoCardRepo(db *gorm.DB, baseLog *logger.Logger) InfoCardRepo {
	return &infoCardRepo{db: db, log: baseLog.With("repo", "InfoCardRepo")}
}

func (r *infoCardRepo) ListOrdered(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.InfoCard, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx).Model(&types.InfoCard{}).Order("sort_order ASC, id ASC")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	out := []*types.InfoCard{}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *infoCardRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.InfoCard) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name",
				"type",
				"sort_order",
				"active_days",
				"content_json",
				"updated_at",
			}),
		}).
		Create(&rows).Error
}
