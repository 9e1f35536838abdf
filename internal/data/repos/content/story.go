package content

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/storyfeed-backend/internal/domain"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

type StoryRepo interface {
	CountPublished(ctx context.Context, tx *gorm.DB, levels []string) (int64, error)
	// ListPublished pages published stories in (created_at, id) order.
	ListPublished(ctx context.Context, tx *gorm.DB, levels []string, offset, limit int) ([]*types.Story, error)
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Story) error
}

type storyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStoryRepo(db *gorm.DB, baseLog *logger.Logger) StoryRepo {
	return &storyRepo{db: db, log: baseLog.With("repo", "StoryRepo")}
}

func (r *storyRepo) published(ctx context.Context, t *gorm.DB, levels []string) *gorm.DB {
	return t.WithContext(ctx).
		Model(&types.Story{}).
		Where("story_status = ? AND level IN ?", types.StoryStatusPublished, levels)
}

func (r *storyRepo) CountPublished(ctx context.Context, tx *gorm.DB, levels []string) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(levels) == 0 {
		return 0, nil
	}
	var n int64
	if err := r.published(ctx, t, levels).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *storyRepo) ListPublished(ctx context.Context, tx *gorm.DB, levels []string, offset, limit int) ([]*types.Story, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := []*types.Story{}
	if len(levels) == 0 || limit <= 0 {
		return out, nil
	}
	if offset < 0 {
		offset = 0
	}
	if err := r.published(ctx, t, levels).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *storyRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Story) error {
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
				"type",
				"level",
				"language",
				"story_status",
				"image_url",
				"gradient",
				"keywords",
				"content_json",
				"translations_json",
				"explanations_json",
				"audio_json",
				"updated_at",
			}),
		}).
		Create(&rows).Error
}
