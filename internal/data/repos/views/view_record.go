package views

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/storyfeed-backend/internal/domain"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

const (
	defaultHistoryLimit = 500
	maxHistoryLimit     = 5000
)

type ViewRecordRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ViewRecord) ([]*types.ViewRecord, error)
	// ListByDevice returns the newest records first.
	ListByDevice(ctx context.Context, tx *gorm.DB, deviceID string, limit int) ([]*types.ViewRecord, error)
	DeleteByDevice(ctx context.Context, tx *gorm.DB, deviceID string) (int64, error)
}

type viewRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewViewRecordRepo(db *gorm.DB, baseLog *logger.Logger) ViewRecordRepo {
	return &viewRecordRepo{db: db, log: baseLog.With("repo", "ViewRecordRepo")}
}

func (r *viewRecordRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ViewRecord) ([]*types.ViewRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.ViewRecord{}, nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *viewRecordRepo) ListByDevice(ctx context.Context, tx *gorm.DB, deviceID string, limit int) ([]*types.ViewRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := []*types.ViewRecord{}
	if deviceID == "" {
		return out, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if err := t.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("viewed_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *viewRecordRepo) DeleteByDevice(ctx context.Context, tx *gorm.DB, deviceID string) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if deviceID == "" {
		return 0, nil
	}
	res := t.WithContext(ctx).Where("device_id = ?", deviceID).Delete(&types.ViewRecord{})
	return res.RowsAffected, res.Error
}
