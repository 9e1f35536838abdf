package views

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/storyfeed-backend/internal/feed"
)

// ViewRecord is one entry of a device's append-only view log.
type ViewRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID    string    `gorm:"column:device_id;not null;index:idx_view_record_device_viewed,priority:1" json:"device_id"`
	ContentID   string    `gorm:"column:content_id;not null;index" json:"content_id"`
	ContentType string    `gorm:"column:content_type;not null" json:"content_type"`
	ViewedAt    time.Time `gorm:"column:viewed_at;not null;index:idx_view_record_device_viewed,priority:2" json:"viewed_at"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (ViewRecord) TableName() string { return "view_record" }

func (v *ViewRecord) ToFeed() feed.ViewRecord {
	return feed.ViewRecord{
		ContentID:   v.ContentID,
		ContentType: v.ContentType,
		Timestamp:   v.ViewedAt,
	}
}
