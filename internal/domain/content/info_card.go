package content

import (
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/storyfeed-backend/internal/feed"
)

const (
	InfoCardTypeProgress = "progress"
	InfoCardTypeCulture  = "culture"
	InfoCardTypeTip      = "tip"
)

type InfoCard struct {
	ID   string `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;not null;index" json:"name"`
	Type string `gorm:"column:type" json:"type,omitempty"`
	// SortOrder is the "order" column of the card catalogue.
	SortOrder  int            `gorm:"column:sort_order;not null;index" json:"order"`
	ActiveDays int            `gorm:"column:active_days" json:"active_days"`
	Content    datatypes.JSON `gorm:"column:content_json" json:"content_json"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (InfoCard) TableName() string { return "info_card" }

func (c *InfoCard) ToFeed() (feed.InfoCard, error) {
	body, err := decodeJSON[map[string]feed.InfoCardContent](c.Content)
	if err != nil {
		return feed.InfoCard{}, fmt.Errorf("info card %s content_json: %w", c.ID, err)
	}
	return feed.InfoCard{
		ID:         c.ID,
		Name:       c.Name,
		Type:       c.Type,
		ActiveDays: c.ActiveDays,
		Content:    body,
	}, nil
}
