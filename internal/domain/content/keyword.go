package content

import (
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/storyfeed-backend/internal/feed"
)

type Keyword struct {
	KeywordID    string         `gorm:"column:keyword_id;primaryKey" json:"keyword_id"`
	Translations datatypes.JSON `gorm:"column:translations_json" json:"translations_json"`
	Audio        datatypes.JSON `gorm:"column:audio_json" json:"audio_json"`
	// Level is the optional word-level tag; empty means untagged.
	Level     string    `gorm:"column:level;index" json:"level,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Keyword) TableName() string { return "keyword" }

func (k *Keyword) ToFeed() (feed.Keyword, error) {
	translations, err := decodeJSON[map[string]feed.Translation](k.Translations)
	if err != nil {
		return feed.Keyword{}, fmt.Errorf("keyword %s translations_json: %w", k.KeywordID, err)
	}
	audio, err := decodeJSON[map[string]string](k.Audio)
	if err != nil {
		return feed.Keyword{}, fmt.Errorf("keyword %s audio_json: %w", k.KeywordID, err)
	}
	return feed.Keyword{
		ID:           k.KeywordID,
		Translations: translations,
		Audio:        audio,
		Level:        k.Level,
	}, nil
}
