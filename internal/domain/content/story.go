package content

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/storyfeed-backend/internal/feed"
)

const (
	StoryStatusDraft     = "draft"
	StoryStatusPublished = "published"
	StoryStatusArchived  = "archived"

	// FallbackAudioLanguage is used when a story has no narration in the
	// requested language.
	FallbackAudioLanguage = "en"
)

type Story struct {
	ID          string  `gorm:"column:id;primaryKey" json:"id"`
	Type        string  `gorm:"column:type;not null" json:"type"`
	Level       string  `gorm:"column:level;not null;index" json:"level"`
	Language    string  `gorm:"column:language;index" json:"language,omitempty"`
	StoryStatus string  `gorm:"column:story_status;not null;index" json:"story_status"`
	ImageURL    *string `gorm:"column:image_url" json:"image_url,omitempty"`
	Gradient    string  `gorm:"column:gradient" json:"gradient,omitempty"`
	// Keywords is a JSON array of keyword ids.
	Keywords     datatypes.JSON `gorm:"column:keywords" json:"keywords"`
	Content      datatypes.JSON `gorm:"column:content_json" json:"content_json"`
	Translations datatypes.JSON `gorm:"column:translations_json" json:"translations_json"`
	Explanations datatypes.JSON `gorm:"column:explanations_json" json:"explanations_json"`
	Audio        datatypes.JSON `gorm:"column:audio_json" json:"audio_json"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (Story) TableName() string { return "story" }

// AvailableIn reports whether the story can be served to readers of lang:
// its content for lang is a non-blank string and its language column is
// either unset or equal to lang.
func (s *Story) AvailableIn(lang string) bool {
	if s == nil || lang == "" {
		return false
	}
	if s.Language != "" && s.Language != lang {
		return false
	}
	content, err := decodeJSON[map[string]any](s.Content)
	if err != nil {
		return false
	}
	text, ok := content[lang].(string)
	return ok && strings.TrimSpace(text) != ""
}

// ToFeed converts the row into the distributor's story shape, resolving the
// audio url for lang with an English fallback.
func (s *Story) ToFeed(lang string) (feed.Story, error) {
	keywords, err := decodeJSON[[]string](s.Keywords)
	if err != nil {
		return feed.Story{}, fmt.Errorf("story %s keywords: %w", s.ID, err)
	}
	contentMap, err := decodeJSON[map[string]string](s.Content)
	if err != nil {
		return feed.Story{}, fmt.Errorf("story %s content_json: %w", s.ID, err)
	}
	translations, err := decodeJSON[map[string]string](s.Translations)
	if err != nil {
		return feed.Story{}, fmt.Errorf("story %s translations_json: %w", s.ID, err)
	}
	explanations, err := decodeJSON[map[string]string](s.Explanations)
	if err != nil {
		return feed.Story{}, fmt.Errorf("story %s explanations_json: %w", s.ID, err)
	}
	audio, err := decodeJSON[map[string]string](s.Audio)
	if err != nil {
		return feed.Story{}, fmt.Errorf("story %s audio_json: %w", s.ID, err)
	}
	if keywords == nil {
		keywords = []string{}
	}
	audioURL := audio[lang]
	if audioURL == "" {
		audioURL = audio[FallbackAudioLanguage]
	}
	return feed.Story{
		ID:           s.ID,
		Type:         s.Type,
		Level:        s.Level,
		Keywords:     keywords,
		ImageURL:     s.ImageURL,
		AudioURL:     audioURL,
		Content:      contentMap,
		Translations: translations,
		Explanations: explanations,
		Gradient:     s.Gradient,
	}, nil
}
