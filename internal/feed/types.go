package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	StoryTypeLong  = "long"
	StoryTypeShort = "short"

	ContentTypeStory    = "story"
	ContentTypeInfoCard = "info_card"

	// WelcomeCardName marks the onboarding card.
	WelcomeCardName = "welcome"
)

type Story struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	Level        string            `json:"level"`
	Keywords     []string          `json:"keywords"`
	ImageURL     *string           `json:"imageUrl"`
	AudioURL     string            `json:"audioUrl,omitempty"`
	Content      map[string]string `json:"content_json,omitempty"`
	Translations map[string]string `json:"translations_json,omitempty"`
	Explanations map[string]string `json:"explanations_json,omitempty"`
	Gradient     string            `json:"gradient,omitempty"`
}

type InfoCardContent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Quote       string `json:"quote,omitempty"`
}

type InfoCard struct {
	ID         string                     `json:"id"`
	Name       string                     `json:"name"`
	Type       string                     `json:"type,omitempty"`
	ActiveDays int                        `json:"active_days,omitempty"`
	Content    map[string]InfoCardContent `json:"content_json"`
}

// Translation holds one or more synonyms; the first entry is canonical.
// It decodes from either a JSON string or a JSON array of strings.
type Translation []string

func (t Translation) Canonical() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

func (t Translation) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

func (t *Translation) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = nil
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Translation{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("translation must be a string or a list of strings: %w", err)
	}
	*t = Translation(list)
	return nil
}

type Keyword struct {
	ID           string                 `json:"keyword_id"`
	Translations map[string]Translation `json:"translations_json"`
	Audio        map[string]string      `json:"audio_json"`
	Level        string                 `json:"level,omitempty"`
}

type ViewRecord struct {
	ContentID   string    `json:"id"`
	ContentType string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
}

type ItemType string

const (
	ItemStory            ItemType = "story"
	ItemInfoCard         ItemType = "info_card"
	ItemTryBadge         ItemType = "try_badge"
	ItemKeywordsCarousel ItemType = "keywords_carousel"
)

// Item is one entry of a distributed feed. Exactly one payload field is set
// for story, info_card and keywords_carousel items; try_badge has none.
type Item struct {
	Type       ItemType
	Story      *Story
	InfoCard   *InfoCard
	KeywordIDs []string
}

type carouselData struct {
	IDs []string `json:"ids"`
}

type wireItem struct {
	Type ItemType        `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func (i Item) MarshalJSON() ([]byte, error) {
	var data any
	switch i.Type {
	case ItemStory:
		data = i.Story
	case ItemInfoCard:
		data = i.InfoCard
	case ItemKeywordsCarousel:
		ids := i.KeywordIDs
		if ids == nil {
			ids = []string{}
		}
		data = carouselData{IDs: ids}
	case ItemTryBadge:
		return json.Marshal(wireItem{Type: i.Type})
	default:
		return nil, fmt.Errorf("unknown feed item type %q", i.Type)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireItem{Type: i.Type, Data: raw})
}

func (i *Item) UnmarshalJSON(b []byte) error {
	var w wireItem
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	out := Item{Type: w.Type}
	switch w.Type {
	case ItemStory:
		out.Story = &Story{}
		if err := json.Unmarshal(w.Data, out.Story); err != nil {
			return fmt.Errorf("story item: %w", err)
		}
	case ItemInfoCard:
		out.InfoCard = &InfoCard{}
		if err := json.Unmarshal(w.Data, out.InfoCard); err != nil {
			return fmt.Errorf("info_card item: %w", err)
		}
	case ItemKeywordsCarousel:
		var d carouselData
		if err := json.Unmarshal(w.Data, &d); err != nil {
			return fmt.Errorf("keywords_carousel item: %w", err)
		}
		out.KeywordIDs = d.IDs
	case ItemTryBadge:
	default:
		return fmt.Errorf("unknown feed item type %q", w.Type)
	}
	*i = out
	return nil
}
