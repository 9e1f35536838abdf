package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	types "github.com/yungbote/storyfeed-backend/internal/domain"
	"github.com/yungbote/storyfeed-backend/internal/domain/content"
	"github.com/yungbote/storyfeed-backend/internal/feed"
)

// Snapshot is a YAML dump of the content catalogue used for seeding a store
// and for distributing feeds offline.
type Snapshot struct {
	Stories   []Story    `yaml:"stories"`
	InfoCards []InfoCard `yaml:"info_cards"`
	Keywords  []Keyword  `yaml:"keywords"`
}

type Story struct {
	ID           string            `yaml:"id"`
	Type         string            `yaml:"type"`
	Level        string            `yaml:"level"`
	Language     string            `yaml:"language,omitempty"`
	Status       string            `yaml:"status,omitempty"`
	ImageURL     *string           `yaml:"image_url,omitempty"`
	Gradient     string            `yaml:"gradient,omitempty"`
	Keywords     []string          `yaml:"keywords"`
	Content      map[string]string `yaml:"content"`
	Translations map[string]string `yaml:"translations,omitempty"`
	Explanations map[string]string `yaml:"explanations,omitempty"`
	Audio        map[string]string `yaml:"audio,omitempty"`
	CreatedAt    time.Time         `yaml:"created_at,omitempty"`
}

type InfoCard struct {
	ID         string                          `yaml:"id"`
	Name       string                          `yaml:"name"`
	Type       string                          `yaml:"type,omitempty"`
	Order      int                             `yaml:"order"`
	ActiveDays int                             `yaml:"active_days,omitempty"`
	Content    map[string]feed.InfoCardContent `yaml:"content"`
}

type Keyword struct {
	ID           string                 `yaml:"id"`
	Level        string                 `yaml:"level,omitempty"`
	Translations map[string]Translation `yaml:"translations"`
	Audio        map[string]string      `yaml:"audio,omitempty"`
}

// Translation accepts a scalar or a sequence of synonyms.
type Translation []string

func (t *Translation) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*t = Translation{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*t = Translation(list)
		return nil
	default:
		return fmt.Errorf("line %d: translation must be a string or a list of strings", value.Line)
	}
}

func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	snap, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

func Parse(r io.Reader) (*Snapshot, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return &Snapshot{}, nil
		}
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Validate checks ids are present and unique, story levels and types are
// known, and story statuses are recognised.
func (s *Snapshot) Validate() error {
	var errs []error
	seen := map[string]bool{}
	for i, st := range s.Stories {
		switch {
		case st.ID == "":
			errs = append(errs, fmt.Errorf("stories[%d]: missing id", i))
		case seen["story:"+st.ID]:
			errs = append(errs, fmt.Errorf("stories[%d]: duplicate id %q", i, st.ID))
		}
		seen["story:"+st.ID] = true
		if _, err := feed.ParseLevel(st.Level); err != nil {
			errs = append(errs, fmt.Errorf("stories[%d]: %w", i, err))
		}
		if st.Type != feed.StoryTypeLong && st.Type != feed.StoryTypeShort {
			errs = append(errs, fmt.Errorf("stories[%d]: type must be long or short, got %q", i, st.Type))
		}
		switch st.Status {
		case "", types.StoryStatusDraft, types.StoryStatusPublished, types.StoryStatusArchived:
		default:
			errs = append(errs, fmt.Errorf("stories[%d]: unknown status %q", i, st.Status))
		}
	}
	for i, c := range s.InfoCards {
		switch {
		case c.ID == "":
			errs = append(errs, fmt.Errorf("info_cards[%d]: missing id", i))
		case seen["card:"+c.ID]:
			errs = append(errs, fmt.Errorf("info_cards[%d]: duplicate id %q", i, c.ID))
		}
		seen["card:"+c.ID] = true
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("info_cards[%d]: missing name", i))
		}
	}
	for i, k := range s.Keywords {
		switch {
		case k.ID == "":
			errs = append(errs, fmt.Errorf("keywords[%d]: missing id", i))
		case seen["keyword:"+k.ID]:
			errs = append(errs, fmt.Errorf("keywords[%d]: duplicate id %q", i, k.ID))
		}
		seen["keyword:"+k.ID] = true
	}
	return errors.Join(errs...)
}

// MissingKeywords lists story keyword ids with no keyword entry, in first-seen
// order. Carousels silently drop them.
func (s *Snapshot) MissingKeywords() []string {
	known := make(map[string]bool, len(s.Keywords))
	for _, k := range s.Keywords {
		known[k.ID] = true
	}
	var missing []string
	for _, st := range s.Stories {
		for _, id := range st.Keywords {
			if !known[id] {
				known[id] = true
				missing = append(missing, id)
			}
		}
	}
	return missing
}

// Rows converts the snapshot into store rows. Stories without a status are
// published; stories without created_at are stamped now, one microsecond
// apart so file order is kept.
func (s *Snapshot) Rows(now time.Time) ([]*types.Story, []*types.InfoCard, []*types.Keyword) {
	stories := make([]*types.Story, 0, len(s.Stories))
	for i, st := range s.Stories {
		status := st.Status
		if status == "" {
			status = types.StoryStatusPublished
		}
		created := st.CreatedAt
		if created.IsZero() {
			created = now.Add(time.Duration(i) * time.Microsecond)
		}
		keywords := st.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		level, _ := feed.ParseLevel(st.Level)
		stories = append(stories, &types.Story{
			ID:           st.ID,
			Type:         st.Type,
			Level:        string(level),
			Language:     st.Language,
			StoryStatus:  status,
			ImageURL:     st.ImageURL,
			Gradient:     st.Gradient,
			Keywords:     content.MustJSON(keywords),
			Content:      content.MustJSON(st.Content),
			Translations: content.MustJSON(st.Translations),
			Explanations: content.MustJSON(st.Explanations),
			Audio:        content.MustJSON(st.Audio),
			CreatedAt:    created,
			UpdatedAt:    now,
		})
	}

	cards := make([]*types.InfoCard, 0, len(s.InfoCards))
	for _, c := range s.InfoCards {
		cards = append(cards, &types.InfoCard{
			ID:         c.ID,
			Name:       c.Name,
			Type:       c.Type,
			SortOrder:  c.Order,
			ActiveDays: c.ActiveDays,
			Content:    content.MustJSON(c.Content),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	keywords := make([]*types.Keyword, 0, len(s.Keywords))
	for _, k := range s.Keywords {
		tr := make(map[string]feed.Translation, len(k.Translations))
		for lang, t := range k.Translations {
			tr[lang] = feed.Translation(t)
		}
		keywords = append(keywords, &types.Keyword{
			KeywordID:    k.ID,
			Translations: content.MustJSON(tr),
			Audio:        content.MustJSON(k.Audio),
			Level:        k.Level,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return stories, cards, keywords
}
