package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/storyfeed-backend/internal/domain"
	"github.com/yungbote/storyfeed-backend/internal/domain/content"
)

// StorySeed describes a story row; zero fields get sensible defaults.
type StorySeed struct {
	ID        string
	Level     string
	Language  string
	Status    string
	Keywords  []string
	Content   map[string]string
	Audio     map[string]string
	CreatedAt time.Time
}

func SeedStory(tb testing.TB, ctx context.Context, tx *gorm.DB, s StorySeed) *types.Story {
	tb.Helper()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Level == "" {
		s.Level = "A1"
	}
	if s.Status == "" {
		s.Status = types.StoryStatusPublished
	}
	if s.Content == nil {
		s.Content = map[string]string{"fr": "Il était une fois " + s.ID}
	}
	if s.Keywords == nil {
		s.Keywords = []string{}
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	row := &types.Story{
		ID:          s.ID,
		Type:        "short",
		Level:       s.Level,
		Language:    s.Language,
		StoryStatus: s.Status,
		Keywords:    content.MustJSON(s.Keywords),
		Content:     content.MustJSON(s.Content),
		Audio:       content.MustJSON(s.Audio),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.CreatedAt,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed story: %v", err)
	}
	return row
}

func SeedInfoCard(tb testing.TB, ctx context.Context, tx *gorm.DB, id, name string, order int) *types.InfoCard {
	tb.Helper()
	row := &types.InfoCard{
		ID:        id,
		Name:      name,
		Type:      types.InfoCardTypeTip,
		SortOrder: order,
		Content:   content.MustJSON(map[string]map[string]string{"en": {"title": name, "description": "about " + name}}),
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed info card: %v", err)
	}
	return row
}

func SeedKeyword(tb testing.TB, ctx context.Context, tx *gorm.DB, id, level string) *types.Keyword {
	tb.Helper()
	row := &types.Keyword{
		KeywordID:    id,
		Translations: content.MustJSON(map[string]string{"en": id}),
		Audio:        content.MustJSON(map[string]string{}),
		Level:        level,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed keyword: %v", err)
	}
	return row
}

func PtrTime(v time.Time) *time.Time { return &v }
