package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"gorm.io/gorm"

	types "github.com/yungbote/storyfeed-backend/internal/domain"
	"github.com/yungbote/storyfeed-backend/internal/domain/content"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func testLogger() *logger.Logger { return logger.Nop() }

func mockClock() *clock.Mock {
	m := clock.NewMock()
	m.Add(testNow.Sub(m.Now()))
	return m
}

type fakeStories struct {
	rows    []*types.Story
	err     error
	listed  []int // offset, limit of the last ListPublished
	counted []string
}

func (f *fakeStories) published(levels []string) []*types.Story {
	allowed := map[string]bool{}
	for _, l := range levels {
		allowed[l] = true
	}
	var out []*types.Story
	for _, r := range f.rows {
		if r.StoryStatus == types.StoryStatusPublished && allowed[r.Level] {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *fakeStories) CountPublished(ctx context.Context, tx *gorm.DB, levels []string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.counted = levels
	return int64(len(f.published(levels))), nil
}

func (f *fakeStories) ListPublished(ctx context.Context, tx *gorm.DB, levels []string, offset, limit int) ([]*types.Story, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.listed = []int{offset, limit}
	all := f.published(levels)
	if offset >= len(all) {
		return []*types.Story{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (f *fakeStories) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Story) error {
	return nil
}

type fakeInfoCards struct {
	rows []*types.InfoCard
	err  error
}

func (f *fakeInfoCards) ListOrdered(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.InfoCard, error) {
	if f.err != nil {
		return nil, f.err
	}
	if offset >= len(f.rows) {
		return []*types.InfoCard{}, nil
	}
	end := len(f.rows)
	if limit > 0 {
		end = min(offset+limit, end)
	}
	return f.rows[offset:end], nil
}

func (f *fakeInfoCards) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.InfoCard) error {
	return nil
}

type fakeKeywords struct {
	rows      map[string]*types.Keyword
	err       error
	requested []string
}

func (f *fakeKeywords) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Keyword, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requested = append([]string(nil), ids...)
	var out []*types.Keyword
	for _, id := range ids {
		if r, ok := f.rows[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeKeywords) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Keyword) error {
	return nil
}

type fakeViews struct {
	mu   sync.Mutex
	rows []*types.ViewRecord
	err  error
}

func (f *fakeViews) Create(ctx context.Context, tx *gorm.DB, rows []*types.ViewRecord) ([]*types.ViewRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, rows...)
	return rows, nil
}

func (f *fakeViews) ListByDevice(ctx context.Context, tx *gorm.DB, deviceID string, limit int) ([]*types.ViewRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.ViewRecord
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].DeviceID == deviceID {
			out = append(out, f.rows[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeViews) DeleteByDevice(ctx context.Context, tx *gorm.DB, deviceID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	var n int64
	for _, r := range f.rows {
		if r.DeviceID == deviceID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return n, nil
}

func storyRow(id, level string, created time.Time, keywords ...string) *types.Story {
	if keywords == nil {
		keywords = []string{}
	}
	return &types.Story{
		ID:          id,
		Type:        "short",
		Level:       level,
		StoryStatus: types.StoryStatusPublished,
		Keywords:    content.MustJSON(keywords),
		Content:     content.MustJSON(map[string]string{"fr": "histoire " + id, "de": "Geschichte " + id}),
		Audio:       content.MustJSON(map[string]string{"en": "https://cdn/" + id + ".mp3"}),
		CreatedAt:   created,
	}
}

func cardRow(id, name string, order int) *types.InfoCard {
	return &types.InfoCard{
		ID:        id,
		Name:      name,
		SortOrder: order,
		Content:   content.MustJSON(map[string]map[string]string{"en": {"title": name, "description": name}}),
	}
}

func keywordRow(id, level string) *types.Keyword {
	return &types.Keyword{
		KeywordID:    id,
		Translations: content.MustJSON(map[string]string{"en": id}),
		Audio:        content.MustJSON(map[string]string{}),
		Level:        level,
	}
}

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
	items    map[string]int
	views    map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{items: map[string]int{}, views: map[string]int{}}
}

func (m *recordingMetrics) IncFeedRequest(outcome string) {
	m.mu.Lock()
	m.outcomes = append(m.outcomes, outcome)
	m.mu.Unlock()
}

func (m *recordingMetrics) AddFeedItems(itemType string, n int) {
	m.mu.Lock()
	m.items[itemType] += n
	m.mu.Unlock()
}

func (m *recordingMetrics) ObserveFeedStage(string, time.Duration) {}
func (m *recordingMetrics) ObservePageStories(string, int)         {}

func (m *recordingMetrics) IncViewRecorded(contentType string) {
	m.mu.Lock()
	m.views[contentType]++
	m.mu.Unlock()
}
