package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/facebookgo/clock"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/storyfeed-backend/internal/data/repos"
	types "github.com/yungbote/storyfeed-backend/internal/domain"
	"github.com/yungbote/storyfeed-backend/internal/feed"
	"github.com/yungbote/storyfeed-backend/internal/observability"
	"github.com/yungbote/storyfeed-backend/internal/platform/apierr"
	"github.com/yungbote/storyfeed-backend/internal/platform/ctxutil"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

type FeedRequest struct {
	TargetLanguage string            `json:"targetLanguage"`
	Level          string            `json:"level"`
	ViewHistory    []feed.ViewRecord `json:"viewHistory"`
	FirstVisit     *time.Time        `json:"firstVisit"`
	Page           int               `json:"page"`
	PageSize       int               `json:"pageSize"`
	DeviceID       string            `json:"deviceId,omitempty"`
}

type FeedPage struct {
	Items    []feed.Item             `json:"items"`
	Keywords map[string]feed.Keyword `json:"keywords"`
	HasMore  bool                    `json:"hasMore"`
	NextPage *int                    `json:"nextPage"`
}

type FeedConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	// KeywordLevelMatch limits carousel keywords to the reader's exact level.
	KeywordLevelMatch bool
	// HistoryLimit caps the server-side view log loaded per request.
	HistoryLimit int
}

// FeedMetrics is the slice of *observability.Metrics the feed path reports to.
type FeedMetrics interface {
	IncFeedRequest(outcome string)
	AddFeedItems(itemType string, n int)
	ObserveFeedStage(stage string, dur time.Duration)
	ObservePageStories(language string, n int)
}

type FeedService interface {
	GetFeed(ctx context.Context, req FeedRequest) (*FeedPage, error)
}

type feedService struct {
	log       *logger.Logger
	cfg       FeedConfig
	clk       clock.Clock
	newRand   func() feed.Rand
	metrics   FeedMetrics
	stories   repos.StoryRepo
	infoCards repos.InfoCardRepo
	keywords  repos.KeywordRepo
	views     repos.ViewRecordRepo
}

type FeedDeps struct {
	Stories   repos.StoryRepo
	InfoCards repos.InfoCardRepo
	Keywords  repos.KeywordRepo
	// Views is optional; without it device history is never loaded.
	Views   repos.ViewRecordRepo
	Clock   clock.Clock
	Metrics FeedMetrics
	// NewRand returns the generator for one request. Nil uses the shared
	// package-level generator.
	NewRand func() feed.Rand
}

func NewFeedService(log *logger.Logger, cfg FeedConfig, deps FeedDeps) FeedService {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = MaxPageSize
	}
	if cfg.DefaultPageSize > cfg.MaxPageSize {
		cfg.DefaultPageSize = cfg.MaxPageSize
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &feedService{
		log:       log.With("service", "FeedService"),
		cfg:       cfg,
		clk:       clk,
		newRand:   deps.NewRand,
		metrics:   deps.Metrics,
		stories:   deps.Stories,
		infoCards: deps.InfoCards,
		keywords:  deps.Keywords,
		views:     deps.Views,
	}
}

type pageWindow struct {
	page   int
	size   int
	offset int
	levels []string
	level  feed.Level
	lang   string
}

func (s *feedService) window(req FeedRequest) (pageWindow, error) {
	lang := strings.TrimSpace(req.TargetLanguage)
	if lang == "" {
		return pageWindow{}, apierr.BadRequest("missing_target_language", "targetLanguage is required")
	}
	level, err := feed.ParseLevel(req.Level)
	if err != nil {
		return pageWindow{}, apierr.BadRequest("invalid_level", "%v", err)
	}
	if req.Page < 0 {
		return pageWindow{}, apierr.BadRequest("invalid_page", "page must be >= 1, got %d", req.Page)
	}
	if req.PageSize < 0 {
		return pageWindow{}, apierr.BadRequest("invalid_page_size", "pageSize must be positive, got %d", req.PageSize)
	}
	page := req.Page
	if page == 0 {
		page = 1
	}
	size := req.PageSize
	if size == 0 {
		size = s.cfg.DefaultPageSize
	}
	if size > s.cfg.MaxPageSize {
		size = s.cfg.MaxPageSize
	}
	return pageWindow{
		page:   page,
		size:   size,
		offset: (page - 1) * size,
		levels: feed.LevelStrings(feed.AccessibleLevels(level)),
		level:  level,
		lang:   lang,
	}, nil
}

func (s *feedService) observe(stage string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveFeedStage(stage, time.Since(start))
	}
}

func (s *feedService) outcome(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.IncFeedRequest("ok")
	case apierr.As(err).Status < 500:
		s.metrics.IncFeedRequest("bad_request")
	default:
		s.metrics.IncFeedRequest("error")
	}
}

// GetFeed loads one page of content from the store and distributes it.
// hasMore reflects the store window only, not the number of items emitted.
func (s *feedService) GetFeed(ctx context.Context, req FeedRequest) (page *FeedPage, err error) {
	ctx, span := observability.Tracer().Start(ctx, "feed.GetFeed")
	defer func() {
		s.outcome(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	w, err := s.window(req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("feed.language", w.lang),
		attribute.String("feed.level", string(w.level)),
		attribute.Int("feed.page", w.page),
		attribute.Int("feed.page_size", w.size),
	)

	var (
		total   int64
		rows    []*types.Story
		cards   []*types.InfoCard
		history = req.ViewHistory
	)
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.stories.CountPublished(gctx, nil, w.levels)
		if err != nil {
			return fmt.Errorf("count stories: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		out, err := s.stories.ListPublished(gctx, nil, w.levels, w.offset, w.size)
		if err != nil {
			return fmt.Errorf("list stories: %w", err)
		}
		rows = out
		return nil
	})
	g.Go(func() error {
		out, err := s.infoCards.ListOrdered(gctx, nil, w.offset, w.size)
		if err != nil {
			return fmt.Errorf("list info cards: %w", err)
		}
		cards = out
		return nil
	})
	if len(history) == 0 && req.DeviceID != "" && s.views != nil {
		g.Go(func() error {
			out, err := s.views.ListByDevice(gctx, nil, req.DeviceID, s.cfg.HistoryLimit)
			if err != nil {
				return fmt.Errorf("load view history: %w", err)
			}
			history = make([]feed.ViewRecord, 0, len(out))
			for _, v := range out {
				history = append(history, v.ToFeed())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.With(ctxutil.LogFields(ctx)...).Error("feed store read failed", "error", err, "device_id", req.DeviceID)
		return nil, apierr.Internal("content_store_unavailable", err)
	}
	s.observe("load", start)

	stories, keywordIDs := s.availableStories(ctx, rows, w.lang)
	if s.metrics != nil {
		s.metrics.ObservePageStories(w.lang, len(stories))
	}

	infoCards := s.feedCards(ctx, cards)

	start = time.Now()
	keywords, err := s.loadKeywords(ctx, keywordIDs, w.level)
	if err != nil {
		s.log.With(ctxutil.LogFields(ctx)...).Error("keyword read failed", "error", err)
		return nil, apierr.Internal("content_store_unavailable", err)
	}
	s.observe("keywords", start)

	opts := feed.Options{Now: s.clk.Now()}
	if s.newRand != nil {
		opts.Rand = s.newRand()
	}
	if s.cfg.KeywordLevelMatch {
		opts.KeywordLevel = string(w.level)
	}
	start = time.Now()
	items := feed.Distribute(feed.Input{
		Stories:     stories,
		InfoCards:   infoCards,
		Keywords:    keywords,
		ViewHistory: history,
		FirstVisit:  req.FirstVisit,
	}, opts)
	s.observe("distribute", start)
	s.countItems(items)

	out := &FeedPage{
		Items:    items,
		Keywords: keywords,
		HasMore:  int64(w.offset+w.size) < total,
	}
	if out.HasMore {
		next := w.page + 1
		out.NextPage = &next
	}
	span.SetAttributes(
		attribute.Int("feed.items", len(items)),
		attribute.Int64("feed.total_stories", total),
		attribute.Bool("feed.has_more", out.HasMore),
	)
	return out, nil
}

// availableStories drops stories without content in lang and collects the
// keyword ids the remaining stories reference, in first-seen order. Rows
// whose JSON columns do not decode are skipped with a warning.
func (s *feedService) availableStories(ctx context.Context, rows []*types.Story, lang string) ([]feed.Story, []string) {
	stories := make([]feed.Story, 0, len(rows))
	seen := map[string]bool{}
	var ids []string
	var convErr error
	for _, row := range rows {
		if !row.AvailableIn(lang) {
			continue
		}
		st, err := row.ToFeed(lang)
		if err != nil {
			convErr = errors.Join(convErr, err)
			continue
		}
		stories = append(stories, st)
		for _, id := range st.Keywords {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if convErr != nil {
		s.log.With(ctxutil.LogFields(ctx)...).Warn("skipping undecodable stories", "error", convErr)
	}
	return stories, ids
}

func (s *feedService) feedCards(ctx context.Context, rows []*types.InfoCard) []feed.InfoCard {
	cards := make([]feed.InfoCard, 0, len(rows))
	var convErr error
	for _, row := range rows {
		fc, err := row.ToFeed()
		if err != nil {
			convErr = errors.Join(convErr, err)
			continue
		}
		cards = append(cards, fc)
	}
	if convErr != nil {
		s.log.With(ctxutil.LogFields(ctx)...).Warn("skipping undecodable info cards", "error", convErr)
	}
	return cards
}

func (s *feedService) loadKeywords(ctx context.Context, ids []string, level feed.Level) (map[string]feed.Keyword, error) {
	out := make(map[string]feed.Keyword, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.keywords.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}
	var convErr error
	for _, row := range rows {
		if row == nil {
			continue
		}
		if s.cfg.KeywordLevelMatch && row.Level != string(level) {
			continue
		}
		kw, err := row.ToFeed()
		if err != nil {
			convErr = errors.Join(convErr, err)
			continue
		}
		out[kw.ID] = kw
	}
	if convErr != nil {
		s.log.With(ctxutil.LogFields(ctx)...).Warn("skipping undecodable keywords", "error", convErr)
	}
	return out, nil
}

func (s *feedService) countItems(items []feed.Item) {
	if s.metrics == nil {
		return
	}
	counts := map[feed.ItemType]int{}
	for _, it := range items {
		counts[it.Type]++
	}
	for t, n := range counts {
		s.metrics.AddFeedItems(string(t), n)
	}
}
