package services

import (
	"context"
	"fmt"

	"github.com/facebookgo/clock"
	"gorm.io/gorm"

	"github.com/yungbote/storyfeed-backend/internal/data/repos"
	"github.com/yungbote/storyfeed-backend/internal/data/snapshot"
	"github.com/yungbote/storyfeed-backend/internal/platform/apierr"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

type ImportResult struct {
	Stories   int `json:"stories"`
	InfoCards int `json:"info_cards"`
	Keywords  int `json:"keywords"`
}

// ContentService loads authored content into the store.
type ContentService interface {
	Import(ctx context.Context, snap *snapshot.Snapshot) (ImportResult, error)
}

type keywordInvalidator interface {
	Invalidate(ctx context.Context, ids []string) error
}

type contentService struct {
	db        *gorm.DB
	log       *logger.Logger
	clk       clock.Clock
	stories   repos.StoryRepo
	infoCards repos.InfoCardRepo
	keywords  repos.KeywordRepo
}

func NewContentService(db *gorm.DB, log *logger.Logger, clk clock.Clock, stories repos.StoryRepo, infoCards repos.InfoCardRepo, keywords repos.KeywordRepo) ContentService {
	if clk == nil {
		clk = clock.New()
	}
	return &contentService{
		db:        db,
		log:       log.With("service", "ContentService"),
		clk:       clk,
		stories:   stories,
		infoCards: infoCards,
		keywords:  keywords,
	}
}

// Import upserts every row of snap in one transaction.
func (s *contentService) Import(ctx context.Context, snap *snapshot.Snapshot) (ImportResult, error) {
	if snap == nil {
		return ImportResult{}, nil
	}
	if err := snap.Validate(); err != nil {
		return ImportResult{}, apierr.BadRequest("invalid_snapshot", "%v", err)
	}
	stories, cards, keywords := snap.Rows(s.clk.Now().UTC())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.keywords.Upsert(ctx, tx, keywords); err != nil {
			return fmt.Errorf("upsert keywords: %w", err)
		}
		if err := s.stories.Upsert(ctx, tx, stories); err != nil {
			return fmt.Errorf("upsert stories: %w", err)
		}
		if err := s.infoCards.Upsert(ctx, tx, cards); err != nil {
			return fmt.Errorf("upsert info cards: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("content import failed", "error", err)
		return ImportResult{}, apierr.Internal("content_store_unavailable", err)
	}

	// Readers may have re-cached old keyword rows before the commit.
	if inv, ok := s.keywords.(keywordInvalidator); ok && len(keywords) > 0 {
		ids := make([]string, 0, len(keywords))
		for _, k := range keywords {
			ids = append(ids, k.KeywordID)
		}
		if err := inv.Invalidate(ctx, ids); err != nil {
			s.log.Warn("keyword cache invalidation after import failed", "error", err)
		}
	}

	res := ImportResult{Stories: len(stories), InfoCards: len(cards), Keywords: len(keywords)}
	s.log.Info("content imported", "stories", res.Stories, "info_cards", res.InfoCards, "keywords", res.Keywords)
	return res, nil
}
