package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/facebookgo/clock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yungbote/storyfeed-backend/internal/cli/colours"
	dbpkg "github.com/yungbote/storyfeed-backend/internal/data/db"
	"github.com/yungbote/storyfeed-backend/internal/data/repos"
	"github.com/yungbote/storyfeed-backend/internal/data/snapshot"
	"github.com/yungbote/storyfeed-backend/internal/feed"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
	"github.com/yungbote/storyfeed-backend/internal/services"
)

type distributeOptions struct {
	snapshot          string
	history           string
	language          string
	level             string
	page              int
	pageSize          int
	firstVisit        string
	now               string
	seed              int64
	keywordLevelMatch bool
	asJSON            bool
}

func newDistributeCommand(v *viper.Viper) *cobra.Command {
	opts := &distributeOptions{}
	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Preview one feed page built from a snapshot",
		Long: `Loads a snapshot into a throwaway in-memory store and runs the same
feed service the API uses, so the output matches what /api/feed would return
for the same content.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(v, cmd, map[string]string{
				"snapshot":  "snapshot",
				"language":  "feed.language",
				"level":     "feed.level",
				"page-size": "feed.page_size",
			}); err != nil {
				return err
			}
			opts.snapshot = v.GetString("snapshot")
			opts.language = v.GetString("feed.language")
			opts.level = v.GetString("feed.level")
			opts.pageSize = v.GetInt("feed.page_size")
			log, err := newLogger(v)
			if err != nil {
				return err
			}
			defer log.Sync()
			return runDistribute(cmd.Context(), cmd.OutOrStdout(), log, opts)
		},
	}
	f := cmd.Flags()
	f.String("snapshot", "", "snapshot YAML file")
	f.String("language", "", "target language")
	f.String("level", "", "reader level (A1..C2)")
	f.Int("page-size", 0, "page size")
	f.StringVar(&opts.history, "history", "", "JSON file with a view history array")
	f.IntVar(&opts.page, "page", 1, "page number (1-based)")
	f.StringVar(&opts.firstVisit, "first-visit", "", `first visit time (RFC3339 or "now")`)
	f.StringVar(&opts.now, "now", "", "reference time (RFC3339), default current time")
	f.Int64Var(&opts.seed, "seed", -1, "random seed for reproducible output; negative means random")
	f.BoolVar(&opts.keywordLevelMatch, "keyword-level-match", false, "restrict carousel keywords to the reader level")
	f.BoolVar(&opts.asJSON, "json", false, "print the page as JSON")
	return cmd
}

func parseTimeFlag(name, raw string, now time.Time) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "":
		return nil, nil
	case "now":
		return &now, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}

func loadHistory(path string) ([]feed.ViewRecord, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var history []feed.ViewRecord
	if err := json.Unmarshal(b, &history); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", path, err)
	}
	return history, nil
}

func runDistribute(ctx context.Context, out io.Writer, log *logger.Logger, opts *distributeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	snap, err := snapshot.Load(opts.snapshot)
	if err != nil {
		return err
	}
	history, err := loadHistory(opts.history)
	if err != nil {
		return err
	}

	clk := clock.Clock(clock.New())
	now := time.Now()
	if t, err := parseTimeFlag("now", opts.now, now); err != nil {
		return err
	} else if t != nil {
		mock := clock.NewMock()
		mock.Add(t.Sub(mock.Now()))
		clk, now = mock, *t
	}
	firstVisit, err := parseTimeFlag("first-visit", opts.firstVisit, now)
	if err != nil {
		return err
	}

	store, err := dbpkg.Open(dbpkg.Config{Driver: dbpkg.DriverSQLite, DSN: ":memory:"}, log)
	if err != nil {
		return err
	}
	defer store.Close()
	db := store.DB()
	if err := dbpkg.AutoMigrateAll(db); err != nil {
		return err
	}
	stories := repos.NewStoryRepo(db, log)
	cards := repos.NewInfoCardRepo(db, log)
	keywords := repos.NewKeywordRepo(db, log)
	if _, err := services.NewContentService(db, log, clk, stories, cards, keywords).Import(ctx, snap); err != nil {
		return err
	}

	deps := services.FeedDeps{Stories: stories, InfoCards: cards, Keywords: keywords, Clock: clk}
	if opts.seed >= 0 {
		seed := uint64(opts.seed)
		deps.NewRand = func() feed.Rand { return rand.New(rand.NewPCG(seed, seed)) }
	}
	svc := services.NewFeedService(log, services.FeedConfig{KeywordLevelMatch: opts.keywordLevelMatch}, deps)
	page, err := svc.GetFeed(ctx, services.FeedRequest{
		TargetLanguage: opts.language,
		Level:          opts.level,
		ViewHistory:    history,
		FirstVisit:     firstVisit,
		Page:           opts.page,
		PageSize:       opts.pageSize,
	})
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}
	printPage(out, page, opts.language)
	return nil
}

func printPage(out io.Writer, page *services.FeedPage, lang string) {
	colours.Title.Fprintf(out, "%d items\n", len(page.Items))
	for i, it := range page.Items {
		prefix := colours.Muted.Sprintf("%3d ", i+1)
		switch it.Type {
		case feed.ItemStory:
			text := truncate(it.Story.Content[lang], 60)
			fmt.Fprintln(out, prefix+colours.Story.Sprintf("story      %-12s %-2s %s", it.Story.ID, it.Story.Level, text))
		case feed.ItemInfoCard:
			fmt.Fprintln(out, prefix+colours.InfoCard.Sprintf("info_card  %-12s %s", it.InfoCard.ID, it.InfoCard.Name))
		case feed.ItemTryBadge:
			fmt.Fprintln(out, prefix+colours.Badge.Sprint("try_badge"))
		case feed.ItemKeywordsCarousel:
			words := make([]string, 0, len(it.KeywordIDs))
			for _, id := range it.KeywordIDs {
				word := id
				if kw, ok := page.Keywords[id]; ok {
					if en := kw.Translations["en"].Canonical(); en != "" {
						word = id + "=" + en
					}
				}
				words = append(words, word)
			}
			fmt.Fprintln(out, prefix+colours.Carousel.Sprintf("carousel   %s", strings.Join(words, ", ")))
		}
	}
	if page.HasMore {
		colours.Muted.Fprintf(out, "more content on page %d\n", *page.NextPage)
	}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
