package services

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	dbpkg "github.com/yungbote/storyfeed-backend/internal/data/db"
	"github.com/yungbote/storyfeed-backend/internal/data/repos"
	"github.com/yungbote/storyfeed-backend/internal/data/snapshot"
	"github.com/yungbote/storyfeed-backend/internal/feed"
)

const library = `
stories:
  - {id: s1, type: short, level: A1, keywords: [maison], content: {fr: "La maison."}}
  - {id: s2, type: short, level: A2, keywords: [riviere], content: {fr: "La rivière."}}
  - {id: s3, type: long, level: B1, keywords: [pont], content: {fr: "Le pont."}}
  - {id: s4, type: short, level: A1, content: {es: "Solo en español."}}
  - {id: s5, type: short, level: A1, status: draft, content: {fr: "Brouillon."}}
  - {id: s6, type: short, level: C1, content: {fr: "Trop difficile."}}
info_cards:
  - {id: c0, name: welcome, order: 0, content: {en: {title: Hi, description: Welcome}}}
  - {id: c1, name: culture-1, type: culture, order: 1, content: {en: {title: Culture, description: Croissants}}}
keywords:
  - {id: maison, level: A1, translations: {en: house}}
  - {id: riviere, level: A2, translations: {en: [river, stream]}}
  - {id: pont, level: B1, translations: {en: bridge}}
`

func openStore(t *testing.T) *dbpkg.Service {
	t.Helper()
	svc, err := dbpkg.Open(dbpkg.Config{Driver: dbpkg.DriverSQLite, DSN: ":memory:"}, testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	if err := dbpkg.AutoMigrateAll(svc.DB()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return svc
}

func TestImportThenServeFeed(t *testing.T) {
	store := openStore(t)
	db := store.DB()
	log := testLogger()
	stories := repos.NewStoryRepo(db, log)
	cards := repos.NewInfoCardRepo(db, log)
	keywords := repos.NewKeywordRepo(db, log)
	ctx := context.Background()

	snap, err := snapshot.Parse(strings.NewReader(library))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res, err := NewContentService(db, log, mockClock(), stories, cards, keywords).Import(ctx, snap)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res != (ImportResult{Stories: 6, InfoCards: 2, Keywords: 3}) {
		t.Fatalf("import result: got=%+v", res)
	}
	// Importing twice is an upsert, not a duplicate.
	if _, err := NewContentService(db, log, mockClock(), stories, cards, keywords).Import(ctx, snap); err != nil {
		t.Fatalf("re-Import: %v", err)
	}

	svc := NewFeedService(log, FeedConfig{}, FeedDeps{
		Stories:   stories,
		InfoCards: cards,
		Keywords:  keywords,
		Views:     repos.NewViewRecordRepo(db, log),
		Clock:     mockClock(),
	})
	page, err := svc.GetFeed(ctx, FeedRequest{
		TargetLanguage: "fr",
		Level:          "B1",
		FirstVisit:     ptrTime(testNow.Add(-time.Minute)),
	})
	if err != nil {
		t.Fatalf("GetFeed: %v", err)
	}

	got := map[string]bool{}
	for _, id := range storyItemIDs(page.Items) {
		if got[id] {
			t.Fatalf("story %s emitted twice", id)
		}
		got[id] = true
	}
	if len(got) != 3 || !got["s1"] || !got["s2"] || !got["s3"] {
		t.Fatalf("stories: got=%v want s1 s2 s3", got)
	}
	if page.Items[0].Type != feed.ItemInfoCard || page.Items[0].InfoCard.Name != feed.WelcomeCardName || page.Items[1].Type != feed.ItemTryBadge {
		t.Fatalf("welcome block missing: got=%v %v", page.Items[0].Type, page.Items[1].Type)
	}
	if len(page.Keywords) != 3 || page.Keywords["riviere"].Translations["en"].Canonical() != "river" {
		t.Fatalf("keywords: got=%+v", page.Keywords)
	}
	if page.HasMore {
		t.Fatalf("hasMore: got=true want=false")
	}
}

func TestImportRejectsInvalidSnapshot(t *testing.T) {
	store := openStore(t)
	db := store.DB()
	log := testLogger()
	svc := NewContentService(db, log, mockClock(), repos.NewStoryRepo(db, log), repos.NewInfoCardRepo(db, log), repos.NewKeywordRepo(db, log))

	_, err := svc.Import(context.Background(), &snapshot.Snapshot{Stories: []snapshot.Story{{ID: "x", Type: "poem", Level: "A1"}}})
	wantAPIErr(t, err, http.StatusBadRequest, "invalid_snapshot")
}
