package feed

import (
	"fmt"
	"math/rand/v2"
	"reflect"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func makeStories(n int) []Story {
	out := make([]Story, n)
	for i := range out {
		out[i] = Story{ID: fmt.Sprintf("s%d", i+1), Type: StoryTypeShort, Level: "A1"}
	}
	return out
}

func makeCards(names ...string) []InfoCard {
	out := make([]InfoCard, len(names))
	for i, n := range names {
		out[i] = InfoCard{ID: "c-" + n, Name: n}
	}
	return out
}

func storyIDs(items []Item) []string {
	var ids []string
	for _, it := range items {
		if it.Type == ItemStory {
			ids = append(ids, it.Story.ID)
		}
	}
	return ids
}

func types(items []Item) []ItemType {
	out := make([]ItemType, len(items))
	for i, it := range items {
		out[i] = it.Type
	}
	return out
}

func TestDistributeEmpty(t *testing.T) {
	got := Distribute(Input{}, Options{Now: testNow})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil feed, got=%v", got)
	}
}

func TestDistributeWelcomeGate(t *testing.T) {
	cards := makeCards("welcome", "tip-1")
	stories := makeStories(2)

	t.Run("fresh_visit", func(t *testing.T) {
		first := testNow
		items := Distribute(Input{Stories: stories, InfoCards: cards, FirstVisit: &first}, Options{Now: testNow, Rand: seeded(1)})
		if len(items) < 2 {
			t.Fatalf("feed too short: %v", types(items))
		}
		if items[0].Type != ItemInfoCard || items[0].InfoCard.Name != WelcomeCardName {
			t.Fatalf("first item: got=%+v want welcome card", items[0])
		}
		if items[1].Type != ItemTryBadge || items[1].Story != nil || items[1].InfoCard != nil {
			t.Fatalf("second item: got=%+v want try_badge", items[1])
		}
	})

	t.Run("exactly_two_hours", func(t *testing.T) {
		first := testNow.Add(-2 * time.Hour)
		items := Distribute(Input{Stories: stories, InfoCards: cards, FirstVisit: &first}, Options{Now: testNow, Rand: seeded(1)})
		if items[0].Type != ItemInfoCard || items[0].InfoCard.Name != WelcomeCardName {
			t.Fatalf("expected welcome card at the inclusive boundary, got=%v", types(items))
		}
	})

	t.Run("stale_visit", func(t *testing.T) {
		first := testNow.Add(-2*time.Hour - time.Second)
		items := Distribute(Input{Stories: stories, InfoCards: cards, FirstVisit: &first}, Options{Now: testNow, Rand: seeded(1)})
		for i, it := range items {
			if it.Type == ItemTryBadge {
				t.Fatalf("unexpected try_badge at %d", i)
			}
			if it.Type == ItemInfoCard && it.InfoCard.Name == WelcomeCardName {
				t.Fatalf("unexpected welcome card at %d", i)
			}
		}
		// the regular card still follows the second story
		want := []ItemType{ItemStory, ItemStory, ItemInfoCard}
		if !reflect.DeepEqual(types(items), want) {
			t.Fatalf("unexpected layout: got=%v want=%v", types(items), want)
		}
		if items[2].InfoCard.Name != "tip-1" {
			t.Fatalf("unexpected card: got=%q want=%q", items[2].InfoCard.Name, "tip-1")
		}
	})

	t.Run("no_first_visit", func(t *testing.T) {
		items := Distribute(Input{Stories: stories, InfoCards: cards}, Options{Now: testNow, Rand: seeded(1)})
		if items[0].Type != ItemStory {
			t.Fatalf("expected feed to start with a story, got=%v", types(items))
		}
	})

	t.Run("first_welcome_wins", func(t *testing.T) {
		dup := []InfoCard{{ID: "w1", Name: WelcomeCardName}, {ID: "w2", Name: WelcomeCardName}}
		first := testNow
		items := Distribute(Input{InfoCards: dup, FirstVisit: &first}, Options{Now: testNow})
		want := []ItemType{ItemInfoCard, ItemTryBadge}
		if !reflect.DeepEqual(types(items), want) {
			t.Fatalf("unexpected layout: got=%v want=%v", types(items), want)
		}
		if items[0].InfoCard.ID != "w1" {
			t.Fatalf("unexpected welcome card: got=%q want=%q", items[0].InfoCard.ID, "w1")
		}
	})
}

func TestDistributeEmitsEveryStoryOnce(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 7, 20} {
		n := n
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			stories := makeStories(n)
			items := Distribute(Input{Stories: stories}, Options{Now: testNow, Rand: seeded(uint64(n))})
			ids := storyIDs(items)
			if len(ids) != n {
				t.Fatalf("story count: got=%d want=%d", len(ids), n)
			}
			seen := map[string]int{}
			for _, id := range ids {
				seen[id]++
			}
			for _, s := range stories {
				if seen[s.ID] != 1 {
					t.Fatalf("story %s emitted %d times", s.ID, seen[s.ID])
				}
			}
			if len(items) != n {
				t.Fatalf("unexpected non-story items: %v", types(items))
			}
		})
	}
}

func TestDistributeInfoCardCadence(t *testing.T) {
	stories := makeStories(7)
	cards := makeCards("tip-1", "culture-1", "progress-1", "tip-2", "tip-3")
	items := Distribute(Input{Stories: stories, InfoCards: cards}, Options{Now: testNow, Rand: seeded(7)})

	want := []ItemType{
		ItemStory, ItemStory, ItemInfoCard,
		ItemStory,
		ItemStory, ItemInfoCard,
		ItemStory, ItemStory, ItemInfoCard,
		ItemStory,
	}
	if !reflect.DeepEqual(types(items), want) {
		t.Fatalf("unexpected layout:\n got=%v\nwant=%v", types(items), want)
	}
	wantCards := map[int]string{2: "tip-1", 5: "culture-1", 8: "progress-1"}
	for pos, name := range wantCards {
		if items[pos].InfoCard.Name != name {
			t.Fatalf("card at %d: got=%q want=%q", pos, items[pos].InfoCard.Name, name)
		}
	}
}

func TestDistributeDropsTrailingCards(t *testing.T) {
	items := Distribute(Input{Stories: makeStories(1), InfoCards: makeCards("tip-1", "tip-2")}, Options{Now: testNow})
	want := []ItemType{ItemStory}
	if !reflect.DeepEqual(types(items), want) {
		t.Fatalf("unexpected layout: got=%v want=%v", types(items), want)
	}
}

func TestDistributeOnlyInfoCards(t *testing.T) {
	items := Distribute(Input{InfoCards: makeCards("tip-1")}, Options{Now: testNow})
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty feed without stories, got=%v", types(items))
	}
}

func TestDistributeKeywordCarousel(t *testing.T) {
	stories := []Story{
		{ID: "s1", Keywords: []string{"k1", "k2"}},
		{ID: "s2", Keywords: []string{"k2", "k3"}},
		{ID: "s3", Keywords: []string{"k3", "k4"}},
	}
	keywords := map[string]Keyword{
		"k1": {ID: "k1"}, "k2": {ID: "k2"}, "k3": {ID: "k3"}, "k4": {ID: "k4"},
	}
	union := map[string]bool{"k1": true, "k2": true, "k3": true, "k4": true}

	for seed := uint64(0); seed < 20; seed++ {
		items := Distribute(Input{Stories: stories, Keywords: keywords}, Options{Now: testNow, Rand: seeded(seed)})
		if len(items) != 4 {
			t.Fatalf("seed %d: unexpected layout %v", seed, types(items))
		}
		c := items[3]
		if c.Type != ItemKeywordsCarousel {
			t.Fatalf("seed %d: 4th item: got=%s want=%s", seed, c.Type, ItemKeywordsCarousel)
		}
		if len(c.KeywordIDs) < 1 || len(c.KeywordIDs) > 3 {
			t.Fatalf("seed %d: carousel size: got=%d", seed, len(c.KeywordIDs))
		}
		dup := map[string]bool{}
		for _, id := range c.KeywordIDs {
			if !union[id] {
				t.Fatalf("seed %d: carousel id %q not referenced by stories", seed, id)
			}
			if dup[id] {
				t.Fatalf("seed %d: duplicate carousel id %q", seed, id)
			}
			dup[id] = true
		}
	}
}

func TestDistributeDanglingKeywords(t *testing.T) {
	stories := makeStories(9)
	for i := range stories {
		stories[i].Keywords = []string{"ghost-1", "ghost-2"}
	}
	items := Distribute(Input{Stories: stories, Keywords: map[string]Keyword{}}, Options{Now: testNow, Rand: seeded(3)})
	for i, it := range items {
		if it.Type == ItemKeywordsCarousel {
			t.Fatalf("unexpected carousel at %d", i)
		}
	}
	if len(storyIDs(items)) != 9 {
		t.Fatalf("story count: got=%d want=9", len(storyIDs(items)))
	}
}

func TestDistributeCardAndCarouselOnSameStory(t *testing.T) {
	stories := makeStories(6)
	keywords := map[string]Keyword{"k1": {ID: "k1"}}
	for i := range stories {
		stories[i].Keywords = []string{"k1"}
	}
	cards := makeCards("tip-1", "tip-2", "tip-3")
	items := Distribute(Input{Stories: stories, InfoCards: cards, Keywords: keywords}, Options{Now: testNow, Rand: seeded(11)})
	want := []ItemType{
		ItemStory, ItemStory, ItemInfoCard,
		ItemStory, ItemKeywordsCarousel,
		ItemStory, ItemInfoCard,
		ItemStory,
		ItemStory, ItemInfoCard, ItemKeywordsCarousel,
	}
	if !reflect.DeepEqual(types(items), want) {
		t.Fatalf("unexpected layout:\n got=%v\nwant=%v", types(items), want)
	}
}

func TestDistributeBucketRounds(t *testing.T) {
	stories := makeStories(8)
	// s1..s4 unseen, s5/s6 stale, s7/s8 recent
	history := []ViewRecord{
		{ContentID: "s5", ContentType: ContentTypeStory, Timestamp: testNow.Add(-10 * 24 * time.Hour)},
		{ContentID: "s6", ContentType: ContentTypeStory, Timestamp: testNow.Add(-4 * 24 * time.Hour)},
		{ContentID: "s7", ContentType: ContentTypeStory, Timestamp: testNow.Add(-time.Hour)},
		{ContentID: "s8", ContentType: ContentTypeStory, Timestamp: testNow.Add(-48 * time.Hour)},
		// info card views never affect story buckets
		{ContentID: "s1", ContentType: ContentTypeInfoCard, Timestamp: testNow},
	}
	items := Distribute(Input{Stories: stories, ViewHistory: history}, Options{Now: testNow, Rand: seeded(5)})
	ids := storyIDs(items)
	if len(ids) != 8 {
		t.Fatalf("story count: got=%d want=8", len(ids))
	}

	bucket := map[string]Recency{
		"s1": Unseen, "s2": Unseen, "s3": Unseen, "s4": Unseen,
		"s5": StaleSeen, "s6": StaleSeen, "s7": RecentSeen, "s8": RecentSeen,
	}
	want := []Recency{Unseen, Unseen, StaleSeen, RecentSeen, Unseen, Unseen, StaleSeen, RecentSeen}
	for i, id := range ids {
		if bucket[id] != want[i] {
			t.Fatalf("position %d: story %s is %s, want %s", i, id, bucket[id], want[i])
		}
	}
}

func TestDistributeSeenOnlyBuckets(t *testing.T) {
	stories := makeStories(3)
	history := []ViewRecord{
		{ContentID: "s1", ContentType: ContentTypeStory, Timestamp: testNow.Add(-5 * 24 * time.Hour)},
		{ContentID: "s2", ContentType: ContentTypeStory, Timestamp: testNow.Add(-6 * 24 * time.Hour)},
		{ContentID: "s3", ContentType: ContentTypeStory, Timestamp: testNow.Add(-time.Minute)},
	}
	items := Distribute(Input{Stories: stories, ViewHistory: history}, Options{Now: testNow, Rand: seeded(9)})
	ids := storyIDs(items)
	// round 1: one stale then the recent one, round 2: the other stale
	if len(ids) != 3 || ids[1] != "s3" {
		t.Fatalf("unexpected order: %v", ids)
	}
}

func TestDistributeDeterministicWithSeed(t *testing.T) {
	stories := makeStories(12)
	for i := range stories {
		stories[i].Keywords = []string{fmt.Sprintf("k%d", i%4), fmt.Sprintf("k%d", (i+1)%4)}
	}
	keywords := map[string]Keyword{"k0": {ID: "k0"}, "k1": {ID: "k1"}, "k2": {ID: "k2"}, "k3": {ID: "k3"}}
	in := Input{Stories: stories, InfoCards: makeCards("a", "b", "c"), Keywords: keywords}

	a := Distribute(in, Options{Now: testNow, Rand: seeded(42)})
	b := Distribute(in, Options{Now: testNow, Rand: seeded(42)})
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different feeds")
	}
}

func TestDistributeDoesNotMutateInput(t *testing.T) {
	stories := makeStories(5)
	stories[0].Keywords = []string{"k1"}
	cards := makeCards("welcome", "tip-1")
	history := []ViewRecord{{ContentID: "s2", ContentType: ContentTypeStory, Timestamp: testNow.Add(-time.Hour)}}

	storiesCopy := append([]Story(nil), stories...)
	cardsCopy := append([]InfoCard(nil), cards...)
	historyCopy := append([]ViewRecord(nil), history...)

	first := testNow
	_ = Distribute(Input{Stories: stories, InfoCards: cards, ViewHistory: history, FirstVisit: &first}, Options{Now: testNow})

	if !reflect.DeepEqual(stories, storiesCopy) || !reflect.DeepEqual(cards, cardsCopy) || !reflect.DeepEqual(history, historyCopy) {
		t.Fatalf("inputs were mutated")
	}
}

func TestDistributeKeywordLevelFilter(t *testing.T) {
	stories := makeStories(3)
	for i := range stories {
		stories[i].Keywords = []string{"easy", "hard", "untagged"}
	}
	keywords := map[string]Keyword{
		"easy":     {ID: "easy", Level: "A1"},
		"hard":     {ID: "hard", Level: "C1"},
		"untagged": {ID: "untagged"},
	}
	items := Distribute(Input{Stories: stories, Keywords: keywords}, Options{Now: testNow, KeywordLevel: "A1"})
	if len(items) != 4 || items[3].Type != ItemKeywordsCarousel {
		t.Fatalf("unexpected layout: %v", types(items))
	}
	if !reflect.DeepEqual(items[3].KeywordIDs, []string{"easy"}) {
		t.Fatalf("unexpected carousel ids: got=%v want=[easy]", items[3].KeywordIDs)
	}

	items = Distribute(Input{Stories: stories, Keywords: keywords}, Options{Now: testNow, KeywordLevel: "B2"})
	for _, it := range items {
		if it.Type == ItemKeywordsCarousel {
			t.Fatalf("expected no carousel when no keyword matches the level")
		}
	}
}
