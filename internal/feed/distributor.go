package feed

import "time"

const (
	unseenPerRound = 2
	infoCardEvery  = 2
	carouselEvery  = 3
)

type Input struct {
	Stories     []Story
	InfoCards   []InfoCard
	Keywords    map[string]Keyword
	ViewHistory []ViewRecord
	FirstVisit  *time.Time
}

type Options struct {
	// Now is the reference time for recency checks. Zero means time.Now().
	Now time.Time
	// Rand drives bucket shuffles and carousel picks. Nil uses the
	// package-level generator.
	Rand Rand
	// KeywordLevel restricts carousel keywords to one word level when set.
	KeywordLevel string
}

type queue []Story

func (q *queue) pop() (Story, bool) {
	if len(*q) == 0 {
		return Story{}, false
	}
	s := (*q)[0]
	*q = (*q)[1:]
	return s, true
}

type distribution struct {
	opts          Options
	keywords      map[string]Keyword
	regularCards  []InfoCard
	items         []Item
	buffer        []Story
	storyCount    int
	infoCardIndex int
}

// Distribute builds one ordered feed from stories, info cards and keywords.
// Stories are bucketed by recency and emitted two unseen, one stale-seen and
// one recent-seen per round. A regular info card follows every second story
// and a keywords carousel every third. Inputs are never mutated.
func Distribute(in Input, opts Options) []Item {
	if len(in.Stories) == 0 && len(in.InfoCards) == 0 {
		return []Item{}
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	opts.Rand = randOrDefault(opts.Rand)

	welcome, regular := splitWelcome(in.InfoCards)
	d := &distribution{
		opts:         opts,
		keywords:     in.Keywords,
		regularCards: regular,
		items:        make([]Item, 0, len(in.Stories)*2+2),
		buffer:       make([]Story, 0, len(in.Stories)),
	}

	if welcome != nil && IsWithinLastTwoHours(in.FirstVisit, opts.Now) {
		d.items = append(d.items, Item{Type: ItemInfoCard, InfoCard: welcome}, Item{Type: ItemTryBadge})
	}

	var unseen, stale, recent []Story
	for _, s := range in.Stories {
		switch Classify(s.ID, in.ViewHistory, opts.Now) {
		case Unseen:
			unseen = append(unseen, s)
		case StaleSeen:
			stale = append(stale, s)
		case RecentSeen:
			recent = append(recent, s)
		}
	}
	unseenQ := queue(Shuffle(unseen, opts.Rand))
	staleQ := queue(Shuffle(stale, opts.Rand))
	recentQ := queue(Shuffle(recent, opts.Rand))

	for len(unseenQ) > 0 || len(staleQ) > 0 || len(recentQ) > 0 {
		for i := 0; i < unseenPerRound; i++ {
			if s, ok := unseenQ.pop(); ok {
				d.emitStory(s)
			}
		}
		if s, ok := staleQ.pop(); ok {
			d.emitStory(s)
		}
		if s, ok := recentQ.pop(); ok {
			d.emitStory(s)
		}
	}
	return d.items
}

func splitWelcome(cards []InfoCard) (*InfoCard, []InfoCard) {
	var welcome *InfoCard
	regular := make([]InfoCard, 0, len(cards))
	for i := range cards {
		if cards[i].Name == WelcomeCardName {
			if welcome == nil {
				c := cards[i]
				welcome = &c
			}
			continue
		}
		regular = append(regular, cards[i])
	}
	return welcome, regular
}

func (d *distribution) emitStory(s Story) {
	story := s
	d.items = append(d.items, Item{Type: ItemStory, Story: &story})
	d.buffer = append(d.buffer, s)
	d.storyCount++

	if d.storyCount%infoCardEvery == 0 && d.infoCardIndex < len(d.regularCards) {
		card := d.regularCards[d.infoCardIndex]
		d.items = append(d.items, Item{Type: ItemInfoCard, InfoCard: &card})
		d.infoCardIndex++
	}
	if d.storyCount%carouselEvery == 0 {
		if ids := SelectCarouselKeywords(d.buffer, d.keywords, d.opts.Rand, d.opts.KeywordLevel); len(ids) > 0 {
			d.items = append(d.items, Item{Type: ItemKeywordsCarousel, KeywordIDs: ids})
		}
	}
}
