package feed

const (
	carouselWindow  = 3
	carouselMaxSize = 3
)

// SelectCarouselKeywords picks up to three keyword ids shared by the last
// three stories of buffer. Ids missing from keywords are dropped, and when
// level is set only keywords tagged with exactly that level are kept.
// A nil result means no carousel should be emitted.
func SelectCarouselKeywords(buffer []Story, keywords map[string]Keyword, r Rand, level string) []string {
	if len(buffer) < carouselWindow {
		return nil
	}
	recent := buffer[len(buffer)-carouselWindow:]

	seen := make(map[string]struct{})
	var valid []string
	for _, s := range recent {
		for _, id := range s.Keywords {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			kw, ok := keywords[id]
			if !ok {
				continue
			}
			if level != "" && kw.Level != level {
				continue
			}
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	picked := Shuffle(valid, r)
	if len(picked) > carouselMaxSize {
		picked = picked[:carouselMaxSize]
	}
	return picked
}
