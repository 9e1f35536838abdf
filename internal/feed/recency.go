package feed

import "time"

const (
	RecentWindowDays = 3
	WelcomeWindow    = 2 * time.Hour
)

type Recency int

const (
	Unseen Recency = iota
	StaleSeen
	RecentSeen
)

func (r Recency) String() string {
	switch r {
	case Unseen:
		return "unseen"
	case StaleSeen:
		return "stale_seen"
	case RecentSeen:
		return "recent_seen"
	default:
		return "unknown"
	}
}

// HasBeenViewed reports whether history holds a story view for id.
func HasBeenViewed(id string, history []ViewRecord) bool {
	for _, rec := range history {
		if rec.ContentID == id && rec.ContentType == ContentTypeStory {
			return true
		}
	}
	return false
}

func LatestViewTimestamp(id string, history []ViewRecord) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, rec := range history {
		if rec.ContentID != id || rec.ContentType != ContentTypeStory {
			continue
		}
		if !found || rec.Timestamp.After(latest) {
			latest = rec.Timestamp
			found = true
		}
	}
	return latest, found
}

// WasViewedWithinLastNDays is true when the latest story view is strictly
// after now minus n days.
func WasViewedWithinLastNDays(id string, history []ViewRecord, n int, now time.Time) bool {
	latest, ok := LatestViewTimestamp(id, history)
	if !ok {
		return false
	}
	cutoff := now.Add(-time.Duration(n) * 24 * time.Hour)
	return latest.After(cutoff)
}

func WasViewedWithinLastThreeDays(id string, history []ViewRecord, now time.Time) bool {
	return WasViewedWithinLastNDays(id, history, RecentWindowDays, now)
}

// IsWithinLastTwoHours is inclusive: exactly two hours ago still counts.
func IsWithinLastTwoHours(ts *time.Time, now time.Time) bool {
	if ts == nil || ts.IsZero() {
		return false
	}
	return now.Sub(*ts) <= WelcomeWindow
}

func Classify(id string, history []ViewRecord, now time.Time) Recency {
	if !HasBeenViewed(id, history) {
		return Unseen
	}
	if WasViewedWithinLastThreeDays(id, history, now) {
		return RecentSeen
	}
	return StaleSeen
}
