package analytics

import (
	"sort"

	"sitepulse/internal/events"
)

// SessionPath is the ordered sequence of page categories one session walked,
// plus the first-touch acquisition source of that session.
type SessionPath struct {
	SessionID   string
	Categories  []string
	FirstSource string
}

// BuildSessionPaths groups pageview events by session into ordered category
// paths. Events are sorted ascending by timestamp internally, so callers need
// not guarantee any ingest order. FirstSource is taken from the session's
// earliest event only; later referrer changes never overwrite it.
func BuildSessionPaths(evts []events.Event) map[string]SessionPath {
	sorted := make([]events.Event, len(evts))
	copy(sorted, evts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	paths := make(map[string]SessionPath)
	for _, e := range sorted {
		if e.EventType != events.EventTypePageView {
			continue
		}

		path, seen := paths[e.SessionID]
		if !seen {
			path = SessionPath{
				SessionID:   e.SessionID,
				FirstSource: ClassifySource(e.Referrer, e.URL, e.UserAgent),
			}
		}
		path.Categories = append(path.Categories, NormalizeURL(e.URL))
		paths[e.SessionID] = path
	}
	return paths
}
