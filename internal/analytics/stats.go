package analytics

import (
	"math"
	"sort"
	"strings"

	"sitepulse/internal/events"
	"sitepulse/internal/timeframe"
)

// Breakdown labels used in the stats report.
const (
	DeviceMobile      = "Mobile"
	DeviceDesktop     = "Desktop"
	VisitorsNew       = "New Visitors"
	VisitorsReturning = "Returning Visitors"
)

// topN limits ranked breakdowns in the report.
const topN = 5

// NamedCount is one row of a ranked breakdown.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TrendBucket is one point of the time-bucketed trend series.
type TrendBucket struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Visitors  int    `json:"visitors"`
	Sessions  int    `json:"sessions"`
	PageViews int    `json:"page_views"`
}

// StatsReport is the full windowed summary served to the dashboard.
type StatsReport struct {
	Users             int            `json:"users"`
	Sessions          int            `json:"sessions"`
	PageViews         int            `json:"page_views"`
	AvgEngagementTime float64        `json:"avg_engagement_time"`
	TopSources        []NamedCount   `json:"top_sources"`
	TopPages          []NamedCount   `json:"top_pages"`
	Devices           map[string]int `json:"devices"`
	UserTypes         map[string]int `json:"user_types"`
	UserTypePVs       map[string]int `json:"user_type_pvs"`
	Trend             []TrendBucket  `json:"trend"`
}

// mobileNeedles classify a user agent as a mobile device.
var mobileNeedles = []string{"mobile", "android", "iphone"}

// ComputeStats derives the windowed summary from an already-windowed event
// snapshot. The window only selects trend granularity; timestamp filtering is
// the caller's job. The function is pure: same input, same output.
func ComputeStats(evts []events.Event, window timeframe.Window) StatsReport {
	report := StatsReport{
		TopSources:  []NamedCount{},
		TopPages:    []NamedCount{},
		Devices:     map[string]int{DeviceMobile: 0, DeviceDesktop: 0},
		UserTypes:   map[string]int{VisitorsNew: 0, VisitorsReturning: 0},
		UserTypePVs: map[string]int{VisitorsNew: 0, VisitorsReturning: 0},
		Trend:       []TrendBucket{},
	}

	visitors := make(map[string]struct{})
	sessions := make(map[string]struct{})
	for _, e := range evts {
		if e.VisitorID != "" {
			visitors[e.VisitorID] = struct{}{}
		}
		if e.SessionID != "" {
			sessions[e.SessionID] = struct{}{}
		}
	}
	report.Users = len(visitors)
	report.Sessions = len(sessions)

	sources := newTally()
	pages := newTally()
	visitorSessions := make(map[string]map[string]struct{})
	visitorPageViews := make(map[string]int)
	trend := make(map[string]*TrendBucket)
	trendVisitors := make(map[string]map[string]struct{})
	trendSessions := make(map[string]map[string]struct{})

	var durationSum float64

	for _, e := range evts {
		if e.SessionID != "" {
			if visitorSessions[e.VisitorID] == nil {
				visitorSessions[e.VisitorID] = make(map[string]struct{})
			}
			visitorSessions[e.VisitorID][e.SessionID] = struct{}{}
		}

		switch e.EventType {
		case events.EventTypeEngagement:
			d, ok := e.EngagementDuration()
			if !ok || d <= 0 || d >= events.MaxPlausibleDuration {
				continue
			}
			durationSum += math.Min(d, events.MaxCountedDuration)

		case events.EventTypePageView:
			report.PageViews++
			visitorPageViews[e.VisitorID]++

			sources.add(pageviewSource(&e))
			pages.add(NormalizeURL(e.URL))

			if isMobile(e.UserAgent) {
				report.Devices[DeviceMobile]++
			} else {
				report.Devices[DeviceDesktop]++
			}

			key := window.BucketKey(e.Timestamp.UTC())
			bucket := trend[key]
			if bucket == nil {
				bucket = &TrendBucket{Key: key, Label: window.BucketLabel(e.Timestamp.UTC())}
				trend[key] = bucket
				trendVisitors[key] = make(map[string]struct{})
				trendSessions[key] = make(map[string]struct{})
			}
			bucket.PageViews++
			if e.VisitorID != "" {
				trendVisitors[key][e.VisitorID] = struct{}{}
			}
			if e.SessionID != "" {
				trendSessions[key][e.SessionID] = struct{}{}
			}
		}
	}

	if report.Sessions > 0 {
		avg := durationSum / float64(report.Sessions)
		report.AvgEngagementTime = math.Round(avg*10) / 10
	}

	report.TopSources = sources.top(topN)
	report.TopPages = pages.top(topN)

	for visitor, sess := range visitorSessions {
		bucket := VisitorsNew
		if len(sess) > 1 {
			bucket = VisitorsReturning
		}
		report.UserTypes[bucket]++
		report.UserTypePVs[bucket] += visitorPageViews[visitor]
	}

	for key, bucket := range trend {
		bucket.Visitors = len(trendVisitors[key])
		bucket.Sessions = len(trendSessions[key])
		report.Trend = append(report.Trend, *bucket)
	}
	sort.Slice(report.Trend, func(i, j int) bool {
		return report.Trend[i].Key < report.Trend[j].Key
	})

	return report
}

// pageviewSource prefers the tracker's explicit data.source override and
// otherwise runs the full classifier.
func pageviewSource(e *events.Event) string {
	if source := e.DataSource(); source != "" {
		return UTMSourceLabel(source)
	}
	return ClassifySource(e.Referrer, e.URL, e.UserAgent)
}

func isMobile(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, needle := range mobileNeedles {
		if strings.Contains(ua, needle) {
			return true
		}
	}
	return false
}

// tally counts labels while remembering first-encountered order so ranking
// ties break deterministically.
type tally struct {
	counts map[string]int
	first  map[string]int
	next   int
}

func newTally() *tally {
	return &tally{counts: make(map[string]int), first: make(map[string]int)}
}

func (t *tally) add(label string) {
	if _, seen := t.counts[label]; !seen {
		t.first[label] = t.next
		t.next++
	}
	t.counts[label]++
}

func (t *tally) top(n int) []NamedCount {
	ranked := make([]NamedCount, 0, len(t.counts))
	for label, count := range t.counts {
		ranked = append(ranked, NamedCount{Name: label, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return t.first[ranked[i].Name] < t.first[ranked[j].Name]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
