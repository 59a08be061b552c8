package analytics_test

import (
	"encoding/json"
	"testing"
	"time"

	"sitepulse/internal/analytics"
	"sitepulse/internal/events"
	"sitepulse/internal/timeframe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engagement(session, visitor string, at time.Time, data string) events.Event {
	return events.Event{
		EventType: events.EventTypeEngagement,
		Timestamp: at,
		SessionID: session,
		VisitorID: visitor,
		Data:      data,
	}
}

func TestComputeStatsCounts(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	evts := []events.Event{
		pv("s1", "v1", "https://x.com/", "", base),
		pv("s1", "v1", "https://x.com/courses", "https://x.com/", base.Add(time.Minute)),
		pv("s2", "v2", "https://x.com/", "https://google.com/", base.Add(time.Hour)),
		engagement("s1", "v1", base.Add(2*time.Minute), `{"duration_seconds": 60}`),
	}

	report := analytics.ComputeStats(evts, timeframe.Window24h)

	assert.Equal(t, 2, report.Users)
	assert.Equal(t, 2, report.Sessions)
	assert.Equal(t, 3, report.PageViews)
}

func TestComputeStatsEngagementOutliers(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	// Two sessions; durations 100, 2000 (capped to 1800), -5 and 90000 discarded.
	evts := []events.Event{
		pv("s1", "v1", "https://x.com/", "", base),
		pv("s2", "v2", "https://x.com/", "", base),
		engagement("s1", "v1", base, `{"duration_seconds": 100}`),
		engagement("s1", "v1", base, `{"duration_seconds": 2000}`),
		engagement("s2", "v2", base, `{"duration_seconds": -5}`),
		engagement("s2", "v2", base, `{"duration_seconds": 90000}`),
	}

	report := analytics.ComputeStats(evts, timeframe.Window24h)
	assert.Equal(t, 950.0, report.AvgEngagementTime)
}

func TestComputeStatsEngagementNonNumericSkipped(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	evts := []events.Event{
		pv("s1", "v1", "https://x.com/", "", base),
		engagement("s1", "v1", base, `{"duration_seconds": "soon"}`),
		engagement("s1", "v1", base, `{"duration_seconds": 30}`),
	}

	report := analytics.ComputeStats(evts, timeframe.Window24h)
	assert.Equal(t, 30.0, report.AvgEngagementTime)
}

func TestComputeStatsNoSessionsNoEngagement(t *testing.T) {
	report := analytics.ComputeStats(nil, timeframe.Window24h)
	assert.Equal(t, 0.0, report.AvgEngagementTime)
	assert.Equal(t, 0, report.Users)
	assert.Equal(t, 0, report.Sessions)
}

func TestComputeStatsTopSources(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	evts := []events.Event{
		pv("s1", "v1", "https://x.com/", "https://google.com/", base),
		pv("s2", "v2", "https://x.com/", "https://google.com/", base),
		pv("s3", "v3", "https://x.com/", "", base),
	}
	// Explicit data.source override outranks the classifier.
	override := pv("s4", "v4", "https://x.com/", "https://google.com/", base)
	override.Data = `{"source": "spring_sale"}`
	evts = append(evts, override)

	report := analytics.ComputeStats(evts, timeframe.Window24h)

	require.NotEmpty(t, report.TopSources)
	assert.Equal(t, analytics.NamedCount{Name: "Google Search", Count: 2}, report.TopSources[0])

	names := make([]string, 0, len(report.TopSources))
	for _, s := range report.TopSources {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Direct Entry")
	assert.Contains(t, names, "spring_sale (UTM)")
}

func TestComputeStatsTopPagesTieBreak(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	// Six distinct pages, one view each; the first five encountered survive.
	urls := []string{
		"https://x.com/",
		"https://x.com/courses",
		"https://x.com/rankings",
		"https://x.com/login",
		"https://x.com/register",
		"https://x.com/admin",
	}
	var evts []events.Event
	for i, u := range urls {
		evts = append(evts, pv("s1", "v1", u, "", base.Add(time.Duration(i)*time.Second)))
	}

	report := analytics.ComputeStats(evts, timeframe.Window24h)

	require.Len(t, report.TopPages, 5)
	assert.Equal(t, "Home", report.TopPages[0].Name)
	assert.Equal(t, "Register", report.TopPages[4].Name)
}

func TestComputeStatsDevices(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	iphone := pv("s1", "v1", "https://x.com/", "", base)
	iphone.UserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"
	android := pv("s2", "v2", "https://x.com/", "", base)
	android.UserAgent = "Mozilla/5.0 (Linux; Android 14) Mobile"
	desktop := pv("s3", "v3", "https://x.com/", "", base)
	desktop.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	missing := pv("s4", "v4", "https://x.com/", "", base)

	report := analytics.ComputeStats([]events.Event{iphone, android, desktop, missing}, timeframe.Window24h)

	assert.Equal(t, 2, report.Devices["Mobile"])
	assert.Equal(t, 2, report.Devices["Desktop"], "missing user agent counts as desktop")
}

func TestComputeStatsUserTypes(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	evts := []events.Event{
		// v1 has two sessions, so all their pageviews bucket as returning.
		pv("s1", "v1", "https://x.com/", "", base),
		pv("s1", "v1", "https://x.com/courses", "", base.Add(time.Minute)),
		pv("s2", "v1", "https://x.com/", "", base.Add(time.Hour)),
		// v2 has one session.
		pv("s3", "v2", "https://x.com/", "", base),
	}

	report := analytics.ComputeStats(evts, timeframe.Window24h)

	assert.Equal(t, 1, report.UserTypes["Returning Visitors"])
	assert.Equal(t, 1, report.UserTypes["New Visitors"])
	assert.Equal(t, 3, report.UserTypePVs["Returning Visitors"])
	assert.Equal(t, 1, report.UserTypePVs["New Visitors"])
}

func TestComputeStatsTrendHourlyBuckets(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 15, 0, 0, time.UTC)
	evts := []events.Event{
		pv("s1", "v1", "https://x.com/", "", base),
		pv("s1", "v1", "https://x.com/courses", "", base.Add(10*time.Minute)),
		pv("s2", "v2", "https://x.com/", "", base.Add(2*time.Hour)),
	}

	report := analytics.ComputeStats(evts, timeframe.Window24h)

	require.Len(t, report.Trend, 2)
	assert.Equal(t, "2026-08-20 10:00", report.Trend[0].Key)
	assert.Equal(t, "10:00", report.Trend[0].Label)
	assert.Equal(t, 2, report.Trend[0].PageViews)
	assert.Equal(t, 1, report.Trend[0].Visitors)
	assert.Equal(t, 1, report.Trend[0].Sessions)
	assert.Equal(t, "2026-08-20 12:00", report.Trend[1].Key)
}

func TestComputeStatsTrendDailyBuckets(t *testing.T) {
	base := time.Date(2026, 8, 18, 23, 0, 0, 0, time.UTC)
	evts := []events.Event{
		pv("s1", "v1", "https://x.com/", "", base),
		pv("s2", "v2", "https://x.com/", "", base.Add(26*time.Hour)),
	}

	report := analytics.ComputeStats(evts, timeframe.Window7d)

	require.Len(t, report.Trend, 2)
	assert.Equal(t, "2026-08-18", report.Trend[0].Key)
	assert.Equal(t, "2026-08-18", report.Trend[0].Label)
	assert.Equal(t, "2026-08-20", report.Trend[1].Key)
}

func TestComputeStatsIsPure(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	evts := []events.Event{
		pv("s1", "v1", "https://x.com/", "https://google.com/", base),
		pv("s2", "v2", "https://x.com/courses", "", base.Add(time.Minute)),
		engagement("s1", "v1", base.Add(2*time.Minute), `{"duration_seconds": 42}`),
	}

	first := analytics.ComputeStats(evts, timeframe.Window7d)
	second := analytics.ComputeStats(evts, timeframe.Window7d)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON, "same input must serialize identically")
}
