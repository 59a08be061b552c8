package analytics_test

import (
	"testing"
	"time"

	"sitepulse/internal/analytics"
	"sitepulse/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linkValue(g analytics.FlowGraph, source, target string) (int, bool) {
	for _, l := range g.Links {
		if l.Source == source && l.Target == target {
			return l.Value, true
		}
	}
	return 0, false
}

func TestBuildFlowGraphThreeStepSession(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	evts := []events.Event{
		pv("s1", "v1", "https://x.com/", "https://google.com/", base),
		pv("s1", "v1", "https://x.com/courses", "https://x.com/", base.Add(time.Minute)),
		pv("s1", "v1", "https://x.com/course/3/", "https://x.com/courses", base.Add(2*time.Minute)),
	}

	graph := analytics.BuildFlowGraph(analytics.BuildSessionPaths(evts))

	expected := []analytics.FlowLink{
		{Source: "Google Search (Source)", Target: "Home (Step 1)", Value: 1},
		{Source: "Home (Step 1)", Target: "Course List (Step 2)", Value: 1},
		{Source: "Course List (Step 2)", Target: "Course Detail (Step 3)", Value: 1},
	}
	for _, want := range expected {
		got, ok := linkValue(graph, want.Source, want.Target)
		require.True(t, ok, "missing link %s -> %s", want.Source, want.Target)
		assert.Equal(t, want.Value, got)
	}
	assert.Len(t, graph.Links, 3)
}

func TestBuildFlowGraphSuppressesSelfLoops(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	evts := []events.Event{
		pv("s1", "v1", "https://x.com/", "", base),
		pv("s1", "v1", "https://x.com/", "https://x.com/", base.Add(time.Minute)),
	}

	graph := analytics.BuildFlowGraph(analytics.BuildSessionPaths(evts))

	_, hasLoop := linkValue(graph, "Home (Step 1)", "Home (Step 2)")
	assert.False(t, hasLoop, "identical consecutive categories must not link")

	v, ok := linkValue(graph, "Direct Entry (Source)", "Home (Step 1)")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestBuildFlowGraphSuppressesInternalSource(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	evts := []events.Event{
		pv("s1", "v1", "https://x.com/courses", "https://x.com/", base),
		pv("s1", "v1", "https://x.com/rankings", "https://x.com/courses", base.Add(time.Minute)),
	}

	graph := analytics.BuildFlowGraph(analytics.BuildSessionPaths(evts))

	for _, l := range graph.Links {
		assert.NotEqual(t, "Internal (Source)", l.Source,
			"internal first-touch sessions contribute no source link")
	}

	v, ok := linkValue(graph, "Course List (Step 1)", "Rankings (Step 2)")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestBuildFlowGraphAggregatesAcrossSessions(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	evts := []events.Event{
		pv("s1", "v1", "https://x.com/", "", base),
		pv("s1", "v1", "https://x.com/courses", "https://x.com/", base.Add(time.Minute)),
		pv("s2", "v2", "https://x.com/", "", base.Add(time.Hour)),
		pv("s2", "v2", "https://x.com/courses", "https://x.com/", base.Add(time.Hour+time.Minute)),
	}

	graph := analytics.BuildFlowGraph(analytics.BuildSessionPaths(evts))

	v, ok := linkValue(graph, "Home (Step 1)", "Course List (Step 2)")
	require.True(t, ok)
	assert.Equal(t, 2, v, "both sessions flow into one aggregated link")
}

func TestBuildFlowGraphCapsAtThreeSteps(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	evts := []events.Event{
		pv("s1", "v1", "https://x.com/", "", base),
		pv("s1", "v1", "https://x.com/courses", "https://x.com/", base.Add(1*time.Minute)),
		pv("s1", "v1", "https://x.com/course/1/", "https://x.com/courses", base.Add(2*time.Minute)),
		pv("s1", "v1", "https://x.com/rankings", "https://x.com/course/1/", base.Add(3*time.Minute)),
	}

	graph := analytics.BuildFlowGraph(analytics.BuildSessionPaths(evts))

	for _, l := range graph.Links {
		assert.NotContains(t, l.Target, "(Step 4)")
	}
	assert.Len(t, graph.Links, 3)
}

func TestBuildFlowGraphNodesAreLinkEndpoints(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	evts := []events.Event{
		pv("s1", "v1", "https://x.com/", "", base),
	}

	graph := analytics.BuildFlowGraph(analytics.BuildSessionPaths(evts))

	names := make(map[string]bool)
	for _, n := range graph.Nodes {
		names[n.Name] = true
	}
	for _, l := range graph.Links {
		assert.True(t, names[l.Source])
		assert.True(t, names[l.Target])
	}
	assert.Len(t, graph.Nodes, 2)
}

func TestBuildFlowGraphDeterministicOutput(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	evts := []events.Event{
		pv("s1", "v1", "https://x.com/", "https://google.com/", base),
		pv("s1", "v1", "https://x.com/courses", "https://x.com/", base.Add(time.Minute)),
		pv("s2", "v2", "https://x.com/rankings", "https://bing.com/", base),
		pv("s2", "v2", "https://x.com/login", "https://x.com/rankings", base.Add(time.Minute)),
	}

	paths := analytics.BuildSessionPaths(evts)
	first := analytics.BuildFlowGraph(paths)
	second := analytics.BuildFlowGraph(paths)
	assert.Equal(t, first, second)
}
