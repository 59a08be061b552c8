package http_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"sitepulse/internal/analytics"
	"sitepulse/internal/events"
	"sitepulse/internal/testsupport"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsEndpoint(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateTestApp(t, db)
	dbManager := testsupport.NewTestDBManager(db)
	logger := testsupport.GetLogger()
	testsupport.CleanAllTables(db)

	now := time.Now().UTC()
	testsupport.CollectTestPageView(t, dbManager, logger, "s1", "v1", "https://example.com/", "https://google.com/", now.Add(-2*time.Hour))
	testsupport.CollectTestPageView(t, dbManager, logger, "s1", "v1", "https://example.com/courses", "https://example.com/", now.Add(-2*time.Hour+time.Minute))
	testsupport.CollectTestPageView(t, dbManager, logger, "s2", "v2", "https://example.com/", "", now.Add(-time.Hour))

	req := httptest.NewRequest("GET", "/api/v1/analytics/stats?window=24h", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var report analytics.StatsReport
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &report))

	assert.Equal(t, 2, report.Users)
	assert.Equal(t, 2, report.Sessions)
	assert.Equal(t, 3, report.PageViews)
	require.NotEmpty(t, report.TopPages)
	assert.Equal(t, "Home", report.TopPages[0].Name)
}

func TestStatsEndpointRejectsUnknownWindow(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateTestApp(t, db)

	req := httptest.NewRequest("GET", "/api/v1/analytics/stats?window=90d", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFlowEndpoint(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateTestApp(t, db)
	dbManager := testsupport.NewTestDBManager(db)
	logger := testsupport.GetLogger()
	testsupport.CleanAllTables(db)

	now := time.Now().UTC()
	testsupport.CollectTestPageView(t, dbManager, logger, "s1", "v1", "https://example.com/", "https://google.com/", now.Add(-time.Hour))
	testsupport.CollectTestPageView(t, dbManager, logger, "s1", "v1", "https://example.com/courses", "https://example.com/", now.Add(-time.Hour+time.Minute))

	req := httptest.NewRequest("GET", "/api/v1/analytics/flow?window=24h", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var graph analytics.FlowGraph
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &graph))

	require.NotEmpty(t, graph.Links)
	assert.Contains(t, graph.Links, analytics.FlowLink{
		Source: "Google Search (Source)",
		Target: "Home (Step 1)",
		Value:  1,
	})
}

func TestDashboardEndpoint(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateTestApp(t, db)
	dbManager := testsupport.NewTestDBManager(db)
	logger := testsupport.GetLogger()
	testsupport.CleanAllTables(db)

	now := time.Now().UTC()
	testsupport.CollectTestPageView(t, dbManager, logger, "s1", "v1", "https://example.com/", "https://bing.com/", now.Add(-time.Hour))

	req := httptest.NewRequest("GET", "/api/v1/analytics/dashboard?window=7d", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Window string                `json:"window"`
		Stats  analytics.StatsReport `json:"stats"`
		Flow   analytics.FlowGraph   `json:"flow"`
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &payload))

	assert.Equal(t, "7d", payload.Window)
	assert.Equal(t, 1, payload.Stats.PageViews)
	assert.NotEmpty(t, payload.Flow.Links)
}

func TestEventsLogEndpoint(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateTestApp(t, db)
	dbManager := testsupport.NewTestDBManager(db)
	logger := testsupport.GetLogger()
	testsupport.CleanAllTables(db)

	now := time.Now().UTC()
	testsupport.CollectTestPageView(t, dbManager, logger, "s1", "v1", "https://example.com/a", "", now.Add(-2*time.Minute))
	testsupport.CollectTestPageView(t, dbManager, logger, "s1", "v1", "https://example.com/b", "", now.Add(-time.Minute))

	req := httptest.NewRequest("GET", "/api/v1/events?limit=1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Events []events.Event `json:"events"`
		Total  int64          `json:"total"`
		Limit  int            `json:"limit"`
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &payload))

	assert.Equal(t, int64(2), payload.Total)
	assert.Equal(t, 1, payload.Limit)
	require.Len(t, payload.Events, 1)
	assert.Equal(t, "https://example.com/b", payload.Events[0].URL, "newest first")
}

func TestClearEventsEndpoint(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateTestApp(t, db)
	dbManager := testsupport.NewTestDBManager(db)
	logger := testsupport.GetLogger()
	testsupport.CleanAllTables(db)

	testsupport.CollectTestPageView(t, dbManager, logger, "s1", "v1", "https://example.com/", "", time.Now().UTC())

	req := httptest.NewRequest("DELETE", "/api/v1/analytics/events", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&events.Event{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestHealthEndpoint(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateTestApp(t, db)

	req := httptest.NewRequest("GET", "/_health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health struct {
		Status   string `json:"status"`
		DBStatus string `json:"db_status"`
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.DBStatus)
}
