package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/analytics"
	"sitepulse/internal/config"
	"sitepulse/internal/events"
	"sitepulse/internal/pkg/async"
	"sitepulse/internal/timeframe"
)

// DashboardResponse bundles everything the dashboard renders in one request.
type DashboardResponse struct {
	Window string                `json:"window"`
	Stats  analytics.StatsReport `json:"stats"`
	Flow   analytics.FlowGraph   `json:"flow"`
}

// loadWindowEvents parses the window query parameter and fetches the raw
// event snapshot feeding one aggregation pass.
func loadWindowEvents(ctx *cartridge.Context) ([]events.Event, timeframe.Window, error) {
	window, err := timeframe.Parse(ctx.Query("window"))
	if err != nil {
		return nil, "", fiber.NewError(http.StatusBadRequest, err.Error())
	}

	cfg := config.GetConfig()
	snapshot, err := events.EventsInWindow(ctx.DB(), events.WindowFilter{
		Since: window.Since(time.Now().UTC()),
		Limit: cfg.QueryWindowMaxEvents,
	})
	if err != nil {
		return nil, "", err
	}
	return snapshot, window, nil
}

func respondError(ctx *cartridge.Context, err error) error {
	if fiberErr, ok := err.(*fiber.Error); ok {
		return ctx.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}
	ctx.Logger.Error("Analytics computation failed", slog.Any("error", err))
	return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to compute analytics",
	})
}

// StatsAction serves the windowed stats report.
func StatsAction(ctx *cartridge.Context) error {
	snapshot, window, err := loadWindowEvents(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(analytics.ComputeStats(snapshot, window))
}

// FlowAction serves the Sankey flow graph for the window.
func FlowAction(ctx *cartridge.Context) error {
	snapshot, _, err := loadWindowEvents(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(analytics.BuildFlowGraph(analytics.BuildSessionPaths(snapshot)))
}

// DashboardAction computes stats and flow concurrently over one shared
// snapshot. Both aggregations are pure, so they can safely run in parallel.
func DashboardAction(ctx *cartridge.Context) error {
	snapshot, window, err := loadWindowEvents(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	pool := async.NewPool(2)
	tasks := []async.Task{
		{
			Name: "stats",
			Execute: func() (interface{}, error) {
				return analytics.ComputeStats(snapshot, window), nil
			},
		},
		{
			Name: "flow",
			Execute: func() (interface{}, error) {
				return analytics.BuildFlowGraph(analytics.BuildSessionPaths(snapshot)), nil
			},
		},
	}

	results := pool.Execute(context.Background(), tasks)
	for name, result := range results {
		if result.Err != nil {
			ctx.Logger.Error("Dashboard task failed",
				slog.String("task", name),
				slog.Any("error", result.Err))
			return respondError(ctx, result.Err)
		}
	}

	response := DashboardResponse{Window: string(window)}
	if stats, ok := results["stats"].Data.(analytics.StatsReport); ok {
		response.Stats = stats
	}
	if flow, ok := results["flow"].Data.(analytics.FlowGraph); ok {
		response.Flow = flow
	}

	return ctx.JSON(response)
}

// ClearEventsAction irreversibly deletes all stored events.
func ClearEventsAction(ctx *cartridge.Context) error {
	deleted, err := events.DeleteAllEvents(ctx.DBManager, ctx.Logger)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"message": "All events deleted",
		"deleted": deleted,
	})
}
