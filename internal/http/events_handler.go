package http

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/events"
)

// EventsIndexAction serves the recent-events log for the dashboard, newest
// first, with optional type/url filters and limit/offset paging.
func EventsIndexAction(ctx *cartridge.Context) error {
	filter := events.RecentEventsFilter{
		EventType: ctx.Query("type"),
		URL:       ctx.Query("url"),
		Limit:     queryInt(ctx, "limit", 100),
		Offset:    queryInt(ctx, "offset", 0),
	}

	rows, err := events.GetRecentEvents(ctx.DB(), filter)
	if err != nil {
		return respondError(ctx, err)
	}

	total, err := events.CountEvents(ctx.DB())
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"events": rows,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func queryInt(ctx *cartridge.Context, key string, fallback int) int {
	raw := ctx.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
