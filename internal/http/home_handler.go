package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/config"
)

// HomeIndexAction serves basic service info at the root path.
func HomeIndexAction(ctx *cartridge.Context) error {
	cfg := config.GetConfig()
	return ctx.JSON(fiber.Map{
		"service": cfg.AppName,
		"status":  "running",
		"endpoints": fiber.Map{
			"ingest":    "/x/api/v1/events",
			"sdk":       "/y/api/v1/sdk.js",
			"stats":     "/api/v1/analytics/stats",
			"flow":      "/api/v1/analytics/flow",
			"dashboard": "/api/v1/analytics/dashboard",
			"events":    "/api/v1/events",
		},
	})
}
