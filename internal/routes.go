package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	v1 "sitepulse/api/v1"
	"sitepulse/internal/config"
	"sitepulse/internal/http"
)

// publicCORSConfig returns the standard CORS configuration for public endpoints.
// All public endpoints share this permissive CORS setup for cross-origin access.
var publicCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,DELETE,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent",
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()

	// Helper to conditionally apply rate limiting (only in production)
	// In development/test, rate limiting would interfere with testing
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// Rate limiter for public event ingestion API (70 requests per minute per IP)
	publicRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(70),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Public API config (event ingestion)
	// Rate limiting + CORS; CORS runs first so 4xx responses carry CORS headers.
	// Trackers embed on arbitrary sites, so Sec-Fetch-Site stays off here.
	publicAPIConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		WriteConcurrency:   false,
		CustomMiddleware:   []fiber.Handler{publicRateLimiter},
		CORSConfig:         publicCORSConfig,
		EnableSecFetchSite: cartridge.Bool(false),
	}

	// SDK delivery config (GET-only, cacheable)
	sdkConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		CustomMiddleware:   []fiber.Handler{publicRateLimiter},
		CORSConfig:         publicCORSConfig,
		EnableSecFetchSite: cartridge.Bool(false),
	}

	// Dashboard API config. The dashboard is a separate frontend, so it gets
	// the same permissive CORS as the public API.
	dashboardAPIConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		CORSConfig:         publicCORSConfig,
		EnableSecFetchSite: cartridge.Bool(false),
	}

	// === ROOT ROUTES ===
	srv.Get("/", http.HomeIndexAction)

	// Health check endpoint
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === PUBLIC API ROUTES ===
	srv.Post("/x/api/v1/events", v1.CreateEventPublicAPIHandler, publicAPIConfig)
	srv.Options("/x/api/v1/events", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, publicAPIConfig)
	srv.Post("/x/api/v1/events/beacon", v1.CreateEventBeaconHandler, publicAPIConfig)
	srv.Options("/x/api/v1/events/beacon", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, publicAPIConfig)

	// === SDK ROUTES ===
	srv.Get("/y/api/v1/sdk.js", v1.GetSDKAction, sdkConfig)

	// === ANALYTICS API ROUTES ===
	srv.Get("/api/v1/analytics/stats", http.StatsAction, dashboardAPIConfig)
	srv.Get("/api/v1/analytics/flow", http.FlowAction, dashboardAPIConfig)
	srv.Get("/api/v1/analytics/dashboard", http.DashboardAction, dashboardAPIConfig)
	srv.Get("/api/v1/events", http.EventsIndexAction, dashboardAPIConfig)
	srv.Delete("/api/v1/analytics/events", http.ClearEventsAction, dashboardAPIConfig)
	srv.Options("/api/v1/analytics/events", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, dashboardAPIConfig)
}
