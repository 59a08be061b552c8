package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/events"
)

const (
	msgEventAdded     = "Event added successfully"
	errInvalidRequest = "Invalid request"
)

// CreateEventParams mirrors the tracker payload.
type CreateEventParams struct {
	EventType    string                 `json:"event_type"`
	URL          string                 `json:"url"`
	Referrer     string                 `json:"referrer"`
	Timestamp    time.Time              `json:"timestamp"`
	SessionID    string                 `json:"session_id"`
	VisitorID    string                 `json:"visitor_id"`
	UserID       string                 `json:"user_id"`
	ScreenWidth  int                    `json:"screen_width"`
	ScreenHeight int                    `json:"screen_height"`
	Language     string                 `json:"language"`
	UserAgent    string                 `json:"user_agent"`
	Data         map[string]interface{} `json:"data"`
}

func (p *CreateEventParams) toCollectInput(ctx *cartridge.Context) *events.CollectEventInput {
	userAgent := p.UserAgent
	if userAgent == "" {
		userAgent = ctx.Get("User-Agent")
	}
	if forwardedUA := ctx.Get("X-Forwarded-User-Agent"); forwardedUA != "" {
		userAgent = forwardedUA
	}

	return &events.CollectEventInput{
		EventType:    p.EventType,
		URL:          p.URL,
		Referrer:     p.Referrer,
		Timestamp:    p.Timestamp,
		SessionID:    p.SessionID,
		VisitorID:    p.VisitorID,
		UserID:       p.UserID,
		ScreenWidth:  p.ScreenWidth,
		ScreenHeight: p.ScreenHeight,
		Language:     p.Language,
		UserAgent:    userAgent,
		IPAddress:    getClientIP(ctx.Ctx),
		Data:         p.Data,
	}
}

// CreateEventPublicAPIHandler ingests one tracker event.
func CreateEventPublicAPIHandler(ctx *cartridge.Context) error {
	ctx.Logger.Debug("Received event request",
		slog.String("method", ctx.Method()),
		slog.String("path", ctx.Path()))

	var params CreateEventParams
	if err := ctx.Ctx.BodyParser(&params); err != nil {
		ctx.Logger.Debug("Failed to parse event request", slog.Any("error", err))
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": errInvalidRequest})
	}
	if params.EventType == "" {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "event_type is required"})
	}

	if err := events.CollectEvent(ctx.DBManager, ctx.Logger, params.toCollectInput(ctx)); err != nil {
		ctx.Logger.Error("Failed to collect event", slog.Any("error", err))
		if strings.Contains(err.Error(), "database is locked") || strings.Contains(err.Error(), "busy") {
			return ctx.Status(599).JSON(fiber.Map{}) // custom status code
		}
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to collect event",
			"code":  "COLLECTION_ERROR",
		})
	}

	return ctx.Status(http.StatusAccepted).JSON(fiber.Map{
		"message": msgEventAdded,
		"status":  http.StatusAccepted,
	})
}

// CreateEventBeaconHandler handles events sent via navigator.sendBeacon.
// Beacon requests always get a 202 back; the browser never reads the body.
func CreateEventBeaconHandler(ctx *cartridge.Context) error {
	ctx.Logger.Debug("Received beacon event request",
		slog.String("method", ctx.Method()),
		slog.String("path", ctx.Path()))

	// Beacons arrive as text/plain, so parse the body directly.
	var params CreateEventParams
	if err := json.Unmarshal(ctx.Body(), &params); err != nil {
		ctx.Logger.Debug("Failed to parse beacon request", slog.Any("error", err))
		return ctx.SendStatus(http.StatusAccepted)
	}
	if params.EventType == "" {
		return ctx.SendStatus(http.StatusAccepted)
	}

	if err := events.CollectEvent(ctx.DBManager, ctx.Logger, params.toCollectInput(ctx)); err != nil {
		ctx.Logger.Error("Failed to collect beacon event", slog.Any("error", err))
	}

	return ctx.SendStatus(http.StatusAccepted)
}
