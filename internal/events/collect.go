package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// CollectEventInput carries one tracker payload into the store.
type CollectEventInput struct {
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
	IPAddress    string                 `json:"ip_address"`
	Data         map[string]interface{} `json:"data"`
}

// CollectEvent validates and persists a single raw event. Writes go through
// the serialized write helper so concurrent ingest does not contend on the
// SQLite write lock.
func CollectEvent(dbManager cartridge.DBManager, logger *slog.Logger, input *CollectEventInput) error {
	if input == nil {
		return fmt.Errorf("collect event: nil input")
	}
	if input.EventType == "" {
		return fmt.Errorf("collect event: event_type is required")
	}

	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	} else {
		timestamp = timestamp.UTC()
	}

	dataJSON := ""
	if len(input.Data) > 0 {
		raw, err := json.Marshal(input.Data)
		if err != nil {
			return fmt.Errorf("collect event: encode data bag: %w", err)
		}
		dataJSON = string(raw)
	}

	event := Event{
		EventType:    input.EventType,
		URL:          input.URL,
		Referrer:     input.Referrer,
		Timestamp:    timestamp,
		SessionID:    input.SessionID,
		VisitorID:    input.VisitorID,
		UserID:       input.UserID,
		ScreenWidth:  input.ScreenWidth,
		ScreenHeight: input.ScreenHeight,
		Language:     input.Language,
		UserAgent:    input.UserAgent,
		IPAddress:    input.IPAddress,
		Data:         dataJSON,
	}

	err := sqlite.PerformWrite(logger, dbManager.GetConnection(), func(tx *gorm.DB) error {
		return tx.Create(&event).Error
	})
	if err != nil {
		return fmt.Errorf("collect event: insert: %w", err)
	}

	logger.Debug("event collected",
		slog.String("event_type", event.EventType),
		slog.String("session_id", event.SessionID),
	)
	return nil
}
