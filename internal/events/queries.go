package events

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// DefaultWindowLimit caps how many raw events a single aggregation request
// loads when the caller does not set its own limit.
const DefaultWindowLimit = 2000

// WindowFilter narrows an aggregation query. Zero values mean "no filter".
type WindowFilter struct {
	Since     time.Time
	EventType string
	Limit     int
}

// EventsInWindow loads the raw events feeding one aggregation pass, ordered
// ascending by timestamp so downstream path building sees sessions in order.
func EventsInWindow(db *gorm.DB, filter WindowFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultWindowLimit
	}

	query := db.Model(&Event{}).Order("timestamp ASC").Limit(limit)
	if !filter.Since.IsZero() {
		query = query.Where("timestamp >= ?", filter.Since)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}

	var rows []Event
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("events in window: %w", err)
	}
	return rows, nil
}

// RecentEventsFilter narrows the dashboard event log.
type RecentEventsFilter struct {
	EventType string
	URL       string
	Limit     int
	Offset    int
}

// GetRecentEvents returns the newest events first for the dashboard log view.
func GetRecentEvents(db *gorm.DB, filter RecentEventsFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := db.Model(&Event{}).Order("timestamp DESC").Limit(limit).Offset(filter.Offset)
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.URL != "" {
		query = query.Where("url LIKE ?", "%"+filter.URL+"%")
	}

	var rows []Event
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return rows, nil
}

// CountEvents returns the total number of stored events.
func CountEvents(db *gorm.DB) (int64, error) {
	var count int64
	if err := db.Model(&Event{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// DeleteAllEvents irreversibly clears the events table.
func DeleteAllEvents(dbManager cartridge.DBManager, logger *slog.Logger) (int64, error) {
	var deleted int64
	err := sqlite.PerformWrite(logger, dbManager.GetConnection(), func(tx *gorm.DB) error {
		result := tx.Where("1 = 1").Delete(&Event{})
		deleted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, fmt.Errorf("delete all events: %w", err)
	}

	logger.Info("all events deleted", slog.Int64("count", deleted))
	return deleted, nil
}

// DeleteEventsOlderThan removes events with timestamps before the cutoff in
// batches, returning the total rows removed. Used by the retention job.
func DeleteEventsOlderThan(dbManager cartridge.DBManager, logger *slog.Logger, cutoff time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	var total int64
	for {
		var affected int64
		err := sqlite.PerformWrite(logger, dbManager.GetConnection(), func(tx *gorm.DB) error {
			result := tx.Exec(
				"DELETE FROM events WHERE id IN (SELECT id FROM events WHERE timestamp < ? LIMIT ?)",
				cutoff, batchSize,
			)
			affected = result.RowsAffected
			return result.Error
		})
		if err != nil {
			return total, fmt.Errorf("delete events older than %s: %w", cutoff.Format(time.RFC3339), err)
		}

		total += affected
		if affected < int64(batchSize) {
			break
		}
	}
	return total, nil
}
