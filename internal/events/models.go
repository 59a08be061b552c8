package events

import (
	"encoding/json"
	"time"
)

// Event type constants
const (
	EventTypePageView   = "pageview"
	EventTypeEngagement = "user_engagement"
	EventTypeClick      = "click"
)

// Engagement duration bounds in seconds. Durations outside (0, MaxPlausibleDuration)
// are discarded; plausible durations are capped at MaxCountedDuration before
// entering the average.
const (
	MaxPlausibleDuration = 86400.0
	MaxCountedDuration   = 1800.0
)

// Event is a raw tracked event as posted by the tracker script. Aggregates are
// recomputed from these rows on demand; nothing is precomputed at write time.
type Event struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	EventType    string    `gorm:"index;not null" json:"event_type"`
	URL          string    `json:"url"`
	Referrer     string    `json:"referrer"`
	Timestamp    time.Time `gorm:"index;not null" json:"timestamp"`
	SessionID    string    `gorm:"index" json:"session_id"`
	VisitorID    string    `gorm:"index" json:"visitor_id"`
	UserID       string    `json:"user_id"`
	ScreenWidth  int       `json:"screen_width"`
	ScreenHeight int       `json:"screen_height"`
	Language     string    `json:"language"`
	UserAgent    string    `json:"user_agent"`
	IPAddress    string    `json:"ip_address"`
	Data         string    `gorm:"type:text" json:"data"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Event) TableName() string {
	return "events"
}

// DataMap decodes the free-form data bag. A missing or malformed bag yields an
// empty map, never an error; callers treat absent keys as "not provided".
func (e *Event) DataMap() map[string]interface{} {
	if e.Data == "" {
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(e.Data), &m); err != nil {
		return map[string]interface{}{}
	}
	return m
}

// DataSource returns the explicit source override carried in the data bag
// (set by the tracker from utm_source), or "" when absent.
func (e *Event) DataSource() string {
	if v, ok := e.DataMap()["source"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// EngagementDuration returns the duration_seconds value from the data bag.
// The second return is false when the key is missing or not numeric.
func (e *Event) EngagementDuration() (float64, bool) {
	v, ok := e.DataMap()["duration_seconds"]
	if !ok {
		return 0, false
	}
	switch d := v.(type) {
	case float64:
		return d, true
	case json.Number:
		f, err := d.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
