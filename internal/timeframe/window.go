// Package timeframe parses dashboard time-window labels and provides the
// trend bucketing that goes with each window.
package timeframe

import (
	"fmt"
	"time"
)

// Window identifies how far back an aggregation query reaches.
type Window string

// Supported window labels.
const (
	Window24h Window = "24h"
	Window7d  Window = "7d"
	Window30d Window = "30d"
	WindowAll Window = "all"
)

// Parse maps a query-string label to a Window. The empty label defaults to
// 24h; anything else unknown is an error.
func Parse(label string) (Window, error) {
	switch label {
	case "", string(Window24h):
		return Window24h, nil
	case string(Window7d):
		return Window7d, nil
	case string(Window30d):
		return Window30d, nil
	case string(WindowAll):
		return WindowAll, nil
	default:
		return "", fmt.Errorf("unknown window %q", label)
	}
}

// Since returns the query start instant for the window relative to now.
// WindowAll returns the zero time, meaning no lower bound.
func (w Window) Since(now time.Time) time.Time {
	switch w {
	case Window24h:
		return now.Add(-24 * time.Hour)
	case Window7d:
		return now.AddDate(0, 0, -7)
	case Window30d:
		return now.AddDate(0, 0, -30)
	default:
		return time.Time{}
	}
}

// Hourly reports whether trend buckets for this window are hours rather than
// days.
func (w Window) Hourly() bool {
	return w == Window24h
}

// BucketKey returns the sort key for the trend bucket containing t.
// Hour buckets key as "2006-01-02 15:00", day buckets as "2006-01-02".
func (w Window) BucketKey(t time.Time) string {
	if w.Hourly() {
		return t.Format("2006-01-02 15:00")
	}
	return t.Format("2006-01-02")
}

// BucketLabel returns the display label for the trend bucket containing t.
// Hour buckets show just the hour, day buckets the date.
func (w Window) BucketLabel(t time.Time) string {
	if w.Hourly() {
		return t.Format("15:00")
	}
	return t.Format("2006-01-02")
}
