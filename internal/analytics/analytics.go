// Package analytics holds the aggregation core: pure functions that turn a
// raw event snapshot into page categories, acquisition sources, session
// paths, flow graphs and windowed stats. Nothing here touches the database
// or holds state between calls, so concurrent requests can share it freely.
package analytics

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fallback labels for per-event tolerable errors.
const (
	UnknownLabel     = "Unknown"
	DirectEntryLabel = "Direct Entry"
	InternalLabel    = "Internal"
)

var titleCaser = cases.Title(language.AmericanEnglish)

// capitalize renders a raw token as a display label ("wechat" -> "Wechat").
func capitalize(s string) string {
	return titleCaser.String(strings.ToLower(s))
}
