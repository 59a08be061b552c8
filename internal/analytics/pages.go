package analytics

import "net/url"

// Page category labels.
const (
	PageHome = "Home"
)

// pagePrefixes maps path prefixes to page categories. Order matters:
// "/course/" must win over "/courses" for detail pages.
var pagePrefixes = []struct {
	prefix   string
	category string
}{
	{"/course/", "Course Detail"},
	{"/courses", "Course List"},
	{"/rankings", "Rankings"},
	{"/login", "Login"},
	{"/register", "Register"},
	{"/admin", "Admin"},
}

// NormalizeURL maps a raw URL to a coarse page category. Malformed input
// degrades to "Unknown"; unrecognized paths come back verbatim so they still
// form their own bucket.
func NormalizeURL(raw string) string {
	if raw == "" {
		return PageHome
	}

	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return UnknownLabel
	}

	path := parsed.Path
	if path == "" || path == "/" {
		return PageHome
	}

	for _, rule := range pagePrefixes {
		if len(path) >= len(rule.prefix) && path[:len(rule.prefix)] == rule.prefix {
			return rule.category
		}
	}
	return path
}
