package analytics

import (
	"net/url"
	"strings"
)

// utmOverrides maps well-known utm_source values to their display labels.
// Anything else becomes "<Capitalized> (UTM)".
var utmOverrides = map[string]string{
	"wechat":   "WeChat",
	"dingtalk": "DingTalk",
	"google":   "Google Search",
}

// agentRules match in-app browsers by user-agent substring, checked in order.
var agentRules = []struct {
	needle string
	label  string
}{
	{"micromessenger", "WeChat"},
	{"dingtalk", "DingTalk"},
	{"qq/", "QQ"},
	{"weibo", "Weibo"},
}

// referrerHostRules classify external referrers by host substring, checked
// in order. Multiple needles per rule are alternatives.
var referrerHostRules = []struct {
	needles []string
	label   string
}{
	{[]string{"google"}, "Google Search"},
	{[]string{"bing"}, "Bing Search"},
	{[]string{"twitter", "t.co"}, "Twitter"},
	{[]string{"facebook"}, "Facebook"},
	{[]string{"baidu"}, "Baidu"},
	{[]string{"dingtalk"}, "DingTalk"},
	{[]string{"weixin", "wechat"}, "WeChat"},
}

// ClassifySource maps a (referrer, landing URL, user agent) triple to an
// acquisition channel label. Rules apply in a fixed precedence; a rule whose
// input fails to parse is skipped silently and evaluation falls through.
func ClassifySource(referrer, landingURL, userAgent string) string {
	// 1. Explicit utm_source on the landing URL beats everything.
	if label, ok := classifyUTM(landingURL); ok {
		return label
	}

	// 2. In-app browsers identify themselves in the user agent.
	ua := strings.ToLower(userAgent)
	for _, rule := range agentRules {
		if strings.Contains(ua, rule.needle) {
			return rule.label
		}
	}

	// 3. No referrer at all means the visitor typed or bookmarked the URL.
	if referrer == "" {
		return DirectEntryLabel
	}

	refHost := hostOf(referrer)

	// 4. Same host as the landing page is intra-site navigation, not an
	// acquisition. Scheme and port are deliberately ignored.
	if refHost != "" && refHost == hostOf(landingURL) {
		return InternalLabel
	}

	// 5. Known external platforms by host substring.
	for _, rule := range referrerHostRules {
		for _, needle := range rule.needles {
			if strings.Contains(refHost, needle) {
				return rule.label
			}
		}
	}

	// 6. Fall back to the bare referrer host.
	if refHost != "" {
		return refHost
	}

	return UnknownLabel
}

// UTMSourceLabel renders an explicit source override the way the stats
// tally reports it.
func UTMSourceLabel(source string) string {
	return source + " (UTM)"
}

func classifyUTM(landingURL string) (string, bool) {
	parsed, err := url.Parse(landingURL)
	if err != nil {
		return "", false
	}
	source := parsed.Query().Get("utm_source")
	if source == "" {
		return "", false
	}

	source = strings.ToLower(source)
	if label, ok := utmOverrides[source]; ok {
		return label, true
	}
	return UTMSourceLabel(capitalize(source)), true
}

func hostOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
