package utils

import (
	"net/url"
	"regexp"
	"strings"
)

const mockScheme = "try12"

var (
	whitespace = regexp.MustCompile(`\s+`)
	mockPrefix = regexp.MustCompile(`(?i)^try12://`)
	httpPrefix = regexp.MustCompile(`(?i)^https?://`)
)

// NormalizeLink strips whitespace and defaults a bare host to https. Links in
// the mock scheme are kept as given.
func NormalizeLink(raw string) string {
	trimmed := whitespace.ReplaceAllString(strings.TrimSpace(raw), "")
	switch {
	case trimmed == "":
		return ""
	case mockPrefix.MatchString(trimmed), httpPrefix.MatchString(trimmed):
		return trimmed
	default:
		return "https://" + trimmed
	}
}

// IsLinkValid accepts http(s) links with a host and try12://mock/<path>.
func IsLinkValid(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Hostname() != ""
	case mockScheme:
		return u.Host == "mock" && u.Path != "" && u.Path != "/"
	default:
		return false
	}
}
