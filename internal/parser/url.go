package parser

import (
	"net/url"
	"strings"
)

const quoteChars = "\"'“”‘’"

var genericPaths = map[string]bool{
	"":            true,
	"/":           true,
	"/index.html": true,
	"/home":       true,
	"/es":         true,
	"/en":         true,
	"/ar":         true,
	"/mx":         true,
	"/search":     true,
}

// CleanURL validates a URL reported by the model.
// It returns false for absent values, placeholders and anything that is not http(s).
func CleanURL(raw string) (string, bool) {
	if raw == "" || raw == "null" || raw == "#" {
		return "", false
	}

	trimmed := strings.TrimSpace(raw)
	trimmed = stripQuote(trimmed)
	if !strings.HasPrefix(trimmed, "http") {
		return "", false
	}
	return trimmed, true
}

// stripQuote removes one leading and one trailing quote character
func stripQuote(s string) string {
	for _, q := range quoteChars {
		if strings.HasPrefix(s, string(q)) {
			s = s[len(string(q)):]
			break
		}
	}
	for _, q := range quoteChars {
		if strings.HasSuffix(s, string(q)) {
			s = s[:len(s)-len(string(q))]
			break
		}
	}
	return s
}

// IsDeepLink reports whether rawURL points at a specific product page rather than
// a store homepage or listing.
func IsDeepLink(rawURL string, store string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	path := strings.TrimSuffix(u.EscapedPath(), "/")
	return !genericPaths[strings.ToLower(path)]
}

// hostname returns the host of rawURL without a leading "www.".
func hostname(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	return strings.TrimPrefix(u.Hostname(), "www."), true
}
