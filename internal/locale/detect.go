package locale

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultCountry is the location a session starts with before detection
const DefaultCountry = "Argentina"

// Countries lists the supported countries in selector order
var Countries = []string{
	"Argentina",
	"México",
	"España",
	"Chile",
	"Colombia",
	"Perú",
	"Uruguay",
	"Estados Unidos",
}

// substringRules is checked in order against the lowercased preferred tag.
// The first match wins, so "es-CL" resolves to España.
var substringRules = []struct {
	substr  string
	country string
}{
	{"mx", "México"},
	{"es", "España"},
	{"cl", "Chile"},
	{"co", "Colombia"},
	{"pe", "Perú"},
}

// IsSupported reports whether country is in the selector list
func IsSupported(country string) bool {
	for _, c := range Countries {
		if c == country {
			return true
		}
	}
	return false
}

// Detect maps a browser locale tag or an Accept-Language header to a supported country.
// Only the preferred tag is consulted. When nothing matches it returns current unchanged.
func Detect(tag string, current string) string {
	raw := strings.TrimSpace(tag)
	if raw == "" {
		return current
	}

	first := strings.ToLower(preferredTag(raw))
	for _, rule := range substringRules {
		if strings.Contains(first, rule.substr) {
			return rule.country
		}
	}
	return current
}

// preferredTag returns the highest weighted tag of an Accept-Language value.
// Values x/text cannot parse fall back to their first comma separated entry.
func preferredTag(raw string) string {
	if tags, _, err := language.ParseAcceptLanguage(raw); err == nil && len(tags) > 0 {
		return tags[0].String()
	}
	first := strings.SplitN(raw, ",", 2)[0]
	return strings.TrimSpace(strings.SplitN(first, ";", 2)[0])
}
