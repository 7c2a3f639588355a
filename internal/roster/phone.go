package roster

import (
	"regexp"
	"strings"
)

// DefaultCountryPrefix is the international prefix assumed for local numbers.
const DefaultCountryPrefix = "+62"

// Normalizer canonicalizes raw phone strings into international form:
// the country prefix followed by 8-13 digits.
type Normalizer struct {
	prefix  string
	pattern *regexp.Regexp
}

// NewNormalizer creates a Normalizer for the given country prefix (e.g. "+62").
// An empty prefix falls back to [DefaultCountryPrefix].
func NewNormalizer(prefix string) Normalizer {
	if prefix == "" {
		prefix = DefaultCountryPrefix
	}
	return Normalizer{
		prefix:  prefix,
		pattern: regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `\d{8,13}$`),
	}
}

// Prefix returns the country prefix this normalizer canonicalizes to.
func (n Normalizer) Prefix() string { return n.prefix }

// NormalizePhone canonicalizes raw with the default country prefix.
func NormalizePhone(raw string) string {
	return NewNormalizer("").Normalize(raw)
}

// Normalize cleans raw and returns its canonical form, or "" when the value
// cannot be read as a phone number. It never fails: an unusable value simply
// means "no phone".
//
// A leading "0" is replaced with the country prefix; bare numbers starting
// with the prefix digits or a mobile "8" are prefixed. As a last resort a
// 10-13 digit string is tried with the prefix prepended.
func (n Normalizer) Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	stripped := digits
	if strings.HasPrefix(strings.TrimSpace(raw), "+") {
		stripped = "+" + digits
	}

	bare := strings.TrimPrefix(n.prefix, "+")

	var candidate string
	switch {
	case strings.HasPrefix(stripped, "0"):
		candidate = n.prefix + stripped[1:]
	case strings.HasPrefix(stripped, bare):
		candidate = "+" + stripped
	case strings.HasPrefix(stripped, "8"):
		candidate = n.prefix + stripped
	default:
		candidate = stripped
	}

	if n.pattern.MatchString(candidate) {
		return candidate
	}

	// Fallback: a bare 10-13 digit value may be a local number missing its
	// leading zero.
	if !strings.HasPrefix(stripped, "+") && len(digits) >= 10 && len(digits) <= 13 {
		candidate = n.prefix + digits
		if n.pattern.MatchString(candidate) {
			return candidate
		}
	}

	return ""
}
