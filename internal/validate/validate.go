package validate

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"foodloop/internal/domain"
)

var (
	rePhone     = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	rePhoneSeps = regexp.MustCompile(`[\s\-()]`)
	reEmail     = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID        = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// Violations maps a field name to a human readable message.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records msg for field unless the field already has a message.
func (v Violations) Add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

// Name trims and enforces 2..255 characters.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	return s, n >= 2 && n <= 255
}

// Phone strips spaces, dashes and parentheses, then requires an optional
// leading + followed by 10-15 digits.
func Phone(s string) (string, bool) {
	clean := rePhoneSeps.ReplaceAllString(strings.TrimSpace(s), "")
	return clean, rePhone.MatchString(clean)
}

func Role(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, domain.ValidRole(s)
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 255 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a simple resource identifier (uuid or seeded slug).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

func Latitude(f float64) bool  { return f >= -90 && f <= 90 }
func Longitude(f float64) bool { return f >= -180 && f <= 180 }

// Text trims s and checks it is non-empty and at most limit runes.
func Text(s string, limit int) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && utf8.RuneCountInString(s) <= limit
}

// URL accepts absolute http(s) URLs only.
func URL(s string) (string, bool) {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", false
	}
	return s, u.Scheme == "http" || u.Scheme == "https"
}

func Rating(n int) bool { return n >= 1 && n <= 5 }

// ExpiryHours defaults 0 to the standard window and rejects values outside (0, max].
func ExpiryHours(h float64) (float64, bool) {
	if h == 0 {
		return domain.DefaultExpiryHours, true
	}
	return h, h > 0 && h <= domain.MaxExpiryHours
}
