package models

import (
	"strconv"
	"strings"
	"time"
)

// The three systems do not agree on types: Yuman custom fields come back as
// strings ("12.0"), VCOM returns JSON numbers, the database stores doubles.
// Snapshots normalise at construction time so equality never loops on a
// representation difference.

// ParseDecimal converts a numeric value of unknown representation into a
// float64. Returns nil for empty or unparseable input.
func ParseDecimal(v any) *float64 {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		return &n
	case float32:
		f := float64(n)
		return &f
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// CanonicalDate reduces a date of unknown precision ("2021-03-01",
// "2021-03-01T00:00:00Z", "2021-03-01 00:00:00") to its YYYY-MM-DD part.
// Returns nil for empty input and the trimmed original for anything that
// does not start with an ISO date.
func CanonicalDate(v string) *string {
	s := strings.TrimSpace(v)
	if s == "" {
		return nil
	}
	if len(s) >= 10 {
		if _, err := time.Parse("2006-01-02", s[:10]); err == nil {
			day := s[:10]
			return &day
		}
	}
	return &s
}

// NonEmpty returns a pointer to the trimmed string, or nil when blank.
// Adapters use it so "" and absent collapse to the same snapshot value.
func NonEmpty(v string) *string {
	s := strings.TrimSpace(v)
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences with "" as the nil default.
func StringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
