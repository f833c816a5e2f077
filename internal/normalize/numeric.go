package normalize

import (
	"strconv"
	"strings"
)

// ParseNullableFloat turns an empty string, whitespace, or a non-numeric
// token into a null (nil), never a fabricated zero.
func ParseNullableFloat(raw string) *float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseNullableBool interprets common truthy/falsy CSV tokens; unrecognized
// or empty tokens are null.
func ParseNullableBool(raw string) *bool {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	switch trimmed {
	case "true", "y", "yes", "1":
		v := true
		return &v
	case "false", "n", "no", "0":
		v := false
		return &v
	default:
		return nil
	}
}

// CanonicalName upper-cases and trims a zone/interface name before interning
// (spec.md §3 invariant).
func CanonicalName(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
