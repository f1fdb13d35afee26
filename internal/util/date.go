package util

import (
	"encoding/json"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseDate coerces an upstream date value. Anything that cannot be read as
// a date yields nil instead of an error.
func ParseDate(v any) *time.Time {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return &parsed
			}
		}
		return nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil {
				return nil
			}
			n = int64(f)
		}
		return fromEpoch(n)
	case float64:
		return fromEpoch(int64(t))
	case time.Time:
		return &t
	default:
		return nil
	}
}

// Epoch values above 1e11 are milliseconds, smaller ones seconds.
func fromEpoch(n int64) *time.Time {
	if n <= 0 {
		return nil
	}
	var parsed time.Time
	if n > 1e11 {
		parsed = time.UnixMilli(n).UTC()
	} else {
		parsed = time.Unix(n, 0).UTC()
	}
	return &parsed
}

// DateOnly keeps the calendar day of t, as midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatLongDate(t *time.Time) string {
	if t == nil {
		return "Not available"
	}
	return t.Format("January 02, 2006")
}
