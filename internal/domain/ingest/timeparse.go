package ingest

import (
	"strings"
	"time"
)

// Layouts vendors have been observed to send, tried in order. Naive
// timestamps are assumed UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp converts a vendor timestamp value to UTC. Strings are tried
// against known layouts, numbers are treated as a Unix epoch (seconds, or
// milliseconds for large values). Anything unparseable yields the fallback;
// a bad timestamp never fails a record.
func parseTimestamp(v interface{}, fallback time.Time) time.Time {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return fallback
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC()
			}
		}
		return fallback
	case float64:
		if t <= 0 {
			return fallback
		}
		if t > 1e12 { // epoch milliseconds
			return time.UnixMilli(int64(t)).UTC()
		}
		return time.Unix(int64(t), 0).UTC()
	default:
		return fallback
	}
}

// timestampFrom picks the first timestamp field present on the object,
// falling back when none parse.
func timestampFrom(obj map[string]interface{}, fallback time.Time) time.Time {
	for _, key := range []string{"timestamp", "timestamp_utc", "time", "recorded_at", "created_at", "dateTime"} {
		if v, ok := obj[key]; ok {
			return parseTimestamp(v, fallback)
		}
	}
	return fallback
}
