package ingest

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	fallback := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   interface{}
		want time.Time
	}{
		{"rfc3339 zulu", "2025-06-01T08:30:00Z", time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)},
		{"rfc3339 offset", "2025-06-01T08:30:00+02:00", time.Date(2025, 6, 1, 6, 30, 0, 0, time.UTC)},
		{"naive assumed utc", "2025-06-01T08:30:00", time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)},
		{"space separated", "2025-06-01 08:30:00", time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)},
		{"date only", "2025-06-01", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"epoch seconds", float64(1748766600), time.Unix(1748766600, 0).UTC()},
		{"epoch millis", float64(1748766600000), time.UnixMilli(1748766600000).UTC()},
		{"garbage string", "yesterday-ish", fallback},
		{"empty string", "", fallback},
		{"nil", nil, fallback},
		{"zero number", float64(0), fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTimestamp(tt.in, fallback)
			if !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTimestampFrom_FieldOrder(t *testing.T) {
	fallback := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	obj := map[string]interface{}{
		"timestamp": "2025-06-01T01:00:00Z",
		"time":      "2025-06-01T02:00:00Z",
	}
	got := timestampFrom(obj, fallback)
	want := time.Date(2025, 6, 1, 1, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("timestampFrom = %v, want the timestamp field %v", got, want)
	}

	if got := timestampFrom(map[string]interface{}{}, fallback); !got.Equal(fallback) {
		t.Errorf("timestampFrom on empty object = %v, want fallback", got)
	}
}

func TestTimestampFrom_VendorKeyVariants(t *testing.T) {
	fallback := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	want := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	for _, key := range []string{"created_at", "dateTime", "recorded_at"} {
		obj := map[string]interface{}{key: "2025-06-01T03:00:00Z"}
		if got := timestampFrom(obj, fallback); !got.Equal(want) {
			t.Errorf("key %s: got %v, want %v", key, got, want)
		}
	}
}
