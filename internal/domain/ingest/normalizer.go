package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quantaira/vitals/internal/domain/measurement"
)

// Event is one normalized observation extracted from a vendor object,
// before identity is attached.
type Event struct {
	Metric     string
	Value      interface{}
	Unit       string
	Timestamp  time.Time
	DeviceName string
}

// Normalize converts one vendor object into zero or more events. Vendors are
// inconsistent about shape, so this runs an ordered set of matchers and every
// matcher that recognizes something contributes events. An object matching
// nothing yields an empty slice, never an error.
func Normalize(obj map[string]interface{}, receivedAt time.Time) []Event {
	return normalize(obj, receivedAt, true)
}

func normalize(obj map[string]interface{}, receivedAt time.Time, allowBatch bool) []Event {
	ts := timestampFrom(obj, receivedAt)
	device := deviceNameFrom(obj)

	var events []Event
	events = append(events, matchBloodPressure(obj, ts, device)...)
	events = append(events, matchFlat(obj, ts, device)...)
	events = append(events, matchNestedReading(obj, ts, device, receivedAt)...)
	if allowBatch {
		events = append(events, matchBatch(obj, ts, receivedAt)...)
	}
	events = append(events, matchVitalKeys(obj, ts, device)...)
	return events
}

// matchBloodPressure handles a combined "SYS/DIA" string or separate
// systolic/diastolic fields. A combined value whose halves are not numeric
// degrades to a single blood_pressure record carrying the raw string; the
// data is never dropped.
func matchBloodPressure(obj map[string]interface{}, ts time.Time, device string) []Event {
	for _, key := range []string{"blood_pressure", "bp", "bp_value"} {
		raw, ok := obj[key].(string)
		if !ok {
			continue
		}
		sys, dia, err := splitBloodPressure(raw)
		if err != nil {
			return []Event{{Metric: measurement.MetricBloodPressure, Value: raw, Timestamp: ts, DeviceName: device}}
		}
		return []Event{
			{Metric: measurement.MetricSystolicBP, Value: sys, Unit: "mmHg", Timestamp: ts, DeviceName: device},
			{Metric: measurement.MetricDiastolicBP, Value: dia, Unit: "mmHg", Timestamp: ts, DeviceName: device},
		}
	}

	sys, sysOK := numericField(obj, "systolic", "systolic_bp")
	dia, diaOK := numericField(obj, "diastolic", "diastolic_bp")
	if sysOK && diaOK {
		return []Event{
			{Metric: measurement.MetricSystolicBP, Value: sys, Unit: "mmHg", Timestamp: ts, DeviceName: device},
			{Metric: measurement.MetricDiastolicBP, Value: dia, Unit: "mmHg", Timestamp: ts, DeviceName: device},
		}
	}
	return nil
}

func splitBloodPressure(raw string) (float64, float64, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("blood pressure %q is not SYS/DIA", raw)
	}
	sys, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("systolic half of %q: %w", raw, err)
	}
	dia, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("diastolic half of %q: %w", raw, err)
	}
	return sys, dia, nil
}

// matchFlat handles {"metric": ..., "value": ...} (or "type" instead of
// "metric"). Some devices name the measurement in "type" and carry the value
// in the matching vital-sign field ({"type":"spo2","spo2":98}); the value is
// sourced from there when no "value" key exists.
func matchFlat(obj map[string]interface{}, ts time.Time, device string) []Event {
	var metric string
	for _, key := range []string{"metric", "type"} {
		if m, ok := obj[key].(string); ok {
			metric = m
			break
		}
	}
	metric = strings.ToLower(strings.TrimSpace(metric))
	if metric == "" {
		return nil
	}

	unit, _ := obj["unit"].(string)
	value, ok := obj["value"]
	if !ok {
		value, ok = obj[metric]
		if ok && unit == "" {
			unit = vitalUnit(metric)
		}
	}
	if !ok {
		return nil
	}

	return []Event{{
		Metric:     metric,
		Value:      coerceNumeric(value),
		Unit:       unit,
		Timestamp:  ts,
		DeviceName: device,
	}}
}

func vitalUnit(metric string) string {
	switch metric {
	case measurement.MetricSpO2:
		return "%"
	case measurement.MetricPulse, "heart_rate":
		return "bpm"
	default:
		return ""
	}
}

// matchNestedReading handles a "reading" sub-object carrying its own
// metric/value/unit/timestamp. The nested timestamp, when present, overrides
// the outer one.
func matchNestedReading(obj map[string]interface{}, outerTS time.Time, device string, receivedAt time.Time) []Event {
	nested, ok := obj["reading"].(map[string]interface{})
	if !ok {
		return nil
	}
	ts := timestampFrom(nested, outerTS)
	if d := deviceNameFrom(nested); d != "" {
		device = d
	}

	var events []Event
	events = append(events, matchBloodPressure(nested, ts, device)...)
	events = append(events, matchFlat(nested, ts, device)...)
	events = append(events, matchVitalKeys(nested, ts, device)...)
	return events
}

// matchBatch handles a list sub-field of measurement objects, each processed
// by the single-object rules and inheriting the outer timestamp when it has
// none of its own.
func matchBatch(obj map[string]interface{}, outerTS time.Time, receivedAt time.Time) []Event {
	var events []Event
	for _, key := range []string{"measurements", "readings", "events"} {
		list, ok := obj[key].([]interface{})
		if !ok {
			continue
		}
		for _, item := range list {
			element, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			events = append(events, normalize(element, outerTS, false)...)
		}
	}
	return events
}

// matchVitalKeys maps bare vital-sign fields (spo2, pulse, heart_rate) to
// records with inferred units. Skipped when the object carries an explicit
// metric key, which already claimed the value.
func matchVitalKeys(obj map[string]interface{}, ts time.Time, device string) []Event {
	if _, ok := obj["metric"]; ok {
		return nil
	}
	if _, ok := obj["type"]; ok {
		return nil
	}

	vitals := []struct {
		key    string
		metric string
		unit   string
	}{
		{"spo2", measurement.MetricSpO2, "%"},
		{"pulse", measurement.MetricPulse, "bpm"},
		{"heart_rate", measurement.MetricPulse, "bpm"},
	}

	var events []Event
	for _, v := range vitals {
		value, ok := obj[v.key]
		if !ok {
			continue
		}
		events = append(events, Event{
			Metric:     v.metric,
			Value:      coerceNumeric(value),
			Unit:       v.unit,
			Timestamp:  ts,
			DeviceName: device,
		})
	}
	return events
}

// coerceNumeric converts numeric-looking string values to numbers and leaves
// everything else alone.
func coerceNumeric(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f
	}
	return v
}

func numericField(obj map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case float64:
			return v, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func deviceNameFrom(obj map[string]interface{}) string {
	for _, key := range []string{"device_name", "device"} {
		if name, ok := obj[key].(string); ok {
			return strings.TrimSpace(name)
		}
	}
	return ""
}
