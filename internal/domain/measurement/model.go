package measurement

import (
	"time"
)

// Well-known metric names. The vocabulary is semi-open: vendors may send
// anything, and unrecognized metrics are stored as-is (lower-cased).
const (
	MetricPulse         = "pulse"
	MetricSpO2          = "spo2"
	MetricSystolicBP    = "systolic_bp"
	MetricDiastolicBP   = "diastolic_bp"
	MetricBloodPressure = "blood_pressure"
	MetricPillboxOpened = "pillbox_opened"
)

// Record is the canonical unit of data: one normalized physiological
// observation. Records are immutable once appended; the store never updates
// in place.
type Record struct {
	ID           string                 `json:"id"`
	PatientID    string                 `json:"patient_id"`
	Metric       string                 `json:"metric"`
	Value        interface{}            `json:"value"`
	Unit         string                 `json:"unit,omitempty"`
	TimestampUTC time.Time              `json:"timestamp_utc"`
	DeviceName   string                 `json:"device_name,omitempty"`
	Source       string                 `json:"source,omitempty"`
	Raw          map[string]interface{} `json:"-"`
	CreatedAt    time.Time              `json:"-"`
}

// Filter selects records for a windowed read.
type Filter struct {
	Since     time.Time
	PatientID string // exact match; empty = all patients
	Metric    string // exact match; empty = all metrics
	Limit     int
}
