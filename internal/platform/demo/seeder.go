package demo

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantaira/vitals/internal/domain/measurement"
	"github.com/quantaira/vitals/internal/domain/patient"
)

// Source labels every seeded record so synthetic data is always
// distinguishable from real vendor deliveries.
const Source = "demo"

// Seeder populates the store with clearly-labeled synthetic vitals for local
// development and demos. It never runs as part of the query path; production
// reads return empty results when no real data exists.
type Seeder struct {
	measurements *measurement.Service
	patients     *patient.Service
	logger       zerolog.Logger
	rng          *rand.Rand
	now          func() time.Time
}

func NewSeeder(measurements *measurement.Service, patients *patient.Service, logger zerolog.Logger) *Seeder {
	return &Seeder{
		measurements: measurements,
		patients:     patients,
		logger:       logger.With().Str("component", "demo-seeder").Logger(),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		now:          time.Now,
	}
}

// Seed writes hours of synthetic vitals at a fixed interval for each named
// patient. Values wander within plausible resting ranges; this is chart
// fodder, not clinical data.
func (s *Seeder) Seed(ctx context.Context, names map[string]string, hours int, interval time.Duration) error {
	if hours <= 0 {
		hours = 24
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if len(names) == 0 {
		names = map[string]string{"demo-patient": "Demo Patient"}
	}

	if err := s.patients.SeedNames(ctx, names); err != nil {
		return fmt.Errorf("seed patient names: %w", err)
	}

	start := s.now().UTC().Add(-time.Duration(hours) * time.Hour)
	end := s.now().UTC()
	total := 0
	for id := range names {
		for ts := start; ts.Before(end); ts = ts.Add(interval) {
			for _, rec := range s.vitalsAt(id, ts) {
				if err := s.measurements.Append(ctx, rec); err != nil {
					return fmt.Errorf("seed measurement: %w", err)
				}
				total++
			}
		}
	}

	s.logger.Info().
		Int("patients", len(names)).
		Int("records", total).
		Msg("demo data seeded")
	return nil
}

func (s *Seeder) vitalsAt(patientID string, ts time.Time) []*measurement.Record {
	jitter := func(base, spread float64) float64 {
		return base + (s.rng.Float64()-0.5)*spread
	}
	return []*measurement.Record{
		{
			PatientID:    patientID,
			Metric:       measurement.MetricPulse,
			Value:        float64(int(jitter(72, 16))),
			Unit:         "bpm",
			TimestampUTC: ts,
			Source:       Source,
		},
		{
			PatientID:    patientID,
			Metric:       measurement.MetricSpO2,
			Value:        float64(int(jitter(97, 3))),
			Unit:         "%",
			TimestampUTC: ts,
			Source:       Source,
		},
		{
			PatientID:    patientID,
			Metric:       measurement.MetricSystolicBP,
			Value:        float64(int(jitter(120, 20))),
			Unit:         "mmHg",
			TimestampUTC: ts,
			Source:       Source,
		},
		{
			PatientID:    patientID,
			Metric:       measurement.MetricDiastolicBP,
			Value:        float64(int(jitter(78, 12))),
			Unit:         "mmHg",
			TimestampUTC: ts,
			Source:       Source,
		},
	}
}
