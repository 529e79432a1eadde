package measurement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Bounds carries the configured query-window and page-size limits.
type Bounds struct {
	DefaultWindowHours int
	MaxWindowHours     int
	DefaultLimit       int
	MaxLimit           int
}

// QueryParams is a windowed read request before clamping.
type QueryParams struct {
	Hours     int
	PatientID string
	Metric    string
	Limit     int
}

// Service enforces record validity on write and window/limit clamping on read.
type Service struct {
	repo   Repository
	bounds Bounds
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, bounds Bounds, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		bounds: bounds,
		logger: logger.With().Str("component", "measurement").Logger(),
		now:    time.Now,
	}
}

// Append stores one record, filling in an ID and a receive-time timestamp
// when the caller left them empty.
func (s *Service) Append(ctx context.Context, rec *Record) error {
	if rec.PatientID == "" {
		return fmt.Errorf("measurement missing patient id")
	}
	rec.Metric = strings.ToLower(strings.TrimSpace(rec.Metric))
	if rec.Metric == "" {
		return fmt.Errorf("measurement missing metric")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.TimestampUTC.IsZero() {
		rec.TimestampUTC = s.now().UTC()
	} else {
		rec.TimestampUTC = rec.TimestampUTC.UTC()
	}

	if err := s.repo.Append(ctx, rec); err != nil {
		return err
	}
	s.logger.Debug().
		Str("patient_id", rec.PatientID).
		Str("metric", rec.Metric).
		Time("timestamp_utc", rec.TimestampUTC).
		Msg("measurement appended")
	return nil
}

// Query reads a time window of records, ascending by timestamp. Out-of-range
// hours and limit values are clamped rather than rejected.
func (s *Service) Query(ctx context.Context, p QueryParams) ([]*Record, error) {
	hours := p.Hours
	if hours <= 0 {
		hours = s.bounds.DefaultWindowHours
	}
	if hours > s.bounds.MaxWindowHours {
		hours = s.bounds.MaxWindowHours
	}
	limit := p.Limit
	if limit <= 0 {
		limit = s.bounds.DefaultLimit
	}
	if limit > s.bounds.MaxLimit {
		limit = s.bounds.MaxLimit
	}

	return s.repo.Query(ctx, Filter{
		Since:     s.now().UTC().Add(-time.Duration(hours) * time.Hour),
		PatientID: strings.TrimSpace(p.PatientID),
		Metric:    strings.ToLower(strings.TrimSpace(p.Metric)),
		Limit:     limit,
	})
}

// PatientIDs lists every patient id that has at least one stored record.
func (s *Service) PatientIDs(ctx context.Context) ([]string, error) {
	return s.repo.DistinctPatientIDs(ctx)
}
