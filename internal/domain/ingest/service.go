package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantaira/vitals/internal/domain/measurement"
)

// ErrMalformedBody marks a delivery whose body is non-empty but not valid
// JSON. ErrUnsupportedShape marks valid JSON that is neither an object nor an
// array. Handlers translate both to a 400.
var (
	ErrMalformedBody    = errors.New("request body is not valid JSON")
	ErrUnsupportedShape = errors.New("payload is neither an object nor an array")
)

// Result is the webhook acknowledgment.
type Result struct {
	OK        bool   `json:"ok"`
	Inserted  int    `json:"inserted"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Service runs the ingestion pipeline: idempotency check, parse, fan-out
// normalize and resolve, append.
type Service struct {
	deliveries   DeliveryRepo
	resolver     *Resolver
	measurements *measurement.Service
	source       string
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(deliveries DeliveryRepo, resolver *Resolver, measurements *measurement.Service, source string, logger zerolog.Logger) *Service {
	return &Service{
		deliveries:   deliveries,
		resolver:     resolver,
		measurements: measurements,
		source:       source,
		logger:       logger.With().Str("component", "ingest").Logger(),
		now:          time.Now,
	}
}

// Ingest processes one raw webhook delivery. It returns ErrMalformedBody for
// unreadable JSON and ErrUnsupportedShape for a non-object, non-array body;
// any other error is a storage failure and the delivery has not been marked
// seen, so the vendor can safely retry.
func (s *Service) Ingest(ctx context.Context, body []byte) (Result, error) {
	// Vendors send zero-length test pings; acknowledge them.
	if len(bytes.TrimSpace(body)) == 0 {
		return Result{OK: true}, nil
	}

	hash := HashBody(body)
	seen, err := s.deliveries.Seen(ctx, hash)
	if err != nil {
		return Result{}, err
	}
	if seen {
		s.logger.Info().Str("body_sha256", hash).Msg("duplicate delivery suppressed")
		return Result{OK: true, Duplicate: true}, nil
	}

	objects, err := parseBody(body)
	if err != nil {
		return Result{}, err
	}

	// Marked only after the parse succeeds, so a delivery rejected as
	// malformed stays retryable. A racing duplicate loses here.
	fresh, err := s.deliveries.MarkIfNew(ctx, hash)
	if err != nil {
		return Result{}, err
	}
	if !fresh {
		return Result{OK: true, Duplicate: true}, nil
	}

	receivedAt := s.now().UTC()
	inserted := 0
	for _, obj := range objects {
		patientID, err := s.resolver.Resolve(ctx, obj)
		if err != nil {
			return Result{}, err
		}
		for _, event := range Normalize(obj, receivedAt) {
			rec := &measurement.Record{
				PatientID:    patientID,
				Metric:       event.Metric,
				Value:        event.Value,
				Unit:         event.Unit,
				TimestampUTC: event.Timestamp,
				DeviceName:   event.DeviceName,
				Source:       s.source,
				Raw:          obj,
			}
			if err := s.measurements.Append(ctx, rec); err != nil {
				return Result{}, err
			}
			inserted++
		}
	}

	s.logger.Info().
		Str("body_sha256", hash).
		Int("objects", len(objects)).
		Int("inserted", inserted).
		Msg("delivery ingested")
	return Result{OK: true, Inserted: inserted}, nil
}

// parseBody decodes the delivery into a flat list of objects. A single
// object becomes a one-element list. Non-object elements inside an array are
// skipped, not fatal.
func parseBody(body []byte) ([]map[string]interface{}, error) {
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, ErrMalformedBody
	}

	switch v := decoded.(type) {
	case map[string]interface{}:
		return []map[string]interface{}{v}, nil
	case []interface{}:
		objects := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]interface{}); ok {
				objects = append(objects, obj)
			}
		}
		return objects, nil
	default:
		return nil, ErrUnsupportedShape
	}
}
