package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/quantaira/vitals/internal/domain/gateway"
	"github.com/quantaira/vitals/internal/domain/measurement"
	"github.com/quantaira/vitals/internal/domain/patient"
)

var pipelineBounds = measurement.Bounds{
	DefaultWindowHours: 24,
	MaxWindowHours:     744,
	DefaultLimit:       500,
	MaxLimit:           5000,
}

func newTestPipeline() (*Service, *measurement.Service) {
	measurements := measurement.NewService(measurement.NewMemRepository(), pipelineBounds, zerolog.Nop())
	gateways := gateway.NewService(gateway.NewMemRepository(), zerolog.Nop())
	patients := patient.NewService(patient.NewMemRepository(), measurements, zerolog.Nop())
	resolver := NewResolver(gateways, patients, zerolog.Nop())
	svc := NewService(NewMemDeliveryRepo(), resolver, measurements, "tenovi", zerolog.Nop())
	return svc, measurements
}

func storedCount(t *testing.T, measurements *measurement.Service) int {
	t.Helper()
	records, err := measurements.Query(context.Background(), measurement.QueryParams{Hours: 744})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	return len(records)
}

func TestIngest_EmptyBodyAcknowledged(t *testing.T) {
	svc, _ := newTestPipeline()
	for _, body := range []string{"", "   ", "\n"} {
		res, err := svc.Ingest(context.Background(), []byte(body))
		if err != nil {
			t.Fatalf("ingest %q: %v", body, err)
		}
		if !res.OK || res.Inserted != 0 || res.Error != "" {
			t.Errorf("ingest %q: got %+v, want ok with zero inserts", body, res)
		}
	}
}

func TestIngest_SingleObject(t *testing.T) {
	svc, measurements := newTestPipeline()
	body := []byte(`{"patient_id":"p1","bp":"120/80"}`)

	res, err := svc.Ingest(context.Background(), body)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !res.OK || res.Inserted != 2 {
		t.Fatalf("got %+v, want ok with 2 inserts", res)
	}

	records, err := measurements.Query(context.Background(), measurement.QueryParams{PatientID: "p1", Hours: 1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("stored %d records for p1, want 2", len(records))
	}
	if records[0].Metric != measurement.MetricSystolicBP || records[1].Metric != measurement.MetricDiastolicBP {
		t.Errorf("metrics = %q, %q; want systolic then diastolic", records[0].Metric, records[1].Metric)
	}
}

func TestIngest_DuplicateDeliverySuppressed(t *testing.T) {
	svc, measurements := newTestPipeline()
	body := []byte(`{"patient_id":"p1","metric":"pulse","value":70}`)

	first, err := svc.Ingest(context.Background(), body)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if first.Duplicate || first.Inserted != 1 {
		t.Fatalf("first delivery: got %+v", first)
	}

	second, err := svc.Ingest(context.Background(), body)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if !second.OK || !second.Duplicate || second.Inserted != 0 {
		t.Errorf("second delivery: got %+v, want duplicate with zero inserts", second)
	}
	if got := storedCount(t, measurements); got != 1 {
		t.Errorf("stored %d records, want exactly 1", got)
	}
}

func TestIngest_MalformedJSON(t *testing.T) {
	svc, _ := newTestPipeline()
	body := []byte(`{"metric": "pulse",`)

	if _, err := svc.Ingest(context.Background(), body); !errors.Is(err, ErrMalformedBody) {
		t.Fatalf("expected ErrMalformedBody, got %v", err)
	}

	// A malformed delivery is never marked seen, so the vendor can retry.
	if seen, _ := svc.deliveries.Seen(context.Background(), HashBody(body)); seen {
		t.Error("malformed body must not be marked seen")
	}
}

func TestIngest_UnsupportedShape(t *testing.T) {
	svc, measurements := newTestPipeline()
	if _, err := svc.Ingest(context.Background(), []byte(`42`)); !errors.Is(err, ErrUnsupportedShape) {
		t.Fatalf("expected ErrUnsupportedShape, got %v", err)
	}
	if got := storedCount(t, measurements); got != 0 {
		t.Errorf("stored %d records, want 0", got)
	}
	// Like malformed bodies, an unsupported shape stays retryable.
	if seen, _ := svc.deliveries.Seen(context.Background(), HashBody([]byte(`42`))); seen {
		t.Error("unsupported-shape body must not be marked seen")
	}
}

func TestIngest_PartialBatch(t *testing.T) {
	svc, _ := newTestPipeline()
	body := []byte(`[
		{"patient_id":"p1","metric":"pulse","value":70},
		{"patient_id":"p1","firmware":"1.2.3"},
		{"patient_id":"p1","metric":"spo2","value":98}
	]`)

	res, err := svc.Ingest(context.Background(), body)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !res.OK || res.Inserted != 2 {
		t.Errorf("got %+v, want ok with inserted=2", res)
	}
}

func TestIngest_RecordsCarrySourceAndRaw(t *testing.T) {
	svc, measurements := newTestPipeline()
	if _, err := svc.Ingest(context.Background(), []byte(`{"patient_id":"p1","metric":"pulse","value":70}`)); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	records, err := measurements.Query(context.Background(), measurement.QueryParams{Hours: 1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Source != "tenovi" {
		t.Errorf("source = %q, want %q", records[0].Source, "tenovi")
	}
	if records[0].Raw == nil {
		t.Error("raw payload should be retained for audit")
	}
}
