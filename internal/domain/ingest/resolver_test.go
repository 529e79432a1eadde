package ingest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/quantaira/vitals/internal/domain/gateway"
	"github.com/quantaira/vitals/internal/domain/patient"
)

func newTestResolver() (*Resolver, *gateway.Service) {
	gateways := gateway.NewService(gateway.NewMemRepository(), zerolog.Nop())
	patients := patient.NewService(patient.NewMemRepository(), nil, zerolog.Nop())
	return NewResolver(gateways, patients, zerolog.Nop()), gateways
}

func TestResolve_ExplicitPatientID(t *testing.T) {
	r, _ := newTestResolver()
	id, err := r.Resolve(context.Background(), map[string]interface{}{"patient_id": " p42 "})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != "p42" {
		t.Errorf("id = %q, want %q", id, "p42")
	}
}

func TestResolve_NestedPatientID(t *testing.T) {
	r, _ := newTestResolver()
	obj := map[string]interface{}{"patient": map[string]interface{}{"id": "p7"}}
	id, err := r.Resolve(context.Background(), obj)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != "p7" {
		t.Errorf("id = %q, want %q", id, "p7")
	}
}

func TestResolve_BoundGateway(t *testing.T) {
	r, gateways := newTestResolver()
	if _, err := gateways.Bind(context.Background(), "GW-9", "erin"); err != nil {
		t.Fatalf("bind: %v", err)
	}

	id, err := r.Resolve(context.Background(), map[string]interface{}{"gateway_id": "gw 9"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != "erin" {
		t.Errorf("id = %q, want bound patient %q", id, "erin")
	}
}

func TestResolve_UnknownGatewayGetsStablePlaceholder(t *testing.T) {
	r, gateways := newTestResolver()
	ctx := context.Background()

	first, err := r.Resolve(ctx, map[string]interface{}{"gateway_id": "GW-NEW"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := r.Resolve(ctx, map[string]interface{}{"gateway_id": "gwnew"})
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if first != second {
		t.Errorf("placeholder not stable: %q vs %q", first, second)
	}
	if !patient.IsPlaceholder(first) {
		t.Errorf("id %q should be a placeholder", first)
	}

	// The resolution recorded a binding, so the directory now knows it.
	b, err := gateways.Lookup(ctx, "GWNEW")
	if err != nil {
		t.Fatalf("lookup after resolve: %v", err)
	}
	if b.PatientID != first {
		t.Errorf("binding patient = %q, want %q", b.PatientID, first)
	}
}

func TestResolve_NoIdentityFallsBackToUnknown(t *testing.T) {
	r, _ := newTestResolver()
	id, err := r.Resolve(context.Background(), map[string]interface{}{"metric": "pulse", "value": 70.0})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != patient.UnknownID {
		t.Errorf("id = %q, want %q", id, patient.UnknownID)
	}
}
