package ingest

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quantaira/vitals/internal/domain/gateway"
	"github.com/quantaira/vitals/internal/domain/patient"
)

// Resolver attributes a vendor object to a patient. It never rejects an
// event for lack of identity; at worst an event lands on the "unknown"
// sentinel patient.
type Resolver struct {
	gateways *gateway.Service
	patients *patient.Service
	logger   zerolog.Logger
}

func NewResolver(gateways *gateway.Service, patients *patient.Service, logger zerolog.Logger) *Resolver {
	return &Resolver{
		gateways: gateways,
		patients: patients,
		logger:   logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve finds the owning patient id for one vendor object. Precedence:
// explicit patient id field, then gateway lookup, then the unknown sentinel.
// An unmapped gateway gets a placeholder patient and a recorded binding, so
// later events from the same gateway land on the same placeholder.
func (r *Resolver) Resolve(ctx context.Context, obj map[string]interface{}) (string, error) {
	if id := explicitPatientID(obj); id != "" {
		if err := r.patients.Ensure(ctx, id); err != nil {
			return "", err
		}
		return id, nil
	}

	if rawGateway := gatewayID(obj); rawGateway != "" {
		return r.resolveGateway(ctx, rawGateway)
	}

	if err := r.patients.Ensure(ctx, patient.UnknownID); err != nil {
		return "", err
	}
	return patient.UnknownID, nil
}

func (r *Resolver) resolveGateway(ctx context.Context, rawGateway string) (string, error) {
	binding, err := r.gateways.Lookup(ctx, rawGateway)
	if err == nil {
		return binding.PatientID, nil
	}
	if !errors.Is(err, gateway.ErrNotFound) {
		return "", err
	}

	norm := gateway.Normalize(rawGateway)
	if norm == "" {
		if err := r.patients.Ensure(ctx, patient.UnknownID); err != nil {
			return "", err
		}
		return patient.UnknownID, nil
	}

	placeholderID, err := r.patients.EnsurePlaceholder(ctx, norm)
	if err != nil {
		return "", err
	}
	if _, err := r.gateways.Bind(ctx, rawGateway, placeholderID); err != nil {
		return "", err
	}
	r.logger.Info().
		Str("gateway_id", norm).
		Str("patient_id", placeholderID).
		Msg("unmapped gateway bound to placeholder patient")
	return placeholderID, nil
}

func explicitPatientID(obj map[string]interface{}) string {
	for _, key := range []string{"patient_id", "patientId", "user_id"} {
		if id, ok := obj[key].(string); ok && strings.TrimSpace(id) != "" {
			return strings.TrimSpace(id)
		}
	}
	// Nested one level: patient.id, user.id.
	for _, key := range []string{"patient", "user"} {
		nested, ok := obj[key].(map[string]interface{})
		if !ok {
			continue
		}
		if id, ok := nested["id"].(string); ok && strings.TrimSpace(id) != "" {
			return strings.TrimSpace(id)
		}
	}
	return ""
}

func gatewayID(obj map[string]interface{}) string {
	for _, key := range []string{"gateway_id", "gateway", "device_id"} {
		if id, ok := obj[key].(string); ok && strings.TrimSpace(id) != "" {
			return strings.TrimSpace(id)
		}
	}
	return ""
}
