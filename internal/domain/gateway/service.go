package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantaira/vitals/internal/domain/patient"
)

// Service manages the gateway directory.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "gateway").Logger(),
		now:    time.Now,
	}
}

// Bind assigns a gateway to a patient, replacing any previous assignment.
func (s *Service) Bind(ctx context.Context, rawGateway, patientID string) (*Binding, error) {
	patientID = strings.TrimSpace(patientID)
	norm := Normalize(rawGateway)
	if norm == "" {
		return nil, fmt.Errorf("gateway id is empty after normalization")
	}
	if patientID == "" {
		return nil, fmt.Errorf("patient id is required")
	}

	b := &Binding{
		GatewayNorm: norm,
		GatewayRaw:  strings.TrimSpace(rawGateway),
		PatientID:   patientID,
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("gateway_id", norm).
		Str("patient_id", patientID).
		Msg("gateway bound to patient")
	return b, nil
}

// Lookup resolves a raw gateway id to its binding. Returns ErrNotFound for
// unmapped gateways.
func (s *Service) Lookup(ctx context.Context, rawGateway string) (*Binding, error) {
	norm := Normalize(rawGateway)
	if norm == "" {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, norm)
}

// List returns every binding, ordered by gateway id.
func (s *Service) List(ctx context.Context) ([]*Binding, error) {
	return s.repo.List(ctx)
}

// ListUnassigned returns bindings still pointing at placeholder patients:
// the operator worklist of gateways nobody has claimed yet.
func (s *Service) ListUnassigned(ctx context.Context) ([]*Binding, error) {
	bindings, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	unassigned := make([]*Binding, 0)
	for _, b := range bindings {
		if patient.IsPlaceholder(b.PatientID) {
			unassigned = append(unassigned, b)
		}
	}
	return unassigned, nil
}

// Seed installs bindings from configuration without overwriting existing
// ones, so operator-made assignments survive restarts.
func (s *Service) Seed(ctx context.Context, pairs map[string]string) error {
	for rawGateway, patientID := range pairs {
		norm := Normalize(rawGateway)
		if norm == "" {
			continue
		}
		if _, err := s.repo.Get(ctx, norm); err == nil {
			continue
		}
		if _, err := s.Bind(ctx, rawGateway, patientID); err != nil {
			return fmt.Errorf("seed gateway %s: %w", norm, err)
		}
	}
	return nil
}
