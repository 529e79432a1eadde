package patient

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Observer reports patient ids that appear in stored measurements. The
// measurement store satisfies this.
type Observer interface {
	PatientIDs(ctx context.Context) ([]string, error)
}

// Service manages the patient directory.
type Service struct {
	repo     Repository
	observed Observer
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService builds a Service. observed may be nil when no measurement store
// is wired in; List then covers only the directory itself.
func NewService(repo Repository, observed Observer, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		observed: observed,
		logger:   logger.With().Str("component", "patient").Logger(),
		now:      time.Now,
	}
}

// EnsurePlaceholder guarantees a directory row for the placeholder patient of
// an unmapped gateway and returns its id.
func (s *Service) EnsurePlaceholder(ctx context.Context, gatewayNorm string) (string, error) {
	id := PlaceholderID(gatewayNorm)
	err := s.repo.Ensure(ctx, &Patient{
		ID:        id,
		Name:      "Unassigned " + gatewayNorm,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("ensure placeholder patient: %w", err)
	}
	return id, nil
}

// Ensure guarantees a directory row for a known patient id.
func (s *Service) Ensure(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("patient id is required")
	}
	return s.repo.Ensure(ctx, &Patient{ID: id, CreatedAt: s.now().UTC()})
}

// Register creates or renames a patient. This is the runtime counterpart of
// the configured name seed; operators use it to name a placeholder once they
// know who is wearing the devices.
func (s *Service) Register(ctx context.Context, id, name string) (*Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("patient id is required")
	}
	p := &Patient{ID: id, Name: strings.TrimSpace(name), CreatedAt: s.now().UTC()}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("patient_id", id).Msg("patient registered")
	return p, nil
}

// SeedNames installs display names from configuration, overwriting previous
// names for the same ids.
func (s *Service) SeedNames(ctx context.Context, names map[string]string) error {
	for id, name := range names {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		p := &Patient{ID: id, Name: name, CreatedAt: s.now().UTC()}
		if err := s.repo.Upsert(ctx, p); err != nil {
			return fmt.Errorf("seed patient %s: %w", id, err)
		}
	}
	return nil
}

// List returns the union of directory entries and patient ids observed in
// the measurement store, sorted by id. Patients that only ever appear in
// measurements get an entry with an empty name.
func (s *Service) List(ctx context.Context) ([]*Patient, error) {
	patients, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]bool, len(patients))
	for _, p := range patients {
		byID[p.ID] = true
	}

	if s.observed != nil {
		ids, err := s.observed.PatientIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list observed patients: %w", err)
		}
		for _, id := range ids {
			if !byID[id] {
				byID[id] = true
				patients = append(patients, &Patient{ID: id})
			}
		}
	}

	sort.Slice(patients, func(i, j int) bool { return patients[i].ID < patients[j].ID })
	return patients, nil
}
