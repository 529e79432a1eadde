package patient

import (
	"context"
	"sort"
	"sync"
)

type memRepository struct {
	mu       sync.RWMutex
	patients map[string]*Patient
}

func NewMemRepository() Repository {
	return &memRepository{patients: make(map[string]*Patient)}
}

func (r *memRepository) Ensure(ctx context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[p.ID]; ok {
		return nil
	}
	clone := *p
	r.patients[p.ID] = &clone
	return nil
}

func (r *memRepository) Upsert(ctx context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	if existing, ok := r.patients[p.ID]; ok {
		clone.CreatedAt = existing.CreatedAt
	}
	r.patients[p.ID] = &clone
	return nil
}

func (r *memRepository) Get(ctx context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *memRepository) List(ctx context.Context) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	patients := make([]*Patient, 0, len(r.patients))
	for _, p := range r.patients {
		clone := *p
		patients = append(patients, &clone)
	}
	sort.Slice(patients, func(i, j int) bool { return patients[i].ID < patients[j].ID })
	return patients, nil
}
