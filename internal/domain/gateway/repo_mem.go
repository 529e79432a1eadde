package gateway

import (
	"context"
	"sort"
	"sync"
)

type memRepository struct {
	mu       sync.RWMutex
	bindings map[string]*Binding
}

func NewMemRepository() Repository {
	return &memRepository{bindings: make(map[string]*Binding)}
}

func (r *memRepository) Upsert(ctx context.Context, b *Binding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *b
	r.bindings[b.GatewayNorm] = &clone
	return nil
}

func (r *memRepository) Get(ctx context.Context, gatewayNorm string) (*Binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[gatewayNorm]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *memRepository) List(ctx context.Context) ([]*Binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bindings := make([]*Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		clone := *b
		bindings = append(bindings, &clone)
	}
	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].GatewayNorm < bindings[j].GatewayNorm
	})
	return bindings, nil
}
