package gateway

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no binding exists for a gateway.
var ErrNotFound = errors.New("gateway binding not found")

// Repository is the gateway directory. Upsert replaces any existing binding
// for the same normalized gateway id.
type Repository interface {
	Upsert(ctx context.Context, b *Binding) error
	Get(ctx context.Context, gatewayNorm string) (*Binding, error)
	List(ctx context.Context) ([]*Binding, error)
}
